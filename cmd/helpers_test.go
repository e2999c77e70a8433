package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"lcevc.dev/pkg/conformance/internal/domain"
	domainmocks "lcevc.dev/pkg/conformance/internal/domain/mocks"
)

// resetConfig gives each test a clean viper state and keeps the log out of the package directory.
func resetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	configureViper()
	setDefaults()
	viper.Set(logFilenameKey, filepath.Join(t.TempDir(), "conformance.log"))

	t.Cleanup(func() {
		viper.Reset()
		configureViper()
		setDefaults()
	})
}

type commandFixture struct {
	cmd      *cobra.Command
	workflow *domainmocks.MockWorkflow
	options  *workflowOptions
	out      *bytes.Buffer
}

// newCommandFixture builds a root command whose workflow is a mock.
func newCommandFixture(t *testing.T, subcommands ...*cobra.Command) commandFixture {
	t.Helper()

	resetConfig(t)

	fixture := commandFixture{
		workflow: domainmocks.NewMockWorkflow(t),
		options:  &workflowOptions{},
		out:      &bytes.Buffer{},
	}

	originalFactory := workflowFactory
	workflowFactory = func(_ *cobra.Command, opts workflowOptions) domain.Workflow {
		*fixture.options = opts
		return fixture.workflow
	}

	t.Cleanup(func() { workflowFactory = originalFactory })

	fixture.cmd = newRootCmd()
	fixture.cmd.AddCommand(subcommands...)
	fixture.cmd.SetOut(fixture.out)
	fixture.cmd.SetErr(&bytes.Buffer{})

	return fixture
}

func (f commandFixture) execute(args ...string) error {
	f.cmd.SetArgs(args)
	return f.cmd.Execute()
}
