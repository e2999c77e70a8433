// Package cmd provides the root command and CLI setup for the conformance tool.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"lcevc.dev/pkg/conformance/internal/adapter"
	"lcevc.dev/pkg/conformance/internal/controller"
	"lcevc.dev/pkg/conformance/internal/domain"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// maxExitCode keeps large failure counts from wrapping to success.
const maxExitCode = 255

// FailuresError reports that a batch finished with failed jobs.
type FailuresError struct {
	Count int
}

func (e *FailuresError) Error() string {
	return fmt.Sprintf("%d test(s) failed", e.Count)
}

// ExitCode is the process exit status for the failure count.
func (e *FailuresError) ExitCode() int {
	return min(e.Count, maxExitCode)
}

// workflowOptions selects how the workflow is assembled for one command.
type workflowOptions struct {
	ui        string
	isolation string
	runID     string
}

// workflowFactory builds the workflow a command runs; tests replace it.
var workflowFactory = newWorkflow

var verboseFlag bool

const rootLongDescription = `Conformance drives an LCEVC encoder, decoder, bitstream validator and
reference decoder harness over a matrix of tests, codecs and sequences, and
checks that every decode path reproduces the encoder's reconstruction.

Settings come from flags, CONFORMANCE_* environment variables and an optional
conformance.yaml in the working directory.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "conformance",
		Short:         "LCEVC conformance bitstream generator and checker",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// bindFlags binds the flags of the command being executed. Commands share
// config keys, so binding happens before each run rather than at startup.
func bindFlags(cmd *cobra.Command, bindings map[string]string) {
	for name, key := range bindings {
		bindFlagToConfig(cmd.Flags().Lookup(name), key)
	}
}

// newWorkflow assembles the workflow from local adapters. Under the TUI the
// supervisor's own progress lines are dropped so they do not fight the
// program for the terminal.
func newWorkflow(cmd *cobra.Command, opts workflowOptions) domain.Workflow {
	ui := controller.NewUI(cmd, opts.ui)

	var status io.Writer = adapter.NewSyncWriter(cmd.ErrOrStderr())
	if _, interactive := ui.(*controller.TUI); interactive {
		status = io.Discard
	}

	fs := adapter.NewLocalWorkspaceFSAdapter()
	manifests := adapter.NewManifestStore()
	process := adapter.NewLocalProcessAdapter(status)
	verifier := domain.NewVerifier(adapter.NewLocalChecksumAdapter(), fs)
	resolver := domain.NewParameterResolver(manifests, fs)

	var executor domain.JobExecutor = domain.NewJobExecutor(fs, process, resolver, verifier, domain.NewConformanceWriter(fs), status)
	if opts.isolation == isolationProcess {
		executor = adapter.NewWorkerProcessAdapter(workerCommand(opts.runID), status)
	}

	return domain.NewWorkflow(domain.WorkflowDeps{
		Manifests: manifests,
		Reports:   adapter.NewReportStore(),
		FS:        fs,
		Process:   process,
		UI:        ui,
		Builder:   domain.NewJobBuilder(fs),
		Resolver:  resolver,
		Executor:  executor,
		Verifier:  verifier,
	})
}

func workerCommand(runID string) []string {
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}

	return []string{self, workerCmdName, "--" + runIDFlagName, runID}
}

// displayMode is the supervisor progress display, forced off under the TUI.
func displayMode(ui string) m.DisplayMode {
	if ui == controller.KindTUI {
		return m.DisplayNone
	}

	return m.ParseDisplayMode(viper.GetString(progressKey))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var failures *FailuresError
	if errors.As(err, &failures) {
		os.Exit(failures.ExitCode())
	}

	_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
