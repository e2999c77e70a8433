package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"lcevc.dev/pkg/conformance/internal/domain"
	m "lcevc.dev/pkg/conformance/internal/model"
)

func expectDecode(f commandFixture, report m.DecodeReport) *domain.DecodeArgs {
	captured := &domain.DecodeArgs{}

	f.workflow.On("Decode", mock.Anything, mock.AnythingOfType("domain.DecodeArgs")).
		Run(func(args mock.Arguments) {
			*captured = args.Get(1).(domain.DecodeArgs)
		}).
		Return(report, nil).
		Once()

	return captured
}

func TestDecodeCmd_Defaults(t *testing.T) {
	f := newCommandFixture(t, newDecodeCmd())
	args := expectDecode(f, m.DecodeReport{})

	require.NoError(t, f.execute("decode"))

	assert.Equal(t, m.Path(platformExe("..", "ModelDecoder")), args.Decoder)
	assert.Equal(t, m.Path("inputs"), args.Root)
	assert.Equal(t, "**/*.bit", args.Pattern)
	assert.Equal(t, "auto", args.Base)
	assert.Equal(t, 0, args.Workers)
	assert.Equal(t, m.DisplayNone, args.Display)
	assert.Equal(t, isolationGoroutine, f.options.isolation)
}

func TestDecodeCmd_Flags(t *testing.T) {
	f := newCommandFixture(t, newDecodeCmd())
	args := expectDecode(f, m.DecodeReport{})

	require.NoError(t, f.execute("decode",
		"--decoder", "dec",
		"--input_dir", "published",
		"--base", "hevc",
		"--pattern", "LTM/*.bit",
		"-p", "2",
		"--progress", "verbose",
	))

	assert.Equal(t, m.Path("dec"), args.Decoder)
	assert.Equal(t, m.Path("published"), args.Root)
	assert.Equal(t, "hevc", args.Base)
	assert.Equal(t, "LTM/*.bit", args.Pattern)
	assert.Equal(t, 2, args.Workers)
	assert.Equal(t, m.DisplayVerbose, args.Display)
}

func TestDecodeCmd_Failures(t *testing.T) {
	f := newCommandFixture(t, newDecodeCmd())
	expectDecode(f, m.DecodeReport{Failures: 5})

	var failures *FailuresError
	require.ErrorAs(t, f.execute("decode"), &failures)
	assert.Equal(t, 5, failures.Count)
}
