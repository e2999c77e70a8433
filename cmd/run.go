package cmd

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lcevc.dev/pkg/conformance/internal/adapter"
	"lcevc.dev/pkg/conformance/internal/domain"
	m "lcevc.dev/pkg/conformance/internal/model"
)

const runLongDescription = `Build one job per codec, sequence and test from the test, codec, input and
base files, then encode, decode, validate and harness-decode each job in its
own directory under the work directory.

Every job checks that the decoder output and the harness output both match
the encoder reconstruction. The hash report is written when the batch ends
and the exit status is the number of failed jobs.`

var (
	encoderFlag    string
	decoderFlag    string
	validatorFlag  string
	harnessFlag    string
	testFileFlag   string
	codecsFileFlag string
	inputsFileFlag string
	basesFileFlag  string
	inputDirFlag   string
	baseDirFlag    string
	workDirFlag    string
	setsFlag       string
	progressFlag   string
	parallelFlag   int
	decodeOnlyFlag bool
	isolationFlag  string
	uiFlag         string
	hashesFlag     string
	referenceFlag  string
)

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the encode/decode conformance batch",
		Long:  runLongDescription,
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd, runFlagBindings)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID := uuid.NewString()
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey), runID)

			ui := viper.GetString(uiKey)
			flow := workflowFactory(cmd, workflowOptions{
				ui:        ui,
				isolation: viper.GetString(isolationKey),
				runID:     runID,
			})

			report, err := flow.Run(context.Background(), runArgs(ui))
			if err != nil {
				return err
			}

			if report.Failures > 0 {
				return &FailuresError{Count: report.Failures}
			}

			return nil
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runArgs(ui string) domain.RunArgs {
	return domain.RunArgs{
		Files: adapter.BatchFiles{
			Tests:  m.Path(viper.GetString(testFileKey)),
			Codecs: m.Path(viper.GetString(codecsFileKey)),
			Inputs: m.Path(viper.GetString(inputsFileKey)),
			Bases:  m.Path(viper.GetString(basesFileKey)),
		},
		Build: domain.BuildArgs{
			Tools: m.Executables{
				Encoder:   m.Path(viper.GetString(encoderKey)),
				Decoder:   m.Path(viper.GetString(decoderKey)),
				Validator: m.Path(viper.GetString(validatorKey)),
				Harness:   m.Path(viper.GetString(harnessKey)),
			},
			InputDir:   m.Path(viper.GetString(inputDirKey)),
			BaseDir:    m.Path(viper.GetString(baseDirKey)),
			WorkDir:    m.Path(viper.GetString(workDirKey)),
			Sets:       domain.ParseSets(viper.GetString(setsKey)),
			Display:    displayMode(ui),
			DecodeOnly: viper.GetBool(decodeOnlyKey),
			Manifest: m.ManifestInfo{
				Profile:     viper.GetString(profileKey),
				PictureRate: viper.GetInt(pictureRateKey),
				Release:     viper.GetString(releaseKey),
				Contact:     viper.GetString(contactKey),
			},
		},
		Workers:   max(viper.GetInt(parallelKey), 0),
		Hashes:    m.Path(viper.GetString(hashesKey)),
		Reference: m.Path(viper.GetString(referenceKey)),
	}
}

var runFlagBindings = map[string]string{
	encoderFlagName:    encoderKey,
	decoderFlagName:    decoderKey,
	validatorFlagName:  validatorKey,
	harnessFlagName:    harnessKey,
	testFileFlagName:   testFileKey,
	codecsFileFlagName: codecsFileKey,
	inputsFileFlagName: inputsFileKey,
	basesFileFlagName:  basesFileKey,
	inputDirFlagName:   inputDirKey,
	baseDirFlagName:    baseDirKey,
	workDirFlagName:    workDirKey,
	setsFlagName:       setsKey,
	progressFlagName:   progressKey,
	parallelFlagName:   parallelKey,
	decodeOnlyFlagName: decodeOnlyKey,
	isolationFlagName:  isolationKey,
	uiFlagName:         uiKey,
	hashesFlagName:     hashesKey,
	referenceFlagName:  referenceKey,
}

func configureRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&encoderFlag, encoderFlagName, viper.GetString(encoderKey), "test model encoder")
	flags.StringVar(&decoderFlag, decoderFlagName, viper.GetString(decoderKey), "test model decoder")
	flags.StringVar(&validatorFlag, validatorFlagName, viper.GetString(validatorKey), "bitstream validator")
	flags.StringVar(&harnessFlag, harnessFlagName, viper.GetString(harnessKey), "reference decoder harness")

	flags.StringVar(&testFileFlag, testFileFlagName, viper.GetString(testFileKey), "tests file (JSON, YAML or CSV)")
	flags.StringVar(&codecsFileFlag, codecsFileFlagName, viper.GetString(codecsFileKey), "codecs file (JSON or YAML)")
	flags.StringVar(&inputsFileFlag, inputsFileFlagName, viper.GetString(inputsFileKey), "inputs file (JSON or YAML)")
	flags.StringVar(&basesFileFlag, basesFileFlagName, viper.GetString(basesFileKey), "bases file (JSON or YAML)")

	flags.StringVar(&inputDirFlag, inputDirFlagName, viper.GetString(inputDirKey), "root of test input sequences")
	flags.StringVar(&baseDirFlag, baseDirFlagName, viper.GetString(baseDirKey), "root of base bitstreams and base reconstructions")
	flags.StringVar(&workDirFlag, workDirFlagName, viper.GetString(workDirKey), "directory the per-test output directories are created in")

	flags.StringVar(&setsFlag, setsFlagName, viper.GetString(setsKey), "comma separated test sets to run")
	flags.StringVar(&progressFlag, progressFlagName, viper.GetString(progressKey), "progress while coding (none, spinner or verbose)")
	flags.IntVarP(&parallelFlag, parallelFlagName, "p", viper.GetInt(parallelKey), "number of parallel workers (0 runs jobs one at a time)")
	flags.BoolVar(&decodeOnlyFlag, decodeOnlyFlagName, viper.GetBool(decodeOnlyKey), "skip encoding and verify existing bitstreams")
	flags.StringVar(&isolationFlag, isolationFlagName, viper.GetString(isolationKey), "job isolation (goroutine or process)")
	flags.StringVar(&uiFlag, uiFlagName, viper.GetString(uiKey), "status display (simple or tui)")

	flags.StringVar(&hashesFlag, hashesFlagName, viper.GetString(hashesKey), "hash report written at the end of the batch")
	flags.StringVar(&referenceFlag, referenceFlagName, viper.GetString(referenceKey), "earlier hash report to compare the new one with")
}
