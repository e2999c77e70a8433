package cmd

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lcevc.dev/pkg/conformance/internal/domain"
	m "lcevc.dev/pkg/conformance/internal/model"
)

const decodeLongDescription = `Decode every published bitstream below the input directory again and check
the output against the stored "<name>.yuv.md5" and "<name>_userdata.bin".

The base codec is read from the bitstream's "<name>.cfg" when --base=auto, or
guessed from well known sequence names when the parameter file is missing.`

var (
	decodeDecoderFlag  string
	decodeInputDirFlag string
	decodeBaseFlag     string
	decodeMatchFlag    string
	decodeParallelFlag int
	decodeProgressFlag string
	decodeUIFlag       string
)

var decodeFlagBindings = map[string]string{
	decoderFlagName:     decoderKey,
	inputDirFlagName:    inputDirKey,
	decodeBaseFlagName:  decodeBaseKey,
	decodeMatchFlagName: decodeMatchKey,
	parallelFlagName:    parallelKey,
	progressFlagName:    progressKey,
	uiFlagName:          uiKey,
}

// decodeCmd represents the decode command.
var decodeCmd = newDecodeCmd()

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Re-decode published conformance bitstreams",
		Long:  decodeLongDescription,
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindFlags(cmd, decodeFlagBindings)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey), uuid.NewString())

			ui := viper.GetString(uiKey)
			flow := workflowFactory(cmd, workflowOptions{ui: ui, isolation: isolationGoroutine})

			report, err := flow.Decode(context.Background(), domain.DecodeArgs{
				Decoder: m.Path(viper.GetString(decoderKey)),
				Root:    m.Path(viper.GetString(inputDirKey)),
				Pattern: viper.GetString(decodeMatchKey),
				Base:    viper.GetString(decodeBaseKey),
				Workers: max(viper.GetInt(parallelKey), 0),
				Display: displayMode(ui),
			})
			if err != nil {
				return err
			}

			if report.Failures > 0 {
				return &FailuresError{Count: report.Failures}
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&decodeDecoderFlag, decoderFlagName, viper.GetString(decoderKey), "test model decoder")
	flags.StringVar(&decodeInputDirFlag, inputDirFlagName, viper.GetString(inputDirKey), "directory holding the published bitstreams")
	flags.StringVar(&decodeBaseFlag, decodeBaseFlagName, viper.GetString(decodeBaseKey), "base encoder (auto, avc, hevc, evc, vvc)")
	flags.StringVar(&decodeMatchFlag, decodeMatchFlagName, viper.GetString(decodeMatchKey), "glob selecting bitstreams below the input directory")
	flags.IntVarP(&decodeParallelFlag, parallelFlagName, "p", viper.GetInt(parallelKey), "number of directories decoded in parallel")
	flags.StringVar(&decodeProgressFlag, progressFlagName, viper.GetString(progressKey), "progress while decoding (none, spinner or verbose)")
	flags.StringVar(&decodeUIFlag, uiFlagName, viper.GetString(uiKey), "status display (simple or tui)")

	return cmd
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
