package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lcevc.dev/pkg/conformance/internal/controller"
	"lcevc.dev/pkg/conformance/internal/domain"
	m "lcevc.dev/pkg/conformance/internal/model"
)

// ErrHashesDiffer is returned by compare when the reports are not identical.
var ErrHashesDiffer = errors.New("hash reports differ")

// compareCmd represents the compare command.
var compareCmd = newCompareCmd()

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <reference> [current]",
		Short: "Compare a hash report with a reference",
		Long: `Compare two hash reports key by key and print a unified diff of the
differences. The current report defaults to the configured report.hashes.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			current := viper.GetString(hashesKey)
			if len(args) == 2 {
				current = args[1]
			}

			flow := workflowFactory(cmd, workflowOptions{ui: controller.KindSimple, isolation: isolationGoroutine})

			comparison, err := flow.Compare(context.Background(), domain.CompareArgs{
				Reference: m.Path(args[0]),
				Current:   m.Path(current),
			})
			if err != nil {
				return err
			}

			if !comparison.Equal() {
				return ErrHashesDiffer
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
