package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lcevc.dev/pkg/conformance/internal/adapter"
	"lcevc.dev/pkg/conformance/internal/domain"
	m "lcevc.dev/pkg/conformance/internal/model"
)

const (
	workerCmdName = "worker"
	runIDFlagName = "run-id"
)

var workerRunIDFlag string

// workerExecutorFactory builds the executor a worker runs its job with; tests replace it.
var workerExecutorFactory = newWorkerExecutor

// workerCmd runs exactly one job read from stdin and writes its result to stdout.
var workerCmd = newWorkerCmd()

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    workerCmdName,
		Short:  "Run a single job (used by --isolation=process)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configureLogger(workerLogPath(viper.GetString(logFilenameKey)), viper.GetBool(logVerboseKey), workerRunIDFlag)

			var job m.JobDescriptor
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&job); err != nil {
				slog.Error("Failed to decode job", "error", err)
				return fmt.Errorf("decode job: %w", err)
			}

			executor := workerExecutorFactory(cmd)

			result, err := executor.RunJob(context.Background(), job)
			if err != nil {
				slog.Error("Job failed to run", "job", job.Number, "error", err)
				result = m.JobResult{Number: job.Number, Test: job.Test.Clone(), Err: err.Error()}
			}

			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(result); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&workerRunIDFlag, runIDFlagName, "", "run id of the coordinating batch")

	return cmd
}

func newWorkerExecutor(cmd *cobra.Command) domain.JobExecutor {
	status := adapter.NewSyncWriter(cmd.ErrOrStderr())
	fs := adapter.NewLocalWorkspaceFSAdapter()
	resolver := domain.NewParameterResolver(adapter.NewManifestStore(), fs)
	verifier := domain.NewVerifier(adapter.NewLocalChecksumAdapter(), fs)

	return domain.NewJobExecutor(fs, adapter.NewLocalProcessAdapter(status), resolver, verifier, domain.NewConformanceWriter(fs), status)
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
