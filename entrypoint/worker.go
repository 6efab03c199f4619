package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/pipeline"
	"github.com/Kuljeet1998/healthcare-nlp/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func newWorkerCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Analyze query batches from RabbitMQ",
		Long: `Consumes batch analysis requests from RabbitMQ. Connection settings come from
FHIRQ_RMQ_*, FHIRQ_REDIS_*, FHIRQ_S3_* and FHIRQ_AWS_* variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			analyzer, err := newAnalyzer(v, time.Now)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ppln := pipeline.NewPipeline(analyzer)
			group, ctx := errgroup.WithContext(ctx)
			if v.GetBool(keyServe) {
				group.Go(func() error {
					mainLogger.Info().Msg("Starting API service")
					return serve(ctx, analyzer, v)
				})
			}
			group.Go(func() error {
				return runWorker(ctx, ppln, v.GetDuration(keyRestart), worker.New)
			})
			return group.Wait()
		},
	}
	addServerFlags(cmd)
	cmd.Flags().Bool(keyServe, false, "also serve the HTTP API")
	cmd.Flags().Duration(keyRestart, 5*time.Second, "delay before restarting a failed worker")
	return cmd
}

type batchWorker interface {
	StartWorker(ctx context.Context) error
}

// runWorker restarts the worker after failures until ctx is done.
func runWorker[W batchWorker](
	ctx context.Context,
	ppln pipeline.Pipeline,
	delay time.Duration,
	newWorker func(pipeline.Pipeline) (W, error),
) error {
	mainLogger.Info().Msg("Start analysis worker")
	for {
		w, err := newWorker(ppln)
		if err == nil {
			err = w.StartWorker(ctx)
		}
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			mainLogger.Err(err).Msgf("Worker returned with error. Launching new in %s", delay)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}
