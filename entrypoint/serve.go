package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/api"
	"github.com/Kuljeet1998/healthcare-nlp/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query analysis HTTP API",
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
			return serve(ctx, analyzer, v)
		},
	}
	addServerFlags(cmd)
	return cmd
}

// addServerFlags declares the API flags. serve and worker share the keys, so
// each command binds its own flag set when it runs.
func addServerFlags(cmd *cobra.Command) {
	defaults := api.DefaultConfig()
	flags := cmd.Flags()
	flags.String(keyAddr, ":10000", "listen address")
	flags.Duration(keyCacheTTL, defaults.CacheTTL, "result cache expiration, 0 disables the cache")
	flags.StringSlice(keyCORSOrigins, defaults.CORSOrigins, "allowed CORS origins")
	flags.Int(keyMaxQueryLen, defaults.MaxQueryLength, "longest accepted query in characters, 0 for no limit")
}

func serverConfig(v *viper.Viper) api.Config {
	cfg := api.DefaultConfig()
	cfg.CacheTTL = v.GetDuration(keyCacheTTL)
	cfg.CORSOrigins = v.GetStringSlice(keyCORSOrigins)
	cfg.MaxQueryLength = v.GetInt(keyMaxQueryLen)
	return cfg
}

// serve runs the API until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, analyzer *pipeline.Analyzer, v *viper.Viper) error {
	server := api.NewServer(analyzer, serverConfig(v))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(v.GetString(keyAddr))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		mainLogger.Err(err).Msg("Server forced to shutdown")
		return err
	}
	return <-errCh
}
