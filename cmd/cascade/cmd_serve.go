package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/cascade/internal/application/cascade"
	apihttp "github.com/sawpanic/cascade/internal/interfaces/http"
)

type serveOptions struct {
	host    string
	port    int
	records string
}

func newServeCmd(g *globalOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Starts the JSON API with /v1/cascade, /v1/history, /health and /metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, opts)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "HTTP server host (overrides config)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "HTTP server port (overrides config)")
	cmd.Flags().StringVar(&opts.records, "records", "", "Records file or directory used when a request has no window")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalOptions, opts *serveOptions) error {
	ctx := cmd.Context()

	rt, err := g.load(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	httpCfg := rt.cfg.HTTP
	if opts.host != "" {
		httpCfg.Host = opts.host
	}
	if opts.port != 0 {
		httpCfg.Port = opts.port
	}

	handlerOpts := []apihttp.HandlerOption{
		apihttp.WithProfile(rt.profile),
		apihttp.WithVersion(version),
	}
	if opts.records != "" {
		store, err := loadRecords(opts.records)
		if err != nil {
			return err
		}
		handlerOpts = append(handlerOpts, apihttp.WithRecords(store, rt.policy.WindowDays()))
	}

	memo := cascade.NewMemoizer(httpCfg.MemoSize, rt.metrics)
	handlers := apihttp.NewHandlers(rt.engine(), memo, rt.repo, handlerOpts...)
	server := apihttp.NewServer(apihttp.ServerConfigFrom(httpCfg), handlers, rt.metrics)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}
