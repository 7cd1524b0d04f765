package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/svbridge/internal/server"
	"github.com/desertthunder/svbridge/internal/shared"
)

// Serve runs the HTTP surface until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	}

	db, release, err := r.database()
	if err != nil {
		return err
	}
	defer release()

	if _, err := r.baseURL(); err != nil {
		r.logger.Warn("generator is not configured; requests will fail until it is", "error", err)
	}

	configs, integrations := r.stores(db)
	srv := server.New(server.Deps{
		Generator:    r.generator,
		BaseURL:      r.baseURL,
		Reconciler:   r.reconciler,
		Batcher:      r.batcher,
		Configs:      configs,
		Integrations: integrations,
		Logger:       shared.WithLogger(r.logger, "component", "server"),
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, addr)
}
