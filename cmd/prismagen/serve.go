package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tordrt/prismagen"
	"github.com/tordrt/prismagen/internal/api"
	"github.com/tordrt/prismagen/internal/db"
	"github.com/tordrt/prismagen/internal/state"
	"github.com/tordrt/prismagen/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the data model editing API over HTTP",
		Long: `Serve exposes the stored data model over a JSON API. Every accepted change is
validated and saved to the store; /metrics exposes Prometheus metrics.

With --watch and a file store, edits made to the document file outside the
server are loaded into the running server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}

			var docFile string
			if watch {
				fs, err := db.NewFileStore(a.cfg.Store.URL)
				if err != nil {
					return fmt.Errorf("--watch requires a file store: %w", err)
				}
				docFile = fs.Path(a.cfg.Store.Key)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			store, err := a.openStore(ctx, db.NewStoreMetrics(reg))
			if err != nil {
				return err
			}
			defer a.closeStore(cmd, store)

			c, err := a.openState(ctx, store)
			if err != nil {
				return err
			}

			server := api.NewServer(c, api.Options{
				Prisma:       a.prismaOptions(),
				Registry:     reg,
				Logger:       a.logger,
				AllowOrigins: a.cfg.Server.AllowOrigins,
			})

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.Run(ctx, a.cfg.Server.Addr)
			})
			if docFile != "" {
				g.Go(func() error {
					return watcher.Watch(ctx, docFile, a.reloader(store, c), watcher.WithLogger(a.logger))
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: :8080)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the document when its file changes (file stores only)")
	return cmd
}

// reloader loads the stored document into c
func (a *app) reloader(store db.Store, c *state.Container) func(context.Context) error {
	return func(ctx context.Context) error {
		doc, err := prismagen.Load(ctx, store, a.cfg.Store.Key)
		if err != nil {
			return err
		}
		c.Replace(*doc)
		a.logger.Debug("reloaded document", "models", len(doc.Models), "relationships", len(doc.Relationships))
		return nil
	}
}
