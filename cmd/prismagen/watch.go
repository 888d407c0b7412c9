package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tordrt/prismagen"
	"github.com/tordrt/prismagen/internal/db"
	"github.com/tordrt/prismagen/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the output whenever the document file changes",
		Long: `Watch requires a file store (.yaml, .yml or .json). The output is generated once
at start and again after every change to the document file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out.outputFile == "" && out.outputDir == "" {
				return fmt.Errorf("one of --output or --output-dir must be specified")
			}

			fs, err := db.NewFileStore(a.cfg.Store.URL)
			if err != nil {
				return fmt.Errorf("watch requires a file store: %w", err)
			}
			store := db.NewObservableStore(fs, nil, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := fs.Path(a.cfg.Store.Key)
			a.logger.Info("watching document", "file", path)
			return watcher.Watch(ctx, path, func(ctx context.Context) error {
				doc, err := prismagen.Load(ctx, store, a.cfg.Store.Key)
				if err != nil {
					return err
				}
				if err := a.writeOutput(cmd, doc, out); err != nil {
					return err
				}
				a.logger.Info("regenerated output", "models", len(doc.Models), "relationships", len(doc.Relationships))
				return nil
			}, watcher.WithLogger(a.logger))
		},
	}
	out.register(cmd, true)
	return cmd
}
