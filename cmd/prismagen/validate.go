package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/prismagen"
	"github.com/tordrt/prismagen/internal/formatter"
)

// errValidationFailed is returned when the stored document has errors
var errValidationFailed = errors.New("validation failed")

func newValidateCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every model and relationship of the stored data model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := a.openStore(ctx, nil)
			if err != nil {
				return err
			}
			defer a.closeStore(cmd, store)

			doc, err := prismagen.Load(ctx, store, a.cfg.Store.Key)
			if err != nil {
				return err
			}

			report := prismagen.Validate(doc)
			switch format {
			case "text":
				err = formatter.NewTextFormatter(cmd.OutOrStdout()).Format(report)
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				err = enc.Encode(report)
			default:
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", format)
			}
			if err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			if report.HasErrors() {
				return errValidationFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Report format: text or json")
	return cmd
}
