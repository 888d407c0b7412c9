package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tordrt/prismagen"
	"github.com/tordrt/prismagen/internal/formatter"
)

// outputFlags selects where and how a document is rendered
type outputFlags struct {
	outputFile     string
	outputDir      string
	format         string
	splitThreshold int
}

func (o *outputFlags) register(cmd *cobra.Command, withFormat bool) {
	cmd.Flags().StringVarP(&o.outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&o.outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	cmd.Flags().IntVar(&o.splitThreshold, "split-threshold", 0, "Split into multiple files when model count exceeds this (requires --output-dir)")
	if withFormat {
		cmd.Flags().StringVarP(&o.format, "format", "f", formatter.FormatPrisma, "Output format: prisma or markdown")
	}
}

func newGenerateCmd(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the Prisma schema of the stored data model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, out)
		},
	}
	out.register(cmd, true)
	return cmd
}

func newDocsCmd(a *app) *cobra.Command {
	out := outputFlags{format: formatter.FormatMarkdown}
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate Markdown documentation of the stored data model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, out)
		},
	}
	out.register(cmd, false)
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, out outputFlags) error {
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
	return a.writeOutput(cmd, doc, out)
}

// writeOutput renders doc to stdout, a file, or a directory
func (a *app) writeOutput(cmd *cobra.Command, doc *prismagen.Document, out outputFlags) error {
	if out.outputDir != "" && out.outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}
	if out.format != formatter.FormatPrisma && out.format != formatter.FormatMarkdown {
		return fmt.Errorf("invalid format: %s (must be '%s' or '%s')", out.format, formatter.FormatPrisma, formatter.FormatMarkdown)
	}

	opts := &prismagen.OutputOptions{Format: out.format, Prisma: a.prismaOptions()}

	// Check if we should use multi-file output
	shouldSplit := out.outputDir != "" && (out.splitThreshold == 0 || len(doc.Models) > out.splitThreshold)
	if shouldSplit {
		opts.OutputDir = out.outputDir
		if err := prismagen.WriteSchema(doc, opts); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	}

	outputFile := out.outputFile
	if out.outputDir != "" {
		// Below the split threshold: one file inside the directory
		if err := os.MkdirAll(out.outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		outputFile = filepath.Join(out.outputDir, singleFileName(out.format))
	}

	var writer io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close output file: %v\n", err)
			}
		}()
		writer = f
	}

	opts.Writer = writer
	if err := prismagen.WriteSchema(doc, opts); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func singleFileName(format string) string {
	if format == formatter.FormatMarkdown {
		return "schema.md"
	}
	return "schema.prisma"
}
