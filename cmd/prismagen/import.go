package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tordrt/prismagen"
	"github.com/tordrt/prismagen/internal/config"
)

type importFlags struct {
	dbURL      string
	mysqlURL   string
	sqlitePath string
	tables     string
	exclude    string
	schemaName string
	dryRun     bool
}

func newImportCmd(a *app) *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the data model of a live database into the store",
		Long: `Import introspects a PostgreSQL, MySQL or SQLite database and replaces the stored
document with one model per table and one relationship per foreign key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.dbURL, "db-url", "", "Database URL (postgres://, mysql:// or sqlite://)")
	cmd.Flags().StringVar(&f.mysqlURL, "mysql-url", "", "MySQL URL, with or without the mysql:// scheme")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite", "", "SQLite database file path")
	cmd.Flags().StringVarP(&f.tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "Tables to skip (comma-separated, optional)")
	cmd.Flags().StringVarP(&f.schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the generated schema instead of saving the document")
	return cmd
}

// databaseURL resolves the database flags into one URL
func (f importFlags) databaseURL() (string, error) {
	count := 0
	for _, v := range []string{f.dbURL, f.mysqlURL, f.sqlitePath} {
		if v != "" {
			count++
		}
	}
	if count == 0 {
		return "", fmt.Errorf("one of --db-url, --mysql-url, or --sqlite must be specified")
	}
	if count > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case f.sqlitePath != "":
		return "sqlite://" + f.sqlitePath, nil
	case f.mysqlURL != "":
		if strings.HasPrefix(f.mysqlURL, "mysql://") {
			return f.mysqlURL, nil
		}
		return "mysql://" + f.mysqlURL, nil
	default:
		return f.dbURL, nil
	}
}

func (a *app) runImport(cmd *cobra.Command, f importFlags) error {
	ctx := cmd.Context()

	databaseURL, err := f.databaseURL()
	if err != nil {
		return err
	}

	opts := &prismagen.Options{
		Tables:        config.SplitList(f.tables),
		ExcludeTables: append(append([]string{}, a.cfg.Import.Exclude...), config.SplitList(f.exclude)...),
		SchemaName:    f.schemaName,
	}
	if opts.SchemaName == "" && !strings.HasPrefix(databaseURL, "mysql://") {
		opts.SchemaName = a.cfg.Import.Schema
	}

	doc, err := prismagen.Import(ctx, databaseURL, opts)
	if err != nil {
		return fmt.Errorf("failed to import schema: %w", err)
	}
	a.logger.Info("introspected database", "models", len(doc.Models), "relationships", len(doc.Relationships))

	if errs, warnings := prismagen.Validate(doc).Count(); errs > 0 || warnings > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: imported document has %d error(s), %d warning(s); run validate for details\n", errs, warnings)
	}

	if f.dryRun {
		_, err := fmt.Fprint(cmd.OutOrStdout(), prismagen.Generate(doc, a.prismaOptions()))
		return err
	}

	store, err := a.openStore(ctx, nil)
	if err != nil {
		return err
	}
	defer a.closeStore(cmd, store)

	if err := prismagen.Save(ctx, store, a.cfg.Store.Key, doc); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d models and %d relationships\n", len(doc.Models), len(doc.Relationships))
	return nil
}
