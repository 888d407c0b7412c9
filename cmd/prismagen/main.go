package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tordrt/prismagen"
	"github.com/tordrt/prismagen/internal/config"
	"github.com/tordrt/prismagen/internal/db"
	"github.com/tordrt/prismagen/internal/formatter"
	"github.com/tordrt/prismagen/internal/schema"
	"github.com/tordrt/prismagen/internal/state"
	"github.com/tordrt/prismagen/internal/validate"
)

// app holds the global flags and the resolved configuration
type app struct {
	configPath string
	envFile    string
	storeURL   string
	key        string
	logLevel   string
	logFormat  string

	provider           string
	urlEnv             string
	clientProvider     string
	nameRelationFields bool
	relationTypeByID   bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "prismagen",
		Short: "Edit a relational data model and generate a Prisma schema from it",
		Long: `Prismagen keeps a data model of models, fields and relationships in a document store,
validates every change, and compiles the model into a Prisma schema document.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (.yaml, .yml, .toml, .json or .ini)")
	flags.StringVar(&a.envFile, "env-file", config.DefaultEnvFile, "File of PRISMAGEN_* variables, read when present")
	flags.StringVar(&a.storeURL, "store", "", "Document store URL or .yaml/.json path (default: prismagen.yaml)")
	flags.StringVar(&a.key, "key", "", "Document key in the store")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&a.provider, "provider", "", "Datasource provider (default: postgresql)")
	flags.StringVar(&a.urlEnv, "url-env", "", "Environment variable holding the datasource URL (default: DATABASE_URL)")
	flags.StringVar(&a.clientProvider, "client-provider", "", "Generator provider (default: prisma-client-js)")
	flags.BoolVar(&a.nameRelationFields, "name-relation-fields", false, "Prefix relation fields with a name derived from the related model")
	flags.BoolVar(&a.relationTypeByID, "relation-type-by-id", false, "Render relation field types with model ids instead of names")

	rootCmd.AddCommand(
		newGenerateCmd(a),
		newDocsCmd(a),
		newValidateCmd(a),
		newImportCmd(a),
		newModelCmd(a),
		newRelationCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

// load resolves the configuration: file and environment first, flags last
func (a *app) load(cmd *cobra.Command) error {
	lookup, err := config.EnvLookup(a.envFile)
	if err != nil {
		return err
	}
	cfg, err := config.LoadWithEnv(a.configPath, lookup)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.URL = a.storeURL
	}
	if flags.Changed("key") {
		cfg.Store.Key = a.key
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("provider") {
		cfg.Prisma.Provider = a.provider
	}
	if flags.Changed("url-env") {
		cfg.Prisma.URLEnv = a.urlEnv
	}
	if flags.Changed("client-provider") {
		cfg.Prisma.ClientProvider = a.clientProvider
	}
	if flags.Changed("name-relation-fields") {
		cfg.Prisma.NameRelationFields = a.nameRelationFields
	}
	if flags.Changed("relation-type-by-id") {
		cfg.Prisma.RelationTypeByID = a.relationTypeByID
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openStore opens the configured store. metrics may be nil.
func (a *app) openStore(ctx context.Context, metrics *db.StoreMetrics) (db.Store, error) {
	s, err := prismagen.Open(ctx, a.cfg.Store.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return db.NewObservableStore(s, metrics, a.logger), nil
}

func (a *app) closeStore(cmd *cobra.Command, s db.Store) {
	if err := s.Close(); err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close store: %v\n", err)
	}
}

// openState loads the stored document into a container that saves every commit
func (a *app) openState(ctx context.Context, s db.Store) (*state.Container, error) {
	doc, err := prismagen.Load(ctx, s, a.cfg.Store.Key)
	if err != nil {
		return nil, err
	}
	return state.New(*doc, state.WithCommitHook(func(next schema.Document) error {
		return prismagen.Save(ctx, s, a.cfg.Store.Key, &next)
	})), nil
}

// printWarnings reports the non-blocking diagnostics of a commit
func printWarnings(w io.Writer, ds validate.Diagnostics) {
	for _, d := range ds.Warnings() {
		_, _ = fmt.Fprintln(w, d.Error())
	}
}

// prismaOptions returns the configured generation options
func (a *app) prismaOptions() *formatter.PrismaOptions {
	return a.cfg.PrismaOptions()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
