package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/prismagen/internal/config"
	"github.com/tordrt/prismagen/internal/schema"
	"github.com/tordrt/prismagen/internal/state"
)

// runCmd executes a fresh command tree against the given store
func runCmd(t *testing.T, store string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--store", store}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, store string, args ...string) string {
	t.Helper()
	out, stderr, err := runCmd(t, store, args...)
	require.NoError(t, err, stderr)
	return out
}

func TestParseFieldSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    schema.Field
		wantErr bool
	}{
		{
			spec: "id:Int@id",
			want: schema.Field{Name: "id", Type: schema.TypeInt, IsRequired: true, Attributes: []schema.FieldAttribute{schema.AttrID}},
		},
		{
			spec: "bio:String?@db.Text",
			want: schema.Field{Name: "bio", Type: schema.TypeString, Attributes: []schema.FieldAttribute{schema.AttrDBText}},
		},
		{
			spec: "tags:String[]",
			want: schema.Field{Name: "tags", Type: schema.TypeString, IsList: true},
		},
		{
			spec: "age:Int@default(18)@unique",
			want: schema.Field{
				Name: "age", Type: schema.TypeInt, IsRequired: true,
				Attributes:   []schema.FieldAttribute{schema.AttrDefault, schema.AttrUnique},
				DefaultValue: schema.NumberValue(18),
			},
		},
		{
			spec: `email:String@default("a@b.c (x)")`,
			want: schema.Field{
				Name: "email", Type: schema.TypeString, IsRequired: true,
				Attributes:   []schema.FieldAttribute{schema.AttrDefault},
				DefaultValue: schema.StringValue("a@b.c (x)"),
			},
		},
		{
			spec: "active:Boolean@default(true)",
			want: schema.Field{
				Name: "active", Type: schema.TypeBoolean, IsRequired: true,
				Attributes:   []schema.FieldAttribute{schema.AttrDefault},
				DefaultValue: schema.BoolValue(true),
			},
		},
		// Function defaults are not literals
		{spec: "createdAt:DateTime@default(now())", wantErr: true},
		{spec: "noType", wantErr: true},
		{spec: "name:", wantErr: true},
		{spec: "name:?", wantErr: true},
		{spec: "name:String@", wantErr: true},
		{spec: `name:String@default("open`, wantErr: true},
		{spec: "n:Int@default(1)x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseFieldSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseModelAttribute(t *testing.T) {
	attr, err := parseModelAttribute(`@@map("users")`)
	require.NoError(t, err)
	assert.Equal(t, schema.ModelAttribute{Name: schema.ModelAttrMap, Value: `"users"`}, attr)

	attr, err = parseModelAttribute("@@index([email, name])")
	require.NoError(t, err)
	assert.Equal(t, schema.ModelAttribute{Name: schema.ModelAttrIndex, Value: "[email, name]"}, attr)

	attr, err = parseModelAttribute("@@ignore")
	require.NoError(t, err)
	assert.Equal(t, schema.ModelAttribute{Name: schema.ModelAttrIgnore}, attr)

	_, err = parseModelAttribute("map(users)")
	assert.Error(t, err)
	_, err = parseModelAttribute("@@map(users")
	assert.Error(t, err)
}

func TestParseMapping(t *testing.T) {
	m, err := parseMapping("authorId:id")
	require.NoError(t, err)
	assert.Equal(t, schema.FieldMapping{FieldName: "authorId", ReferencedField: "id"}, m)

	for _, spec := range []string{"authorId", ":id", "authorId:"} {
		_, err := parseMapping(spec)
		assert.Error(t, err, spec)
	}
}

func TestParseRelationTypeAndAction(t *testing.T) {
	assert.Equal(t, schema.OneToMany, parseRelationType("one-to-many"))
	assert.Equal(t, schema.ManyToMany, parseRelationType("MANY_TO_MANY"))
	assert.Equal(t, schema.ActionSetNull, parseAction("set-null"))
	assert.Equal(t, schema.ActionNoAction, parseAction("NO ACTION"))
	assert.Equal(t, schema.ActionCascade, parseAction("cascade"))
	assert.Equal(t, schema.ReferentialAction(""), parseAction(""))
}

func TestResolveModel(t *testing.T) {
	doc := schema.Document{Models: []schema.Model{{ID: "u1", Name: "User"}, {ID: "Post", Name: "Comment"}}}

	m, err := resolveModel(doc, "u1")
	require.NoError(t, err)
	assert.Equal(t, "User", m.Name)

	m, err = resolveModel(doc, "User")
	require.NoError(t, err)
	assert.Equal(t, "u1", m.ID)

	// Ids win over names
	m, err = resolveModel(doc, "Post")
	require.NoError(t, err)
	assert.Equal(t, "Comment", m.Name)

	_, err = resolveModel(doc, "Missing")
	assert.ErrorContains(t, err, "not found")
}

func TestImportFlagsDatabaseURL(t *testing.T) {
	tests := []struct {
		name    string
		flags   importFlags
		want    string
		wantErr string
	}{
		{name: "postgres", flags: importFlags{dbURL: "postgres://localhost/db"}, want: "postgres://localhost/db"},
		{name: "sqlite", flags: importFlags{sqlitePath: "app.db"}, want: "sqlite://app.db"},
		{name: "mysql url", flags: importFlags{mysqlURL: "mysql://root@localhost/app"}, want: "mysql://root@localhost/app"},
		{name: "mysql without scheme", flags: importFlags{mysqlURL: "root@localhost/app"}, want: "mysql://root@localhost/app"},
		{name: "none", wantErr: "must be specified"},
		{name: "several", flags: importFlags{dbURL: "postgres://x", sqlitePath: "a.db"}, wantErr: "only one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.databaseURL()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// seedBlog creates User and Post with a relationship between them
func seedBlog(t *testing.T, store string) {
	t.Helper()
	mustRun(t, store, "model", "add", "User", "--id", "user",
		"--field", "id:Int@id", "--field", "email:String@unique", "--attr", `@@map("users")`)
	mustRun(t, store, "model", "add", "Post", "--id", "post",
		"--field", "id:Int@id", "--field", "title:String")
	mustRun(t, store, "model", "add-field", "Post", "authorId:Int")
	mustRun(t, store, "relation", "add", "--id", "rel", "--from", "Post", "--to", "User",
		"--type", "one-to-many", "--field", "authorId:id", "--on-delete", "cascade")
}

func TestModelAndRelationCommands(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.yaml")
	seedBlog(t, store)

	out := mustRun(t, store, "model", "list")
	assert.Equal(t, "user\tUser\t2 fields\npost\tPost\t3 fields\n", out)

	out = mustRun(t, store, "relation", "list")
	assert.Equal(t, "rel\tPost -> User\tONE_TO_MANY\tauthorId:id\n", out)

	out = mustRun(t, store, "model", "move", "Post", "0")
	assert.Contains(t, out, "Moved model Post to position 0")
	out = mustRun(t, store, "model", "list")
	assert.Equal(t, "post\tPost\t3 fields\nuser\tUser\t2 fields\n", out)

	out = mustRun(t, store, "model", "delete", "User")
	assert.Contains(t, out, "Deleted model User and 1 relationship(s)")
	assert.Empty(t, mustRun(t, store, "relation", "list"))
}

func TestGenerateAndDocs(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.yaml")
	seedBlog(t, store)

	out := mustRun(t, store, "generate", "--provider", "sqlite")
	assert.Contains(t, out, `provider = "sqlite"`)
	assert.Contains(t, out, "model User {")
	assert.Contains(t, out, "@relation(fields: [authorId], references: [id], onDelete: Cascade)")
	assert.Contains(t, out, `@@map("users")`)

	out = mustRun(t, store, "docs")
	assert.Contains(t, out, "# Data Model")
	assert.Contains(t, out, "## Post")

	dir := t.TempDir()
	// Below the split threshold a single file is written
	mustRun(t, store, "generate", "-d", dir, "--split-threshold", "5")
	_, err := os.Stat(filepath.Join(dir, "schema.prisma"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "User.prisma"))
	assert.True(t, os.IsNotExist(err))

	split := t.TempDir()
	mustRun(t, store, "generate", "-d", split, "-f", "markdown")
	for _, name := range []string{"_overview.md", "User.md", "Post.md"} {
		_, err := os.Stat(filepath.Join(split, name))
		assert.NoError(t, err, name)
	}

	_, _, err = runCmd(t, store, "generate", "-d", dir, "-o", filepath.Join(dir, "x.prisma"))
	assert.ErrorContains(t, err, "cannot use both")
	_, _, err = runCmd(t, store, "generate", "-f", "html")
	assert.ErrorContains(t, err, "invalid format")
}

func TestGenerateToFile(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.json")
	seedBlog(t, store)

	output := filepath.Join(t.TempDir(), "schema.prisma")
	assert.Empty(t, mustRun(t, store, "generate", "-o", output))
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "model Post {")
}

func TestRejectedCommit(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.yaml")

	_, _, err := runCmd(t, store, "model", "add", "user", "--field", "id:Int@id")
	var rejected *state.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.True(t, rejected.Diagnostics.HasErrors())

	// Nothing was saved
	assert.Empty(t, mustRun(t, store, "model", "list"))

	_, _, err = runCmd(t, store, "model", "add", "User", "--field", "id")
	assert.ErrorContains(t, err, "expected name:Type")
}

func TestCommitWarningsArePrinted(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.yaml")
	_, stderr, err := runCmd(t, store, "model", "add", "Empty")
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning: fields: Model should have at least one field")
}

func TestValidateCommand(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.yaml")
	seedBlog(t, store)

	out := mustRun(t, store, "validate")
	assert.Contains(t, out, "0 error(s), 0 warning(s)")

	out = mustRun(t, store, "validate", "-f", "json")
	assert.Contains(t, out, `"subjects"`)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte(`models:
  - id: a
    name: lower
    fields:
      - name: id
        type: Int
        isRequired: true
relationships: []
`), 0644))
	out, _, err := runCmd(t, broken, "validate")
	assert.ErrorIs(t, err, errValidationFailed)
	assert.Contains(t, out, "MODEL lower")
	assert.Contains(t, out, "1 error(s)")
}

func TestImportCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shop.db")
	conn, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = conn.Exec(`
		CREATE TABLE customers (id INTEGER PRIMARY KEY, email TEXT NOT NULL UNIQUE);
		CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			customer_id INTEGER NOT NULL REFERENCES customers(id)
		);
		CREATE TABLE schema_migrations (version TEXT PRIMARY KEY);
	`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	store := filepath.Join(t.TempDir(), "schema.yaml")

	out := mustRun(t, store, "import", "--sqlite", dbPath, "--dry-run")
	assert.Contains(t, out, "model Customer {")
	_, err = os.Stat(store)
	assert.True(t, os.IsNotExist(err), "dry run must not save")

	out = mustRun(t, store, "import", "--sqlite", dbPath, "--exclude", "schema_migrations")
	assert.Equal(t, "Imported 2 models and 1 relationships\n", out)

	out = mustRun(t, store, "model", "list")
	assert.Contains(t, out, "\tCustomer\t2 fields\n")
	assert.Contains(t, out, "\tOrder\t2 fields\n")
	assert.NotContains(t, out, "SchemaMigration")

	_, _, err = runCmd(t, store, "import")
	assert.ErrorContains(t, err, "must be specified")
}

func TestStoreKeyFlag(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.yaml")
	mustRun(t, store, "--key", "draft", "model", "add", "Draft", "--field", "id:Int@id")

	assert.Empty(t, mustRun(t, store, "model", "list"))
	assert.Contains(t, mustRun(t, store, "--key", "draft", "model", "list"), "\tDraft\t")
	_, err := os.Stat(filepath.Join(filepath.Dir(store), "schema.draft.yaml"))
	assert.NoError(t, err)
}

func TestInvalidGlobalFlags(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.yaml")
	_, _, err := runCmd(t, store, "--log-level", "loud", "model", "list")
	assert.ErrorContains(t, err, "invalid configuration")

	_, _, err = runCmd(t, filepath.Join(t.TempDir(), "schema.txt"), "model", "list")
	assert.ErrorContains(t, err, "failed to open store")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "schema.yaml")
	cfgPath := filepath.Join(dir, "prismagen.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
[store]
url = "`+filepath.ToSlash(store)+`"

[prisma]
provider = "mysql"
`), 0644))

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "generate"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), `provider = "mysql"`)
}

func TestWatchCommand(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.yaml")
	seedBlog(t, store)
	output := filepath.Join(t.TempDir(), "schema.prisma")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--store", store, "watch", "-o", output})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	readOutput := func() string {
		data, _ := os.ReadFile(output)
		return string(data)
	}
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(readOutput()), []byte("model Post {"))
	}, 5*time.Second, 20*time.Millisecond)

	mustRun(t, store, "model", "add", "Comment", "--field", "id:Int@id")
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(readOutput()), []byte("model Comment {"))
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchRequiresFileStore(t *testing.T) {
	_, _, err := runCmd(t, "bolt://"+filepath.Join(t.TempDir(), "s.db"), "watch", "-o", "out.prisma")
	assert.ErrorContains(t, err, "watch requires a file store")

	_, _, err = runCmd(t, filepath.Join(t.TempDir(), "schema.yaml"), "watch")
	assert.ErrorContains(t, err, "--output")
}

func TestEnvFile(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "schema.yaml")
	seedBlog(t, store)

	envFile := filepath.Join(dir, "prismagen.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PRISMAGEN_STORE_URL="+store+"\n"), 0644))

	var stdout bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env-file", envFile, "model", "list"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "\tPost\t")
}

func TestReloader(t *testing.T) {
	store := filepath.Join(t.TempDir(), "schema.yaml")
	seedBlog(t, store)

	cfg := config.Default()
	cfg.Store.URL = store
	a := &app{cfg: cfg, logger: slog.New(slog.DiscardHandler)}

	s, err := a.openStore(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	c := state.New(schema.Document{})
	require.NoError(t, a.reloader(s, c)(context.Background()))
	assert.Len(t, c.Snapshot().Models, 2)
	assert.Len(t, c.Snapshot().Relationships, 1)
}
