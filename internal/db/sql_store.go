package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tordrt/prismagen/internal/schema"
)

// Dialect selects the SQL flavor of a SQLStore
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

type dialectQueries struct {
	create string
	load   string
	save   string
}

var sqlQueries = map[Dialect]dialectQueries{
	DialectSQLite: {
		create: `CREATE TABLE IF NOT EXISTS schema_documents (
			"key" TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		load: `SELECT body FROM schema_documents WHERE "key" = ?`,
		save: `INSERT INTO schema_documents ("key", body, updated_at) VALUES (?, ?, ?)
			ON CONFLICT ("key") DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
	},
	DialectMySQL: {
		create: "CREATE TABLE IF NOT EXISTS schema_documents (" +
			"`key` VARCHAR(191) NOT NULL PRIMARY KEY, " +
			"body LONGTEXT NOT NULL, " +
			"updated_at DATETIME(6) NOT NULL)",
		load: "SELECT body FROM schema_documents WHERE `key` = ?",
		save: "INSERT INTO schema_documents (`key`, body, updated_at) VALUES (?, ?, ?) " +
			"ON DUPLICATE KEY UPDATE body = VALUES(body), updated_at = VALUES(updated_at)",
	},
}

// SQLStore keeps documents as JSON rows in a schema_documents table
type SQLStore struct {
	db      *sql.DB
	queries dialectQueries
	now     func() time.Time
}

// NewSQLStore takes ownership of db and creates the table if needed
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	q, ok := sqlQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported SQL dialect: %s", dialect)
	}
	if _, err := db.ExecContext(ctx, q.create); err != nil {
		return nil, fmt.Errorf("failed to create schema_documents table: %w", err)
	}
	return &SQLStore{db: db, queries: q, now: time.Now}, nil
}

// Load returns the document stored under key
func (s *SQLStore) Load(ctx context.Context, key string) (*schema.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, s.queries.load, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	return decodeJSONDocument(body)
}

// Save upserts the document under key
func (s *SQLStore) Save(ctx context.Context, key string, doc *schema.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.queries.save, key, string(body), s.now().UTC()); err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// PostgresStore keeps documents as JSONB rows in a schema_documents table
type PostgresStore struct {
	client *PostgresClient
}

// NewPostgresStore takes ownership of client and creates the table if needed
func NewPostgresStore(ctx context.Context, client *PostgresClient) (*PostgresStore, error) {
	query := `
		CREATE TABLE IF NOT EXISTS schema_documents (
			key TEXT PRIMARY KEY,
			body JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := client.GetConnection().Exec(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to create schema_documents table: %w", err)
	}
	return &PostgresStore{client: client}, nil
}

// Load returns the document stored under key
func (s *PostgresStore) Load(ctx context.Context, key string) (*schema.Document, error) {
	var body []byte
	err := s.client.GetConnection().QueryRow(ctx, `SELECT body FROM schema_documents WHERE key = $1`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	return decodeJSONDocument(body)
}

// Save upserts the document under key
func (s *PostgresStore) Save(ctx context.Context, key string, doc *schema.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	query := `
		INSERT INTO schema_documents (key, body, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`
	if _, err := s.client.GetConnection().Exec(ctx, query, key, string(body)); err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.client.Close(context.Background())
}

func decodeJSONDocument(body []byte) (*schema.Document, error) {
	var doc schema.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}
