// Package pgartifactstore stores inspection artifacts in a postgres table,
// one row per (image, path).
package pgartifactstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/lib/pq"
	"github.com/weberc2/extinspect/pkg/artifact"
)

const DefaultTable = "artifacts"

type PGArtifactStore struct {
	DB *sql.DB

	// Table defaults to DefaultTable.
	Table string

	// Image scopes every row; Prepare only clears rows of this image.
	Image string
}

type Artifact struct {
	Path    string `json:"path"`
	Content []byte `json:"content"`
}

type ErrArtifactNotFound struct {
	Image string
	Path  string
}

func (err *ErrArtifactNotFound) Error() string {
	return fmt.Sprintf(
		"artifact not found (image=%s) (path=%s)",
		err.Image,
		err.Path,
	)
}

// OpenEnv connects using the `PG_*` environment variables.
func OpenEnv() (*sql.DB, error) {
	db, err := sql.Open(
		"postgres",
		fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("PG_HOST", "localhost"),
			getEnv("PG_PORT", "5432"),
			getEnv("PG_USER", "postgres"),
			getEnv("PG_PASS", ""),
			getEnv("PG_DB_NAME", "postgres"),
			getEnv("PG_SSL_MODE", "disable"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres database: %w", err)
	}

	return db, nil
}

func getEnv(env, def string) string {
	x := os.Getenv(env)
	if x == "" {
		return def
	}
	return x
}

func (store *PGArtifactStore) table() string {
	if store.Table == "" {
		return pq.QuoteIdentifier(DefaultTable)
	}
	return pq.QuoteIdentifier(store.Table)
}

func (store *PGArtifactStore) EnsureTable(ctx context.Context) error {
	if _, err := store.DB.ExecContext(
		ctx,
		"CREATE TABLE IF NOT EXISTS "+store.table()+" ("+
			"image VARCHAR(255) NOT NULL, "+
			"path VARCHAR(1024) NOT NULL, "+
			"content BYTEA NOT NULL, "+
			"PRIMARY KEY (image, path))",
	); err != nil {
		return fmt.Errorf("creating %s postgres table: %w", store.table(), err)
	}
	return nil
}

func (store *PGArtifactStore) DropTable(ctx context.Context) error {
	if _, err := store.DB.ExecContext(
		ctx,
		"DROP TABLE IF EXISTS "+store.table(),
	); err != nil {
		return fmt.Errorf("dropping table %s: %w", store.table(), err)
	}
	return nil
}

// ClearImage deletes every artifact of the store's image.
func (store *PGArtifactStore) ClearImage(ctx context.Context) error {
	if _, err := store.DB.ExecContext(
		ctx,
		"DELETE FROM "+store.table()+" WHERE image = $1",
		store.Image,
	); err != nil {
		return fmt.Errorf(
			"clearing artifacts of image `%s` from postgres: %w",
			store.Image,
			err,
		)
	}
	return nil
}

// Prepare creates the table if needed and clears the image's previous
// artifacts. Rows have no per-group structure, so `groups` is unused.
func (store *PGArtifactStore) Prepare(ctx context.Context, groups int) error {
	if err := store.EnsureTable(ctx); err != nil {
		return &artifact.ErrWrite{Path: store.Image, Err: err}
	}
	if err := store.ClearImage(ctx); err != nil {
		return &artifact.ErrWrite{Path: store.Image, Err: err}
	}
	return nil
}

func (store *PGArtifactStore) Write(ctx context.Context, path string, content []byte) error {
	if _, err := store.DB.ExecContext(
		ctx,
		"INSERT INTO "+store.table()+" (image, path, content) "+
			"VALUES($1, $2, $3) "+
			"ON CONFLICT (image, path) DO UPDATE SET content = EXCLUDED.content",
		store.Image,
		path,
		content,
	); err != nil {
		return &artifact.ErrWrite{
			Path: path,
			Err:  fmt.Errorf("inserting artifact into postgres: %w", err),
		}
	}
	return nil
}

func (store *PGArtifactStore) Get(ctx context.Context, path string) ([]byte, error) {
	var content []byte
	if err := store.DB.QueryRowContext(
		ctx,
		"SELECT content FROM "+store.table()+" WHERE image = $1 AND path = $2",
		store.Image,
		path,
	).Scan(&content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = &ErrArtifactNotFound{Image: store.Image, Path: path}
		}
		return nil, fmt.Errorf("getting artifact from postgres: %w", err)
	}
	return content, nil
}

// List returns the image's artifacts ordered by path.
func (store *PGArtifactStore) List(ctx context.Context) ([]Artifact, error) {
	// we don't want to return a `nil` slice because that gets JSON-marshaled
	// to `null` instead of `[]`.
	entries := []Artifact{}

	rows, err := store.DB.QueryContext(
		ctx,
		"SELECT path, content FROM "+store.table()+
			" WHERE image = $1 ORDER BY path",
		store.Image,
	)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts from postgres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry Artifact
		if err := rows.Scan(&entry.Path, &entry.Content); err != nil {
			return nil, fmt.Errorf("querying artifacts from postgres: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying artifacts from postgres: %w", err)
	}
	return entries, nil
}

var _ artifact.Sink = &PGArtifactStore{}
