package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/usermgr/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/usermgr/internal/core/domain"
	"github.com/custodia-labs/usermgr/internal/core/ports/driven"
)

// DatabaseFile is the name of the database in the data directory.
const DatabaseFile = "usermgr.db"

// Store is a SQLite-based storage for staged places.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// PlaceStore returns a PlaceStore interface backed by this store.
func (s *Store) PlaceStore() driven.PlaceStore {
	return &placeStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_places.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// schemaVersion returns the highest applied migration.
func (s *Store) schemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// ==================== Place Store ====================

// placeStore implements driven.PlaceStore.
type placeStore struct {
	store *Store
}

var _ driven.PlaceStore = (*placeStore)(nil)

// Save stores or updates a place. A new place is appended after every
// place already stored; an update keeps its position.
func (s *placeStore) Save(ctx context.Context, domainName string, place *domain.Place) error {
	snapshot := place.Snapshot()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshalling place: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO places (id, seq, domain, type, state, snapshot)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM places), ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			domain = excluded.domain,
			type = excluded.type,
			state = excluded.state,
			snapshot = excluded.snapshot,
			updated_at = CURRENT_TIMESTAMP
	`, snapshot.ID, domainName, snapshot.Type, string(snapshot.State), string(data))
	if err != nil {
		return fmt.Errorf("saving place: %w", err)
	}
	return nil
}

// Get retrieves a place by ID.
func (s *placeStore) Get(ctx context.Context, id string, cfg *domain.AppConfig) (*domain.Place, error) {
	var data string
	err := s.store.db.QueryRowContext(ctx, "SELECT snapshot FROM places WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying place: %w", err)
	}
	return decodePlace(data, cfg)
}

// Delete removes a place.
func (s *placeStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM places WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting place: %w", err)
	}
	return nil
}

// List returns the places of a domain in the order they were first saved.
func (s *placeStore) List(ctx context.Context, domainName string, cfg *domain.AppConfig) ([]*domain.Place, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT snapshot FROM places WHERE domain = ? ORDER BY seq", domainName)
	if err != nil {
		return nil, fmt.Errorf("querying places: %w", err)
	}
	defer rows.Close()

	var places []*domain.Place
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning place: %w", err)
		}
		place, err := decodePlace(data, cfg)
		if err != nil {
			return nil, err
		}
		places = append(places, place)
	}
	return places, rows.Err()
}

func decodePlace(data string, cfg *domain.AppConfig) (*domain.Place, error) {
	var snapshot domain.PlaceSnapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshalling place: %w", err)
	}
	contactType, err := cfg.ContactType(snapshot.Type)
	if err != nil {
		return nil, fmt.Errorf("load place %s: %w", snapshot.ID, err)
	}
	return domain.PlaceFromSnapshot(snapshot, contactType), nil
}
