// Package store persists experiments in a local sqlite database. Each
// experiment is serialized as a compressed biom blob plus its two metadata
// tables, so a stored experiment round-trips exactly.
package store

import (
	"bytes"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/micromics/expt"
	"github.com/micromics/expt/frame"
	"github.com/micromics/expt/internal/biom"
	"github.com/micromics/expt/internal/monitoring"
	"github.com/micromics/expt/matrix"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound reports a lookup for an experiment id the store does not hold.
var ErrNotFound = errors.New("store: experiment not found")

// Store wraps the sqlite database holding saved experiments.
type Store struct {
	*sql.DB
}

// Info summarizes one stored experiment without loading its data.
type Info struct {
	ID          string
	Description string
	Samples     int
	Features    int
	CreatedAt   time.Time
}

// Open opens (creating if needed) the experiment store at path and brings
// its schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrateUp applies all pending schema migrations from the embedded set.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// Closing m would close the underlying connection; leave it to the GC.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Put saves the experiment, overwriting any previous version with the same
// id. The id comes from the experiment's provenance; one is generated when
// absent. Returns the id under which the experiment was stored.
func (s *Store) Put(e *expt.Experiment) (string, error) {
	id, _ := e.Metadata["experiment_id"].(string)
	if id == "" {
		id = uuid.NewString()
	}

	var dataBuf, smdBuf, fmdBuf bytes.Buffer
	if err := biom.WriteBinary(storeTable(e), &dataBuf); err != nil {
		return "", fmt.Errorf("encode data: %w", err)
	}
	if err := e.SampleMetadata.WriteTo(&smdBuf); err != nil {
		return "", fmt.Errorf("encode sample metadata: %w", err)
	}
	if err := e.FeatureMetadata.WriteTo(&fmdBuf); err != nil {
		return "", fmt.Errorf("encode feature metadata: %w", err)
	}

	var normalized interface{}
	if total, ok := e.Metadata["normalized"].(float64); ok {
		normalized = total
	}
	nSamples, nFeatures := e.Shape()

	_, err := s.Exec(`
		INSERT OR REPLACE INTO experiments (
			experiment_id, description, n_samples, n_features,
			normalized, data, sample_metadata, feature_metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.Description, nSamples, nFeatures,
		normalized, dataBuf.Bytes(), smdBuf.Bytes(), fmdBuf.Bytes(),
	)
	if err != nil {
		return "", fmt.Errorf("insert experiment: %w", err)
	}
	monitoring.Debugf("stored experiment %s (%d samples, %d features)", id, nSamples, nFeatures)
	return id, nil
}

// Get loads a stored experiment by id.
func (s *Store) Get(id string) (*expt.Experiment, error) {
	row := s.QueryRow(`
		SELECT description, normalized, data, sample_metadata, feature_metadata
		FROM experiments
		WHERE experiment_id = ?`, id)

	var (
		description         string
		normalized          sql.NullFloat64
		dataB, smdB, fmdB   []byte
	)
	if err := row.Scan(&description, &normalized, &dataB, &smdB, &fmdB); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("query experiment: %w", err)
	}

	t, err := biom.ReadBinary(bytes.NewReader(dataB))
	if err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	smd, err := frame.ReadFrom(bytes.NewReader(smdB))
	if err != nil {
		return nil, fmt.Errorf("decode sample metadata: %w", err)
	}
	fmd, err := frame.ReadFrom(bytes.NewReader(fmdB))
	if err != nil {
		return nil, fmt.Errorf("decode feature metadata: %w", err)
	}

	e, err := expt.New(t.Data, smd, fmd, description)
	if err != nil {
		return nil, err
	}
	e.Metadata["experiment_id"] = id
	if normalized.Valid {
		e.Metadata["normalized"] = normalized.Float64
	}
	return e, nil
}

// List returns summaries of every stored experiment, newest first.
func (s *Store) List() ([]Info, error) {
	rows, err := s.Query(`
		SELECT experiment_id, description, n_samples, n_features, created_at
		FROM experiments
		ORDER BY created_at DESC, experiment_id`)
	if err != nil {
		return nil, fmt.Errorf("query experiments: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.ID, &info.Description, &info.Samples, &info.Features, &info.CreatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a stored experiment.
func (s *Store) Delete(id string) error {
	res, err := s.Exec(`DELETE FROM experiments WHERE experiment_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete experiment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// storeTable converts the experiment's matrix into the biom codec form.
// Feature metadata travels separately as its own table, so the biom blob
// carries only identifiers and values.
func storeTable(e *expt.Experiment) *biom.Table {
	var data *matrix.CSR
	if c, ok := e.Data.(*matrix.CSR); ok {
		data = c
	} else {
		data = matrix.NewCSRFromDense(e.Data.Dense())
	}
	return &biom.Table{
		ID:         e.Description,
		Type:       "OTU table",
		SampleIDs:  e.SampleMetadata.IDs(),
		FeatureIDs: e.FeatureMetadata.IDs(),
		Data:       data,
	}
}
