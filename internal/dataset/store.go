// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/credverify/pkg/types"
)

// Store manages the reference dataset SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens an existing database at path. Unlike NewStore it never
// creates one, so a mistyped path is reported instead of reading as an
// empty dataset.
func OpenStore(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening dataset database: %w", err)
	}
	return NewStore(path)
}

// NewStore opens or creates the database at path and ensures the schema.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			certificate_no TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			institution TEXT NOT NULL,
			course TEXT,
			year INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_institution ON records(institution)`,
		`CREATE TABLE IF NOT EXISTS institutions (
			code TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			seal_image_path TEXT,
			signature_image_path TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ImportSummary holds counts from one import run.
type ImportSummary struct {
	Inserted int
	Updated  int
}

// Import upserts records keyed by certificate number in one transaction.
// Updated rows keep their original position. One status line per record is
// written to w.
func (s *Store) Import(ctx context.Context, recs []types.ReferenceRecord, w io.Writer) (ImportSummary, error) {
	var summary ImportSummary
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (certificate_no, name, institution, course, year)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(certificate_no) DO UPDATE SET
			name=excluded.name, institution=excluded.institution,
			course=excluded.course, year=excluded.year`)
	if err != nil {
		return summary, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if r.CertificateNo == "" {
			return summary, fmt.Errorf("record for %q has no certificate number", r.Name)
		}
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM records WHERE certificate_no = ?`, r.CertificateNo,
		).Scan(&exists); err != nil {
			return summary, fmt.Errorf("checking %s: %w", r.CertificateNo, err)
		}
		if _, err := stmt.ExecContext(ctx, r.CertificateNo, r.Name, r.Institution, r.Course, r.Year); err != nil {
			return summary, fmt.Errorf("upserting %s: %w", r.CertificateNo, err)
		}
		if exists > 0 {
			fmt.Fprintf(w, "updated  %s\n", r.CertificateNo)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "imported %s\n", r.CertificateNo)
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing import: %w", err)
	}
	fmt.Fprintf(w, "\nimported: %d, updated: %d\n", summary.Inserted, summary.Updated)
	return summary, nil
}

// Records returns every reference record in insertion order.
func (s *Store) Records(ctx context.Context) ([]types.ReferenceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT certificate_no, name, institution, COALESCE(course, ''), year FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var recs []types.ReferenceRecord
	for rows.Next() {
		var r types.ReferenceRecord
		if err := rows.Scan(&r.CertificateNo, &r.Name, &r.Institution, &r.Course, &r.Year); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// UpsertAssets stores reference image locations per institution.
func (s *Store) UpsertAssets(ctx context.Context, assets []types.InstitutionAssets) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assets {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO institutions (code, name, seal_image_path, signature_image_path)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(code) DO UPDATE SET
				name=excluded.name, seal_image_path=excluded.seal_image_path,
				signature_image_path=excluded.signature_image_path`,
			a.Code, a.Name, a.SealPath, a.SignaturePath,
		)
		if err != nil {
			return fmt.Errorf("upserting institution %s: %w", a.Code, err)
		}
	}
	return tx.Commit()
}

// Assets returns stored institution asset locations ordered by code.
func (s *Store) Assets(ctx context.Context) ([]types.InstitutionAssets, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, COALESCE(seal_image_path, ''), COALESCE(signature_image_path, '')
		 FROM institutions ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying institutions: %w", err)
	}
	defer rows.Close()

	var out []types.InstitutionAssets
	for rows.Next() {
		var a types.InstitutionAssets
		if err := rows.Scan(&a.Code, &a.Name, &a.SealPath, &a.SignaturePath); err != nil {
			return nil, fmt.Errorf("scanning institution: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ExportYAML writes all records to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	recs, err := s.Records(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// Load returns reference records from the database when cfg.DBPath is set
// and from cfg.CSVPath otherwise.
func Load(ctx context.Context, cfg types.DatasetConfig) ([]types.ReferenceRecord, error) {
	if cfg.DBPath != "" {
		s, err := OpenStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.Records(ctx)
	}
	if cfg.CSVPath == "" {
		return nil, fmt.Errorf("no dataset configured: set dataset.csv_path or dataset.db_path")
	}
	return LoadCSV(cfg.CSVPath)
}
