// Package storage provides the keyed document stores backing the reference
// pipeline: a Postgres implementation for deployments and an in-memory one
// for tests and DSN-less runs. Both treat per-item expiry as their own
// responsibility: expired documents are invisible to every read path.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/domain"
	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
)

// Schema is the DDL the Postgres store expects. Applied by the operator, not
// at runtime.
const Schema = `
CREATE TABLE IF NOT EXISTS reference_docs (
    id         TEXT PRIMARY KEY,
    doc        JSONB NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS patient_insights (
    id         BIGSERIAL PRIMARY KEY,
    doc        JSONB NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStore keeps reference documents as JSONB rows keyed by reference id.
type PostgresStore struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var (
	_ ports.ReferenceStore = (*PostgresStore)(nil)
	_ ports.InsightStore   = (*PostgresStore)(nil)
)

// NewPostgresStore wires a sql.DB connection.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now: time.Now,
	}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// ExistingIDs returns the set of unexpired reference ids.
func (s *PostgresStore) ExistingIDs(ctx context.Context) (map[string]bool, error) {
	query, args, err := s.sb.
		Select("id").
		From("reference_docs").
		Where(sq.Gt{"expires_at": s.now()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build existing ids query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing ids: %w", err)
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ids, nil
}

// ScanAll returns every unexpired reference document, ordered by id so scans
// are reproducible.
func (s *PostgresStore) ScanAll(ctx context.Context) ([]domain.Reference, error) {
	query, args, err := s.sb.
		Select("doc").
		From("reference_docs").
		Where(sq.Gt{"expires_at": s.now()}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build scan query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var refs []domain.Reference
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var ref domain.Reference
		if err := json.Unmarshal(raw, &ref); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return refs, nil
}

// Put upserts one reference document keyed by its id.
func (s *PostgresStore) Put(ctx context.Context, ref domain.Reference) error {
	doc, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encode reference %s: %w", ref.ID, err)
	}

	query, args, err := s.sb.
		Insert("reference_docs").
		Columns("id", "doc", "expires_at").
		Values(ref.ID, doc, time.Unix(ref.ExpiresAt, 0)).
		Suffix("ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, expires_at = EXCLUDED.expires_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert reference %s: %w", ref.ID, err)
	}
	return nil
}

// UpdateKeywords rewrites the keywords field of one document in place.
func (s *PostgresStore) UpdateKeywords(ctx context.Context, id, canonical string) error {
	query, args, err := s.sb.
		Update("reference_docs").
		Set("doc", sq.Expr("jsonb_set(doc, '{keywords}', to_jsonb(?::text))", canonical)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build keywords update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update keywords for %s: %w", id, err)
	}
	return nil
}

// Delete removes one reference document.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	query, args, err := s.sb.
		Delete("reference_docs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete reference %s: %w", id, err)
	}
	return nil
}

// AppendInsight writes one patient insight record.
func (s *PostgresStore) AppendInsight(ctx context.Context, rec domain.PatientInsightRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode insight: %w", err)
	}

	query, args, err := s.sb.
		Insert("patient_insights").
		Columns("doc", "expires_at").
		Values(doc, time.Unix(rec.ExpiresAt, 0)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insight insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert insight: %w", err)
	}
	return nil
}
