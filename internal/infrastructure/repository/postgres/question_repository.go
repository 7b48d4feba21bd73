package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lbarbosa/questora/internal/core/domain"
)

const pgUniqueViolation = "23505"

// QuestionRepository is the append-only store for accepted questions.
// Rows are never updated or deleted. A unique index on the normalized stem
// per topic backstops the deduplicator under concurrent generation.
type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082702)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS questions (
	id TEXT PRIMARY KEY,
	topic TEXT NOT NULL,
	stem TEXT NOT NULL,
	options JSONB NOT NULL,
	explanation TEXT NOT NULL,
	legal_basis TEXT,
	difficulty TEXT NOT NULL,
	source_passage_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
	model_name TEXT NOT NULL,
	model_version TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_topic_created_at ON questions(topic, created_at DESC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_questions_topic_stem ON questions(topic, md5(lower(stem)));
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *QuestionRepository) Save(ctx context.Context, record *domain.QuestionRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	optionsJSON, err := json.Marshal(record.Options)
	if err != nil {
		return "", domain.WrapError(domain.ErrPersistence, "marshal options", err)
	}
	sourcesJSON, err := json.Marshal(record.SourcePassageIDs)
	if err != nil {
		return "", domain.WrapError(domain.ErrPersistence, "marshal sources", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO questions (
	id, topic, stem, options, explanation, legal_basis, difficulty, source_passage_ids, model_name, model_version, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		record.ID, record.Topic, record.Stem, optionsJSON, record.Explanation, record.LegalBasis,
		string(record.Difficulty), sourcesJSON, record.ModelName, record.ModelVersion, record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return "", domain.WrapError(domain.ErrDuplicateQuestion, "insert question", err)
		}
		return "", domain.WrapError(domain.ErrPersistence, "insert question", err)
	}
	return record.ID, nil
}

func (r *QuestionRepository) ListRecentStems(ctx context.Context, topic string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT stem
FROM questions
WHERE topic = $1
ORDER BY created_at DESC
LIMIT $2
`, topic, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list recent stems", err)
	}
	defer rows.Close()

	var stems []string
	for rows.Next() {
		var stem string
		if err := rows.Scan(&stem); err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan stem", err)
		}
		stems = append(stems, stem)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate stems", err)
	}
	return stems, nil
}
