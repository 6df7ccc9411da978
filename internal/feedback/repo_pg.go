package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts one record in its own statement.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO resume_feedback (id, owner_id, document_name, document_key, feedback, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	payload, err := marshalJSONB(rec.Feedback)
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}
	var documentKey any
	if rec.DocumentKey != "" {
		documentKey = rec.DocumentKey
	}
	if _, err := r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.DocumentName,
		documentKey,
		payload,
		rec.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert resume_feedback: %w", err)
	}
	return nil
}

func marshalJSONB(value map[string]any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}

var _ Repo = (*PGRepo)(nil)
