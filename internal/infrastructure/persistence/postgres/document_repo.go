package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// documentRowID is the only row of course_store.
const documentRowID = 1

// DocumentRepository stores the course document in the course_store table.
// It implements coursestore.Backend.
type DocumentRepository struct {
	conn *Connection
}

// NewDocumentRepository creates a repository over conn. The schema must have
// been migrated.
func NewDocumentRepository(conn *Connection) *DocumentRepository {
	return &DocumentRepository{conn: conn}
}

// Name identifies the backend in logs.
func (r *DocumentRepository) Name() string {
	return "postgres"
}

// Load returns the stored document, found=false if the row does not exist.
func (r *DocumentRepository) Load(ctx context.Context) ([]byte, bool, error) {
	q, err := r.conn.querier()
	if err != nil {
		return nil, false, err
	}

	var document string
	err = q.QueryRow(ctx, `SELECT document FROM course_store WHERE id = $1`, documentRowID).Scan(&document)
	if IsNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres: load course document: %w", err)
	}
	return []byte(document), true, nil
}

// Save upserts the document row in a transaction.
func (r *DocumentRepository) Save(ctx context.Context, data []byte) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO course_store (id, document, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (id) DO UPDATE
			SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
		`, documentRowID, string(data))
		if err != nil {
			return fmt.Errorf("postgres: save course document: %w", err)
		}
		return nil
	})
}
