package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/spendwise-app/spendwise-api/models"
)

// ErrNotFound is returned when a row does not exist or belongs to another
// user. Callers must not distinguish the two cases.
var ErrNotFound = errors.New("not found")

// TransactionStore is the persistence contract the pipeline needs for
// transaction records.
type TransactionStore interface {
	BulkInsert(ctx context.Context, userID string, candidates []models.TransactionCandidate, categoryMap map[string]string) (int, error)
	List(ctx context.Context, userID string, filter models.TransactionFilter) ([]models.Transaction, int, error)
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

// InsightStore persists generated insights and serves the latest one.
type InsightStore interface {
	Latest(ctx context.Context, userID string) (*models.Insight, error)
	Insert(ctx context.Context, insight *models.Insight) (*models.Insight, error)
}

// ============================================================================
// POSTGRES TRANSACTION STORE
// ============================================================================

type PostgresTransactionStore struct {
	DB *sql.DB
}

func NewPostgresTransactionStore(db *sql.DB) *PostgresTransactionStore {
	return &PostgresTransactionStore{DB: db}
}

// BulkInsert writes a parsed batch in a single transaction via COPY, so a
// mid-batch failure leaves no partial rows behind.
func (s *PostgresTransactionStore) BulkInsert(ctx context.Context, userID string, candidates []models.TransactionCandidate, categoryMap map[string]string) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"transactions", "id", "user_id", "date", "amount", "description", "category",
	))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk insert: %w", err)
	}

	for _, c := range candidates {
		category := CategoryFor(categoryMap, c.Description)
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), userID, c.Date, c.Amount, c.Description, category); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("buffer transaction row: %w", err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("flush bulk insert: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("close bulk insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk insert: %w", err)
	}

	return len(candidates), nil
}

func (s *PostgresTransactionStore) List(ctx context.Context, userID string, filter models.TransactionFilter) ([]models.Transaction, int, error) {
	where := "WHERE user_id = $1"
	args := []interface{}{userID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	var total int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT id, user_id, date, amount, description, category, created_at
		FROM transactions %s
		ORDER BY date DESC, created_at DESC
		LIMIT $%d`, where, len(args))
	args = append(args, filter.Skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// ListByUser returns every transaction for a user, most recent first.
func (s *PostgresTransactionStore) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, user_id, date, amount, description, category, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func (s *PostgresTransactionStore) Delete(ctx context.Context, userID, id string) error {
	result, err := s.DB.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Date, &t.Amount, &t.Description, &t.Category, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}

// ============================================================================
// POSTGRES INSIGHT STORE
// ============================================================================

type PostgresInsightStore struct {
	DB *sql.DB
}

func NewPostgresInsightStore(db *sql.DB) *PostgresInsightStore {
	return &PostgresInsightStore{DB: db}
}

// Latest returns the most recently created insight, or nil when the user has
// none yet.
func (s *PostgresInsightStore) Latest(ctx context.Context, userID string) (*models.Insight, error) {
	var insight models.Insight
	var summaryJSON []byte

	err := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, insight_text, summary, generated_at, created_at
		FROM insights
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, userID).
		Scan(&insight.ID, &insight.UserID, &insight.InsightText, &summaryJSON, &insight.GeneratedAt, &insight.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest insight: %w", err)
	}

	if err := json.Unmarshal(summaryJSON, &insight.Summary); err != nil {
		return nil, fmt.Errorf("decode insight summary: %w", err)
	}
	return &insight, nil
}

// Insert appends a new insight record; history is never updated in place.
func (s *PostgresInsightStore) Insert(ctx context.Context, insight *models.Insight) (*models.Insight, error) {
	summaryJSON, err := json.Marshal(insight.Summary)
	if err != nil {
		return nil, fmt.Errorf("encode insight summary: %w", err)
	}

	insight.ID = uuid.NewString()
	err = s.DB.QueryRowContext(ctx, `
		INSERT INTO insights (id, user_id, insight_text, summary, generated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		insight.ID, insight.UserID, insight.InsightText, summaryJSON, insight.GeneratedAt).
		Scan(&insight.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert insight: %w", err)
	}

	return insight, nil
}
