package repository

import (
	"context"
	"database/sql"
	"fmt"

	"reload-gateway/internal/core/domain/entity"
)

type PostgresAttemptRepository struct {
	db *sql.DB
}

func NewAttemptRepository(db *sql.DB) *PostgresAttemptRepository {
	return &PostgresAttemptRepository{db: db}
}

const attemptColumns = `
	id, reference, attempt_number, channel, outcome, error,
	msisdn, promo_code, amount, network, origin_sender,
	tx_status, retry_count, last_error, tx_created_at,
	started_at, finished_at`

func (r *PostgresAttemptRepository) Begin(ctx context.Context, a *entity.Attempt) error {
	tx := a.Transaction
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reload_attempts (`+attemptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NULL)
	`,
		a.ID, a.Reference, a.Number, a.Channel, string(a.Outcome), a.Error,
		tx.SubscriberNumber, tx.PromoCode, tx.Amount, string(tx.Network), tx.OriginSender,
		string(tx.Status), tx.RetryCount, tx.LastError, tx.CreatedAt,
		a.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt %s: %w", a.ID, err)
	}
	return nil
}

func (r *PostgresAttemptRepository) Finish(ctx context.Context, a *entity.Attempt) error {
	tx := a.Transaction
	res, err := r.db.ExecContext(ctx, `
		UPDATE reload_attempts
		SET channel = $1, outcome = $2, error = $3,
		    tx_status = $4, retry_count = $5, last_error = $6,
		    finished_at = $7
		WHERE id = $8
	`,
		a.Channel, string(a.Outcome), a.Error,
		string(tx.Status), tx.RetryCount, tx.LastError,
		a.FinishedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update attempt %s: %w", a.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update attempt %s: %w", a.ID, sql.ErrNoRows)
	}
	return nil
}

// FindUnfinished returns attempts that began but never recorded an outcome,
// oldest first.
func (r *PostgresAttemptRepository) FindUnfinished(ctx context.Context) ([]*entity.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+attemptColumns+`
		FROM reload_attempts
		WHERE finished_at IS NULL
		ORDER BY started_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query unfinished attempts: %w", err)
	}
	return scanAttempts(rows)
}

func (r *PostgresAttemptRepository) FindByReference(ctx context.Context, reference string) ([]*entity.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+attemptColumns+`
		FROM reload_attempts
		WHERE reference = $1
		ORDER BY attempt_number, started_at
	`, reference)
	if err != nil {
		return nil, fmt.Errorf("query attempts for %s: %w", reference, err)
	}
	return scanAttempts(rows)
}

func scanAttempts(rows *sql.Rows) ([]*entity.Attempt, error) {
	defer rows.Close()

	var out []*entity.Attempt
	for rows.Next() {
		var (
			a        entity.Attempt
			outcome  string
			network  string
			status   string
			finished sql.NullTime
		)
		err := rows.Scan(
			&a.ID, &a.Reference, &a.Number, &a.Channel, &outcome, &a.Error,
			&a.Transaction.SubscriberNumber, &a.Transaction.PromoCode, &a.Transaction.Amount,
			&network, &a.Transaction.OriginSender,
			&status, &a.Transaction.RetryCount, &a.Transaction.LastError, &a.Transaction.CreatedAt,
			&a.StartedAt, &finished,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}

		a.Outcome = entity.AttemptOutcome(outcome)
		a.Transaction.Reference = a.Reference
		a.Transaction.Network = entity.NetworkID(network)
		a.Transaction.Status = entity.TransactionStatus(status)
		a.Transaction.UpdatedAt = a.StartedAt
		if finished.Valid {
			t := finished.Time.UTC()
			a.FinishedAt = &t
			a.Transaction.UpdatedAt = t
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}
