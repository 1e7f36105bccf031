package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"splitit/pkg/database"
	"splitit/pkg/telemetry"
)

// PostgresRunRepository PostgreSQL реализация RunRepository
type PostgresRunRepository struct {
	db database.DB
}

// NewPostgresRunRepository создаёт репозиторий
func NewPostgresRunRepository(db database.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

// Save сохраняет расчёт и его переводы одной транзакцией
func (r *PostgresRunRepository) Save(ctx context.Context, run *Run) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Save")
	defer span.End()

	payments, err := json.Marshal(run.Payments)
	if err != nil {
		return fmt.Errorf("failed to encode payments: %w", err)
	}

	err = database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO settlement_runs (
				id, payments_hash, participants, total_paid, fair_share,
				max_flow, iterations, cache_hit, duration_ms, payments
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at
		`
		if err := tx.QueryRow(ctx, query,
			run.ID,
			run.PaymentsHash,
			run.Participants,
			run.TotalPaid,
			run.FairShare,
			run.MaxFlow,
			run.Iterations,
			run.CacheHit,
			run.DurationMs,
			payments,
		).Scan(&run.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for i, t := range run.Transfers {
			if _, err := tx.Exec(ctx, `
				INSERT INTO settlement_transfers (run_id, position, from_name, to_name, amount)
				VALUES ($1, $2, $3, $4, $5)
			`, run.ID, i, t.From, t.To, t.Amount); err != nil {
				return fmt.Errorf("failed to insert transfer %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		return fmt.Errorf("failed to save settlement run: %w", err)
	}

	return nil
}

// Get возвращает расчёт с переводами
func (r *PostgresRunRepository) Get(ctx context.Context, id string) (*Run, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Get")
	defer span.End()

	query := `
		SELECT
			id, payments_hash, participants, total_paid, fair_share,
			max_flow, iterations, cache_hit, duration_ms, payments, created_at
		FROM settlement_runs
		WHERE id = $1
	`

	run := &Run{}
	var payments []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.PaymentsHash,
		&run.Participants,
		&run.TotalPaid,
		&run.FairShare,
		&run.MaxFlow,
		&run.Iterations,
		&run.CacheHit,
		&run.DurationMs,
		&payments,
		&run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get settlement run: %w", err)
	}

	if err := json.Unmarshal(payments, &run.Payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT from_name, to_name, amount
		FROM settlement_transfers
		WHERE run_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t Transfer
		if err := rows.Scan(&t.From, &t.To, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		run.Transfers = append(run.Transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return run, nil
}

// List возвращает страницу расчётов и их общее количество
func (r *PostgresRunRepository) List(ctx context.Context, opts *ListOptions) ([]*RunSummary, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.List")
	defer span.End()

	opts = opts.Normalize()

	where := "TRUE"
	var args []any
	if opts.PaymentsHash != "" {
		where = "payments_hash = $1"
		args = append(args, opts.PaymentsHash)
	}

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM settlement_runs WHERE %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlement runs: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT
			r.id, r.participants, r.total_paid, r.max_flow, r.cache_hit, r.created_at,
			(SELECT COUNT(*) FROM settlement_transfers t WHERE t.run_id = r.id) AS transfers
		FROM settlement_runs r
		WHERE %s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlement runs: %w", err)
	}
	defer rows.Close()

	var results []*RunSummary
	for rows.Next() {
		s := &RunSummary{}
		if err := rows.Scan(
			&s.ID,
			&s.Participants,
			&s.TotalPaid,
			&s.MaxFlow,
			&s.CacheHit,
			&s.CreatedAt,
			&s.Transfers,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement run: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return results, total, nil
}

// Delete удаляет расчёт, переводы удаляются каскадом
func (r *PostgresRunRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Delete")
	defer span.End()

	result, err := r.db.Exec(ctx, `DELETE FROM settlement_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete settlement run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}
