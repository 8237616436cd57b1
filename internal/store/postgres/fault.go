package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/replayd/internal/domain"
)

type FaultRepo struct {
	pool *pgxpool.Pool
}

func NewFaultRepo(pool *pgxpool.Pool) *FaultRepo {
	return &FaultRepo{pool: pool}
}

func (r *FaultRepo) ListCrashes(ctx context.Context, sessionID string) ([]*domain.Crash, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, timestamp, exception_name, reason, stack_trace, status
		 FROM crashes WHERE session_id = $1 ORDER BY timestamp`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("faultRepo.ListCrashes: %w", err)
	}
	defer rows.Close()

	crashes := []*domain.Crash{}
	for rows.Next() {
		var c domain.Crash
		var reason, stack *string

		err = rows.Scan(&c.ID, &c.SessionID, &c.Timestamp, &c.ExceptionName, &reason, &stack, &c.Status)
		if err != nil {
			return nil, fmt.Errorf("faultRepo.ListCrashes: scan: %w", err)
		}
		c.Reason = derefStr(reason)
		c.StackTrace = derefStr(stack)
		crashes = append(crashes, &c)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("faultRepo.ListCrashes: rows: %w", err)
	}

	return crashes, nil
}

func (r *FaultRepo) ListANRs(ctx context.Context, sessionID string) ([]*domain.ANR, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, timestamp, duration_ms, thread_state, stack_trace, status
		 FROM anrs WHERE session_id = $1 ORDER BY timestamp`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("faultRepo.ListANRs: %w", err)
	}
	defer rows.Close()

	anrs := []*domain.ANR{}
	for rows.Next() {
		var a domain.ANR
		var state, stack *string

		err = rows.Scan(&a.ID, &a.SessionID, &a.Timestamp, &a.DurationMs, &state, &stack, &a.Status)
		if err != nil {
			return nil, fmt.Errorf("faultRepo.ListANRs: scan: %w", err)
		}
		a.ThreadState = derefStr(state)
		a.StackTrace = derefStr(stack)
		anrs = append(anrs, &a)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("faultRepo.ListANRs: rows: %w", err)
	}

	return anrs, nil
}

func (r *FaultRepo) ListErrors(ctx context.Context, sessionID string) ([]*domain.AppError, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, timestamp, error_type, error_name, message, stack_trace, screen_name
		 FROM app_errors WHERE session_id = $1 ORDER BY timestamp`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("faultRepo.ListErrors: %w", err)
	}
	defer rows.Close()

	errs := []*domain.AppError{}
	for rows.Next() {
		var e domain.AppError
		var errType, msg, stack, screen *string

		err = rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &errType, &e.ErrorName, &msg, &stack, &screen)
		if err != nil {
			return nil, fmt.Errorf("faultRepo.ListErrors: scan: %w", err)
		}
		e.ErrorType = derefStr(errType)
		e.Message = derefStr(msg)
		e.StackTrace = derefStr(stack)
		e.ScreenName = derefStr(screen)
		errs = append(errs, &e)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("faultRepo.ListErrors: rows: %w", err)
	}

	return errs, nil
}
