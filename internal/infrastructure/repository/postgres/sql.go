package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	// Class 08 covers connection exceptions.
	classConnectionException = "08"

	defaultWriteRetries  = 3
	retryInitialInterval = 25 * time.Millisecond
	retryMaxInterval     = 400 * time.Millisecond
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isUniqueViolation matches a 23505 error, optionally only for the named constraint or index.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != codeUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// isRetryable reports whether replaying the whole transaction may succeed.
func isRetryable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	code := pqCode(err)
	return code == codeSerializationFailure ||
		code == codeDeadlockDetected ||
		strings.HasPrefix(code, classConnectionException)
}

// txRunner executes write transactions, replaying them on serialization failures,
// deadlocks and dropped connections.
type txRunner struct {
	db         *sqlx.DB
	maxRetries uint
}

func newTxRunner(db *sqlx.DB, maxRetries int) txRunner {
	if maxRetries < 0 {
		maxRetries = defaultWriteRetries
	}
	return txRunner{db: db, maxRetries: uint(maxRetries)}
}

func (r txRunner) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxInterval = retryMaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := r.runOnce(ctx, op, fn)
		switch {
		case err == nil:
			return struct{}{}, nil
		case isRetryable(err):
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(r.maxRetries+1))
	return err
}

func (r txRunner) runOnce(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx %s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s tx: %w", op, err)
	}
	return nil
}

func execAffected(ctx context.Context, ext sqlx.ExtContext, op, query string, args ...any) (int64, error) {
	result, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected %s: %w", op, err)
	}
	return affected, nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nullTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}
