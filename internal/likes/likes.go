package likes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/wodlog/internal/db"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/pkg"
)

var ErrLogNotFound = errors.New("log not found")

type Like struct {
	LogID     int
	UserID    int
	CreatedAt time.Time
}

type Repo struct {
	db db.Querier
}

func NewRepo(db db.Querier) *Repo {
	return &Repo{
		db: db,
	}
}

// Toggle removes the user's like of the log if present, adds it otherwise.
// It reports whether the log is liked afterwards.
func (r *Repo) Toggle(ctx context.Context, logID, userID int) (liked bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.likes.toggle")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("log.id", logID), attribute.Int("user.id", userID))

	tag, err := r.db.Exec(ctx, `DELETE FROM likes WHERE log_id = $1 AND user_id = $2`, logID, userID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	if _, err := r.db.Exec(
		ctx,
		`INSERT INTO likes (log_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		logID, userID,
	); err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return false, ErrLogNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}
	return true, nil
}

func (r *Repo) Check(ctx context.Context, logID, userID int) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.likes.check")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var liked bool
	if err := r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE log_id = $1 AND user_id = $2)`,
		logID, userID,
	).Scan(&liked); err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}

func (r *Repo) Count(ctx context.Context, logID int) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.likes.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE log_id = $1`, logID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}
