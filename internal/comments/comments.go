// Package comments stores the discussion under a workout. Comments are append only.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/wodlog/internal/db"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/pkg"
)

const MaxLength = 1000

var (
	ErrEmpty           = errors.New("comment cannot be empty")
	ErrTooLong         = fmt.Errorf("comment must be at most %d characters", MaxLength)
	ErrInvalidText     = errors.New("comment contains invalid characters")
	ErrWorkoutNotFound = errors.New("workout not found")
)

type Comment struct {
	ID        int
	WorkoutID int
	UserID    int
	Username  string
	Text      string
	CreatedAt time.Time
}

// Validate trims the comment text and checks its length.
func Validate(text string) (string, error) {
	if !pkg.StorableText(text) {
		return "", ErrInvalidText
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmpty
	}
	if utf8.RuneCountInString(text) > MaxLength {
		return "", ErrTooLong
	}
	return text, nil
}

type Repo struct {
	db db.Querier
}

func NewRepo(db db.Querier) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, comment Comment) (_ *Comment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.comments.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", comment.WorkoutID))

	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO comments (workout_id, user_id, comment_text)
			VALUES ($1, $2, $3)
		RETURNING id, created_at;`,
		comment.WorkoutID, comment.UserID, comment.Text,
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &comment, nil
}

// ListForWorkout returns the workout comments, oldest first.
func (r *Repo) ListForWorkout(ctx context.Context, workoutID int) (_ []Comment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.comments.listForWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workoutID))

	rows, err := r.db.Query(
		ctx,
		`SELECT c.id, c.workout_id, c.user_id, u.username, c.comment_text, c.created_at
		FROM comments c
			JOIN users u ON u.id = c.user_id
		WHERE c.workout_id = $1
		ORDER BY c.created_at, c.id`,
		workoutID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.WorkoutID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
