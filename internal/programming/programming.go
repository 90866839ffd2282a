// Package programming tags workouts with the week of the training cycle they belong to.
package programming

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/wodlog/internal/db"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
)

const Deload = "deload"

// Weeks are the known programming week labels, in cycle order.
var Weeks = []string{"1", "2", "3", Deload}

var ErrInvalidWeek = errors.New("invalid programming week")

func IsValidWeek(week string) bool {
	return slices.Contains(Weeks, week)
}

type Repo struct {
	db db.Querier
}

// NewRepo accepts a pool or a transaction.
func NewRepo(db db.Querier) *Repo {
	return &Repo{
		db: db,
	}
}

// Set tags the workout with the week, replacing any previous tag.
func (r *Repo) Set(ctx context.Context, workoutID int, week string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.programming.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workoutID), attribute.String("week", week))

	if !IsValidWeek(week) {
		return fmt.Errorf("%w: %q", ErrInvalidWeek, week)
	}

	if _, err := r.db.Exec(
		ctx,
		`INSERT INTO programming (workout_id, programming_week)
			VALUES ($1, $2)
		ON CONFLICT (workout_id) DO UPDATE SET programming_week = EXCLUDED.programming_week;`,
		workoutID, week,
	); err != nil {
		return fmt.Errorf("upsert programming: %w", err)
	}
	return nil
}
