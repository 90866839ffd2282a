package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/wodlog/internal/db"
	"github.com/2beens/wodlog/internal/pagination"
	"github.com/2beens/wodlog/internal/programming"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
)

const selectWorkouts = `
	SELECT w.id, w.workout_date, w.warmup_description, w.wod_description, w.extras_description,
		w.user_id, u.username, COALESCE(p.programming_week, ''), COALESCE(w.image_filename, ''), w.created_at
	FROM workouts w
		JOIN users u ON u.id = w.user_id
		LEFT JOIN programming p ON p.workout_id = w.id`

const orderNewestFirst = ` ORDER BY w.workout_date DESC, w.id DESC`

type Repo struct {
	db db.Pool
}

func NewRepo(db db.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add stores the workout and its programming week in one transaction.
func (r *Repo) Add(ctx context.Context, workout Workout) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := tx.QueryRow(
			ctx,
			`INSERT INTO workouts
				(workout_date, warmup_description, wod_description, extras_description, user_id, image_filename)
				VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
			RETURNING id, created_at;`,
			workout.Date, workout.Warmup, workout.WOD, workout.Extras, workout.UserID, workout.ImageFilename,
		).Scan(&workout.ID, &workout.CreatedAt); err != nil {
			return fmt.Errorf("insert workout: %w", err)
		}
		return programming.NewRepo(tx).Set(ctx, workout.ID, workout.ProgrammingWeek)
	}); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("workout.id", workout.ID))
	return &workout, nil
}

// Update changes the core fields and programming week of a workout in one transaction.
// A non-empty ImageFilename replaces the image; the previous filename is returned.
func (r *Repo) Update(ctx context.Context, workout Workout) (previousImage string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workout.ID))

	err = db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(
			ctx,
			`SELECT COALESCE(image_filename, '') FROM workouts WHERE id = $1 FOR UPDATE`,
			workout.ID,
		).Scan(&previousImage)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWorkoutNotFound
		}
		if err != nil {
			return fmt.Errorf("lock workout: %w", err)
		}

		if _, err := tx.Exec(
			ctx,
			`UPDATE workouts SET
				workout_date = $1, warmup_description = $2, wod_description = $3, extras_description = $4,
				image_filename = COALESCE(NULLIF($5, ''), image_filename)
			WHERE id = $6`,
			workout.Date, workout.Warmup, workout.WOD, workout.Extras, workout.ImageFilename, workout.ID,
		); err != nil {
			return fmt.Errorf("update workout: %w", err)
		}
		return programming.NewRepo(tx).Set(ctx, workout.ID, workout.ProgrammingWeek)
	})
	if err != nil {
		return "", err
	}
	if workout.ImageFilename == "" {
		return "", nil
	}
	return previousImage, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", id))

	rows, err := r.db.Query(ctx, selectWorkouts+` WHERE w.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("select workout: %w", err)
	}
	workouts, err := scanWorkouts(rows)
	if err != nil {
		return nil, err
	}
	if len(workouts) == 0 {
		return nil, ErrWorkoutNotFound
	}
	return &workouts[0], nil
}

// List returns a page of all workouts, newest first.
func (r *Repo) List(ctx context.Context, page pagination.Page) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", page.Number))

	rows, err := r.db.Query(
		ctx,
		selectWorkouts+orderNewestFirst+` LIMIT $1 OFFSET $2`,
		page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return scanWorkouts(rows)
}

func (r *Repo) Count(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM workouts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count workouts: %w", err)
	}
	return count, nil
}

// ListByUser returns the latest workouts created by the user.
func (r *Repo) ListByUser(ctx context.Context, userID, limit int) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listByUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		selectWorkouts+` WHERE w.user_id = $1`+orderNewestFirst+` LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list user workouts: %w", err)
	}
	return scanWorkouts(rows)
}

// Search returns a page of workouts whose WOD description contains the query, ignoring case.
func (r *Repo) Search(ctx context.Context, query string, page pagination.Page) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.search")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("query", query), attribute.Int("page", page.Number))

	rows, err := r.db.Query(
		ctx,
		selectWorkouts+` WHERE w.wod_description ILIKE '%' || $1 || '%'`+orderNewestFirst+` LIMIT $2 OFFSET $3`,
		escapeLike(query), page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("search workouts: %w", err)
	}
	return scanWorkouts(rows)
}

func (r *Repo) SearchCount(ctx context.Context, query string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.searchCount")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM workouts WHERE wod_description ILIKE '%' || $1 || '%'`,
		escapeLike(query),
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count search results: %w", err)
	}
	return count, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanWorkouts(rows pgx.Rows) ([]Workout, error) {
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		var w Workout
		if err := rows.Scan(
			&w.ID, &w.Date, &w.Warmup, &w.WOD, &w.Extras,
			&w.UserID, &w.Username, &w.ProgrammingWeek, &w.ImageFilename, &w.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}
