package logs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/wodlog/internal/db"
	"github.com/2beens/wodlog/internal/pagination"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/pkg"
)

const selectLogs = `
	SELECT l.id, l.log_date, l.log_text, l.user_id, u.username,
		l.workout_id, w.workout_date, w.wod_description,
		(SELECT COUNT(*) FROM likes k WHERE k.log_id = l.id), l.created_at
	FROM logs l
		JOIN users u ON u.id = l.user_id
		JOIN workouts w ON w.id = l.workout_id`

const orderNewestFirst = ` ORDER BY l.log_date DESC, l.id DESC`

type Repo struct {
	db db.Querier
}

func NewRepo(db db.Querier) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, l Log) (_ *Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO logs (log_date, log_text, user_id, workout_id)
			VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;`,
		l.Date, l.Text, l.UserID, l.WorkoutID,
	).Scan(&l.ID, &l.CreatedAt); err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("insert log: %w", err)
	}

	span.SetAttributes(attribute.Int("log.id", l.ID))
	return &l, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("log.id", id))

	rows, err := r.db.Query(ctx, selectLogs+` WHERE l.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("select log: %w", err)
	}
	logs, err := scanLogs(rows)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, ErrLogNotFound
	}
	return &logs[0], nil
}

// Update changes date and text of the log, if it belongs to l.UserID.
func (r *Repo) Update(ctx context.Context, l Log) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("log.id", l.ID), attribute.Int("user.id", l.UserID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE logs SET log_date = $1, log_text = $2 WHERE id = $3 AND user_id = $4`,
		l.Date, l.Text, l.ID, l.UserID,
	)
	if err != nil {
		return fmt.Errorf("update log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrForeign(ctx, l.ID)
	}
	return nil
}

// Remove deletes the log, if it belongs to userID.
func (r *Repo) Remove(ctx context.Context, id, userID int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.remove")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("log.id", id), attribute.Int("user.id", userID))

	tag, err := r.db.Exec(ctx, `DELETE FROM logs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrForeign(ctx, id)
	}
	return nil
}

func (r *Repo) missingOrForeign(ctx context.Context, id int) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM logs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check log: %w", err)
	}
	if exists {
		return ErrForbidden
	}
	return ErrLogNotFound
}

func (r *Repo) ListByUser(ctx context.Context, userID, limit int) (_ []Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.listByUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := r.db.Query(ctx, selectLogs+` WHERE l.user_id = $1`+orderNewestFirst+` LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user logs: %w", err)
	}
	return scanLogs(rows)
}

func (r *Repo) ListForWorkout(ctx context.Context, workoutID int) (_ []Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.listForWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("workout.id", workoutID))

	rows, err := r.db.Query(ctx, selectLogs+` WHERE l.workout_id = $1`+orderNewestFirst, workoutID)
	if err != nil {
		return nil, fmt.Errorf("list workout logs: %w", err)
	}
	return scanLogs(rows)
}

// ListPage returns a page of all logs, newest first.
func (r *Repo) ListPage(ctx context.Context, page pagination.Page) (_ []Log, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.listPage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", page.Number))

	rows, err := r.db.Query(ctx, selectLogs+orderNewestFirst+` LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return scanLogs(rows)
}

func (r *Repo) Count(ctx context.Context) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM logs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return count, nil
}

// ListWorkoutRefs returns the latest workouts to pick from when logging.
func (r *Repo) ListWorkoutRefs(ctx context.Context, limit int) (_ []WorkoutRef, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.listWorkoutRefs")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT w.id, w.workout_date, w.wod_description, COALESCE(p.programming_week, '')
		FROM workouts w
			LEFT JOIN programming p ON p.workout_id = w.id
		ORDER BY w.workout_date DESC, w.id DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list workout refs: %w", err)
	}
	defer rows.Close()

	var refs []WorkoutRef
	for rows.Next() {
		var ref WorkoutRef
		if err := rows.Scan(&ref.ID, &ref.Date, &ref.WOD, &ref.ProgrammingWeek); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *Repo) GetWorkoutRef(ctx context.Context, workoutID int) (_ *WorkoutRef, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.logs.getWorkoutRef")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	ref := WorkoutRef{ID: workoutID}
	err = r.db.QueryRow(
		ctx,
		`SELECT w.workout_date, w.wod_description, COALESCE(p.programming_week, '')
		FROM workouts w
			LEFT JOIN programming p ON p.workout_id = w.id
		WHERE w.id = $1`,
		workoutID,
	).Scan(&ref.Date, &ref.WOD, &ref.ProgrammingWeek)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select workout ref: %w", err)
	}
	return &ref, nil
}

func scanLogs(rows pgx.Rows) ([]Log, error) {
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(
			&l.ID, &l.Date, &l.Text, &l.UserID, &l.Username,
			&l.WorkoutID, &l.WorkoutDate, &l.WOD,
			&l.LikesCount, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
