package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/wodlog/internal/db"
	"github.com/2beens/wodlog/internal/telemetry/tracing"
	"github.com/2beens/wodlog/pkg"
)

type Repo struct {
	db db.Querier
}

func NewRepo(db db.Querier) *Repo {
	return &Repo{
		db: db,
	}
}

// Create stores a new user. The password must already be hashed.
func (r *Repo) Create(ctx context.Context, username, passwordHash string, isCoach bool) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user := User{
		Username:     username,
		PasswordHash: passwordHash,
		IsCoach:      isCoach,
	}
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO users (username, password_hash, is_coach)
			VALUES ($1, $2, $3)
		RETURNING id, created_at;`,
		username, passwordHash, isCoach,
	).Scan(&user.ID, &user.CreatedAt); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	return &user, nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByUsername")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *Repo) GetByID(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByID")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *Repo) getOne(ctx context.Context, where string, arg any) (*User, error) {
	var user User
	err := r.db.QueryRow(
		ctx,
		`SELECT id, username, password_hash, is_coach, created_at FROM users `+where,
		arg,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsCoach, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &user, nil
}
