package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/wodlog/internal/comments"
	"github.com/2beens/wodlog/internal/db"
	"github.com/2beens/wodlog/internal/likes"
	"github.com/2beens/wodlog/internal/logs"
	"github.com/2beens/wodlog/internal/programming"
	"github.com/2beens/wodlog/internal/users"
	"github.com/2beens/wodlog/internal/workouts"
	"github.com/2beens/wodlog/pkg"
)

// all seeded users share this password
const seedPassword = "Password123!"

var movements = []string{
	"thrusters", "pull-ups", "burpees", "box jumps", "wall balls", "double unders",
	"kettlebell swings", "deadlifts", "power cleans", "toes to bar", "rowing", "air squats",
}

type seedParams struct {
	Users    int
	Workouts int
	Logs     int
	Seed     int64
}

var flagSeed seedParams

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with fake users, workouts and logs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		pool, err := db.NewDBPool(ctx, dbPoolParams())
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := seed(ctx, pool, flagSeed); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d workouts, %d logs (password: %s)\n",
			flagSeed.Users, flagSeed.Workouts, flagSeed.Logs, seedPassword)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&flagSeed.Users, "users", 5, "number of users, the first one is a coach")
	seedCmd.Flags().IntVar(&flagSeed.Workouts, "workouts", 30, "number of workouts")
	seedCmd.Flags().IntVar(&flagSeed.Logs, "logs", 100, "number of logs")
	seedCmd.Flags().Int64Var(&flagSeed.Seed, "seed", 0, "faker seed, 0 for random")
}

func seed(ctx context.Context, pool db.Pool, params seedParams) error {
	if params.Users < 1 {
		return fmt.Errorf("at least one user is needed")
	}
	faker := gofakeit.New(params.Seed)

	// bcrypt at the service cost is too slow for bulk seeding
	hash, err := pkg.HashPasswordWithCost(seedPassword, 4)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	usersRepo := users.NewRepo(pool)
	userIDs := make([]int, 0, params.Users)
	for i := 0; i < params.Users; i++ {
		user, err := usersRepo.Create(ctx, seedUsername(faker, i), hash, i == 0)
		if err != nil {
			return fmt.Errorf("create user %d: %w", i, err)
		}
		userIDs = append(userIDs, user.ID)
	}
	log.Debugf("seeded %d users", len(userIDs))

	workoutsRepo := workouts.NewRepo(pool)
	commentsRepo := comments.NewRepo(pool)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	workoutIDs := make([]int, 0, params.Workouts)
	for i := 0; i < params.Workouts; i++ {
		w, err := workoutsRepo.Add(ctx, workouts.Workout{
			Date:            today.AddDate(0, 0, -i),
			Warmup:          fmt.Sprintf("3 rounds: 200m run, 10 %s", faker.RandomString(movements)),
			WOD:             fakeWOD(faker),
			Extras:          faker.Sentence(8),
			UserID:          userIDs[0],
			ProgrammingWeek: programming.Weeks[i%len(programming.Weeks)],
		})
		if err != nil {
			return fmt.Errorf("create workout %d: %w", i, err)
		}
		workoutIDs = append(workoutIDs, w.ID)

		if faker.Bool() {
			if _, err := commentsRepo.Add(ctx, comments.Comment{
				WorkoutID: w.ID,
				UserID:    userIDs[faker.Number(0, len(userIDs)-1)],
				Text:      faker.Sentence(10),
			}); err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
		}
	}
	log.Debugf("seeded %d workouts", len(workoutIDs))

	if len(workoutIDs) == 0 {
		return nil
	}

	logsRepo := logs.NewRepo(pool)
	likesRepo := likes.NewRepo(pool)
	for i := 0; i < params.Logs; i++ {
		l, err := logsRepo.Add(ctx, logs.Log{
			Date:      today.AddDate(0, 0, -faker.Number(0, len(workoutIDs)-1)),
			Text:      fmt.Sprintf("%d rounds + %d reps, %s", faker.Number(3, 12), faker.Number(0, 30), faker.Sentence(5)),
			UserID:    userIDs[faker.Number(0, len(userIDs)-1)],
			WorkoutID: workoutIDs[faker.Number(0, len(workoutIDs)-1)],
		})
		if err != nil {
			return fmt.Errorf("create log %d: %w", i, err)
		}
		if faker.Bool() {
			if _, err := likesRepo.Toggle(ctx, l.ID, userIDs[faker.Number(0, len(userIDs)-1)]); err != nil {
				return fmt.Errorf("like log %d: %w", l.ID, err)
			}
		}
	}
	log.Debugf("seeded %d logs", params.Logs)

	return nil
}

var nonUsernameChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// seedUsername returns a valid username, unique per index.
func seedUsername(faker *gofakeit.Faker, i int) string {
	suffix := fmt.Sprintf("_%d", i)
	name := nonUsernameChars.ReplaceAllString(faker.Username(), "")
	if limit := 20 - len(suffix); len(name) > limit {
		name = name[:limit]
	}
	if len(name) < 2 {
		name = "athlete"
	}
	return name + suffix
}

func fakeWOD(faker *gofakeit.Faker) string {
	var b strings.Builder
	fmt.Fprintf(&b, "AMRAP %d min:\n", faker.Number(8, 20))
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "%d %s\n", faker.Number(5, 25), faker.RandomString(movements))
	}
	return strings.TrimSpace(b.String())
}
