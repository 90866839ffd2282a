package logs

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/2beens/wodlog/pkg"
)

const dateLayout = time.DateOnly

var (
	ErrLogNotFound     = errors.New("log not found")
	ErrWorkoutNotFound = errors.New("workout not found")
	// ErrForbidden is returned when a user tries to change another user's log.
	ErrForbidden = errors.New("log belongs to another user")
)

// Log is a user's training result for a workout.
type Log struct {
	ID          int
	Date        time.Time
	Text        string
	UserID      int
	Username    string
	WorkoutID   int
	WorkoutDate time.Time
	WOD         string
	LikesCount  int
	CreatedAt   time.Time
}

// WorkoutRef is the part of a workout shown when picking what to log.
type WorkoutRef struct {
	ID              int
	Date            time.Time
	WOD             string
	ProgrammingWeek string
}

type Form struct {
	Date  string `validate:"required,datetime=2006-01-02"`
	Notes string `validate:"required,max=2000,storable"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("storable", func(fl validator.FieldLevel) bool {
		return pkg.StorableText(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func (f Form) Parse() (time.Time, string, error) {
	f.Notes = strings.TrimSpace(f.Notes)
	if err := validate.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Field() == "Notes" {
			switch fieldErrs[0].Tag() {
			case "required":
				return time.Time{}, "", errors.New("log notes are required")
			case "storable":
				return time.Time{}, "", errors.New("log notes contain invalid characters")
			}
			return time.Time{}, "", errors.New("log notes must be at most 2000 characters")
		}
		return time.Time{}, "", errors.New("log date must be in YYYY-MM-DD format")
	}
	date, err := time.Parse(dateLayout, f.Date)
	if err != nil {
		return time.Time{}, "", errors.New("log date must be in YYYY-MM-DD format")
	}
	return date, f.Notes, nil
}
