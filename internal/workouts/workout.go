package workouts

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/2beens/wodlog/internal/programming"
	"github.com/2beens/wodlog/pkg"
)

const DateLayout = time.DateOnly

var ErrWorkoutNotFound = errors.New("workout not found")

type Workout struct {
	ID              int
	Date            time.Time
	Warmup          string
	WOD             string
	Extras          string
	UserID          int
	Username        string
	ProgrammingWeek string
	ImageFilename   string
	CreatedAt       time.Time
}

// Form is the submitted workout form, kept as strings so it can be re-rendered as is.
type Form struct {
	Date            string `validate:"required,datetime=2006-01-02"`
	Warmup          string `validate:"max=2000,storable"`
	WOD             string `validate:"required,max=2000,storable"`
	Extras          string `validate:"max=2000,storable"`
	ProgrammingWeek string `validate:"required,programmingweek"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("programmingweek", func(fl validator.FieldLevel) bool {
		return programming.IsValidWeek(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("storable", func(fl validator.FieldLevel) bool {
		return pkg.StorableText(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func FormFromWorkout(w *Workout) Form {
	return Form{
		Date:            w.Date.Format(DateLayout),
		Warmup:          w.Warmup,
		WOD:             w.WOD,
		Extras:          w.Extras,
		ProgrammingWeek: w.ProgrammingWeek,
	}
}

// Workout validates the form and returns the workout it describes.
func (f Form) Workout() (*Workout, error) {
	f.WOD = strings.TrimSpace(f.WOD)
	if err := validate.Struct(f); err != nil {
		return nil, formError(err)
	}
	date, err := time.Parse(DateLayout, f.Date)
	if err != nil {
		return nil, errors.New("workout date must be in YYYY-MM-DD format")
	}
	return &Workout{
		Date:            date,
		Warmup:          f.Warmup,
		WOD:             f.WOD,
		Extras:          f.Extras,
		ProgrammingWeek: f.ProgrammingWeek,
	}, nil
}

var textFieldNames = map[string]string{
	"Warmup": "warm-up description",
	"WOD":    "WOD description",
	"Extras": "extras description",
}

func formError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	if fe.Tag() == "storable" {
		return errors.New(textFieldNames[fe.Field()] + " contains invalid characters")
	}
	switch fe.Field() {
	case "Date":
		return errors.New("workout date must be in YYYY-MM-DD format")
	case "ProgrammingWeek":
		return errors.New("programming week must be one of: " + strings.Join(programming.Weeks, ", "))
	case "WOD":
		if fe.Tag() == "required" {
			return errors.New("WOD description is required")
		}
		return errors.New("WOD description must be at most 2000 characters")
	case "Warmup":
		return errors.New("warm-up description must be at most 2000 characters")
	default:
		return errors.New("extras description must be at most 2000 characters")
	}
}
