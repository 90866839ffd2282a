package users

import (
	"errors"
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

const minPasswordLength = 8

// Registration is the submitted register form.
type Registration struct {
	Username  string `validate:"required,username"`
	Password1 string `validate:"required,strongpassword"`
	Password2 string `validate:"required,eqfield=Password1"`
	IsCoach   bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func ValidUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// StrongPassword requires at least 8 chars with an upper-case letter,
// a lower-case letter, a digit and a special character.
func StrongPassword(password string) bool {
	if len([]rune(password)) < minPasswordLength {
		return false
	}
	var upper, lower, digit, special bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}

// Validate returns an error with a message fit to show on the register form.
func (reg Registration) Validate() error {
	err := validate.Struct(reg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	switch fe := fieldErrs[0]; fe.Field() {
	case "Username":
		return errors.New("username must be 3 to 20 characters: letters, digits or underscore")
	case "Password1":
		return errors.New("password must have at least 8 characters, with upper and lower case letters, a digit and a special character")
	default:
		return errors.New("passwords do not match")
	}
}
