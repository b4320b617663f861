package usecase

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"auth_backend/internal/feature/auth/domain"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8
	// maxPasswordBytes is bcrypt's input limit.
	maxPasswordBytes = 72
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	namePattern  = regexp.MustCompile(`^[\p{L} '\-]{2,}$`)
)

// Messages returned to the client, keyed by "<field>.<tag>".
var validationMessages = map[string]string{
	"Name.required":       "Please add a name",
	"Name.personname":     "Name must be at least 2 characters and contain only letters, spaces, hyphens and apostrophes",
	"Email.required":      "Please add an email",
	"Email.emailaddr":     "Please add a valid email",
	"Password.required":   "Please add a password",
	"Password.strongpass": "Password must be at least 8 characters and contain at least one letter and one number",
	"Password.bcryptlen":  "Password must be at most 72 bytes",
}

// registerInput is the validated shape of a registration.
type registerInput struct {
	Name     string `validate:"required,personname"`
	Email    string `validate:"required,emailaddr"`
	Password string `validate:"required,strongpass,bcryptlen"`
}

type emailInput struct {
	Email string `validate:"required,emailaddr"`
}

type passwordInput struct {
	Password string `validate:"required,strongpass,bcryptlen"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("emailaddr", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpass", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	return v
}

// isStrongPassword checks length ≥ 8 with at least one letter and one digit.
func isStrongPassword(p string) bool {
	if len([]rune(p)) < minPasswordLength {
		return false
	}
	var letter, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// validateStruct runs the validator and converts failures to a domain.ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := validationMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid " + strings.ToLower(fe.Field())
		}
		msgs = append(msgs, msg)
	}
	return domain.NewValidationError(msgs...)
}

// normalizeEmail trims and lowercases an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
