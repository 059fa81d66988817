package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
	PasswordMinLength = 8
	PasswordMaxLength = 100
)

var registrationFields = []string{"username", "email", "password"}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("email_domain", validEmailDomain); err != nil {
		panic(err)
	}
	return v
}

// validEmailDomain rejects domains the email rule lets through: a trailing
// dot, or an empty label.
func validEmailDomain(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	at := strings.LastIndexByte(value, '@')
	if at < 0 {
		return false
	}
	domain := value[at+1:]
	if domain == "" || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return !strings.Contains(domain, "..")
}

// UserCreate is a sign-up request that passed validation. Password is plaintext
// and must be hashed before it becomes part of a user record.
type UserCreate struct {
	Username string `json:"username" validate:"min=3,max=50"`
	Email    string `json:"email" validate:"email,email_domain"`
	Password string `json:"password" validate:"min=8,max=100"`
}

// ValidateRegistration validates an untyped sign-up payload such as a decoded JSON
// object. Every field is checked; all violations come back in a single *ValidationError.
// Accepted values are returned unchanged.
func ValidateRegistration(raw map[string]any) (UserCreate, error) {
	var b violationBuilder
	in := UserCreate{
		Username: b.requireString(raw, "username"),
		Email:    b.requireString(raw, "email"),
		Password: b.requireString(raw, "password"),
	}
	b.addStructErrors(validate.Struct(in))
	if err := b.err(registrationFields...); err != nil {
		return UserCreate{}, err
	}
	return in, nil
}

// Validate checks an already typed request against the same rules as ValidateRegistration.
func (u UserCreate) Validate() error {
	var b violationBuilder
	b.addStructErrors(validate.Struct(u))
	return b.err(registrationFields...)
}

func (u UserCreate) String() string {
	return fmt.Sprintf("UserCreate{Username:%q Email:%q Password:[redacted]}", u.Username, u.Email)
}

func (b *violationBuilder) requireString(raw map[string]any, field string) string {
	value, ok := raw[field]
	if !ok || value == nil {
		b.add(field, RuleRequired, "field is required")
		return ""
	}
	s, ok := value.(string)
	if !ok {
		b.add(field, RuleType, "must be a string")
		return ""
	}
	return s
}

// addStructErrors translates validator output. Fields that already failed a
// presence or type check keep that violation.
func (b *violationBuilder) addStructErrors(err error) {
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		b.add("_", RuleType, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if b.has(field) {
			continue
		}
		switch fe.Tag() {
		case "min":
			b.add(field, RuleMinLength, fmt.Sprintf("must be at least %s characters", fe.Param()))
		case "max":
			b.add(field, RuleMaxLength, fmt.Sprintf("must be at most %s characters", fe.Param()))
		case "email", "email_domain":
			b.add(field, RuleEmail, "must be a valid email address")
		default:
			b.add(field, fe.Tag(), fmt.Sprintf("failed %q check", fe.Tag()))
		}
	}
}
