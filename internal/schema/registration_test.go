package schema

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func validPayload() map[string]any {
	return map[string]any{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
}

func requireViolations(t *testing.T, err error) *ValidationError {
	t.Helper()
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %T: %v", err, err)
	require.NotEmpty(t, vErr.Violations)
	return vErr
}

func TestValidateRegistrationAcceptsValidInputUnchanged(t *testing.T) {
	in, err := ValidateRegistration(validPayload())
	require.NoError(t, err)
	require.Equal(t, UserCreate{Username: "testuser", Email: "test@example.com", Password: "password123"}, in)
}

func TestValidateRegistrationShortUsername(t *testing.T) {
	payload := validPayload()
	payload["username"] = "ab"

	_, err := ValidateRegistration(payload)
	vErr := requireViolations(t, err)
	require.Equal(t, []string{"username"}, vErr.Fields())
	require.Equal(t, RuleMinLength, vErr.Violations[0].Rule)
}

func TestValidateRegistrationMalformedEmail(t *testing.T) {
	_, err := ValidateRegistration(map[string]any{
		"username": "test",
		"email":    "not-an-email",
		"password": "pass1234",
	})
	vErr := requireViolations(t, err)
	require.Equal(t, []string{"email"}, vErr.Fields())
	require.Equal(t, RuleEmail, vErr.Violations[0].Rule)
}

func TestValidateRegistrationRejectsMalformedEmailDomains(t *testing.T) {
	for _, email := range []string{"a@example.com.", "a@example..com", "a@.example.com", "a@"} {
		t.Run(email, func(t *testing.T) {
			payload := validPayload()
			payload["email"] = email

			_, err := ValidateRegistration(payload)
			vErr := requireViolations(t, err)
			require.Equal(t, []string{"email"}, vErr.Fields())
			require.Equal(t, RuleEmail, vErr.Violations[0].Rule)
		})
	}

	payload := validPayload()
	payload["email"] = "first.last@mail.example.co.uk"
	_, err := ValidateRegistration(payload)
	require.NoError(t, err)
}

func TestValidateRegistrationLengthBounds(t *testing.T) {
	cases := []struct {
		field string
		value string
		rule  string
	}{
		{"username", "", RuleMinLength},
		{"username", "ab", RuleMinLength},
		{"username", strings.Repeat("u", 51), RuleMaxLength},
		{"password", "pass", RuleMinLength},
		{"password", strings.Repeat("p", 7), RuleMinLength},
		{"password", strings.Repeat("p", 101), RuleMaxLength},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_%d", tc.field, len(tc.value)), func(t *testing.T) {
			payload := validPayload()
			payload[tc.field] = tc.value

			_, err := ValidateRegistration(payload)
			vErr := requireViolations(t, err)
			require.Equal(t, []string{tc.field}, vErr.Fields())
			require.Equal(t, tc.rule, vErr.Violations[0].Rule)
		})
	}
}

func TestValidateRegistrationBoundaryValuesPass(t *testing.T) {
	for _, payload := range []map[string]any{
		{"username": "abc", "email": "a@example.com", "password": strings.Repeat("p", 8)},
		{"username": strings.Repeat("u", 50), "email": "a@example.com", "password": strings.Repeat("p", 100)},
	} {
		_, err := ValidateRegistration(payload)
		require.NoError(t, err)
	}
}

func TestValidateRegistrationCountsCharactersNotBytes(t *testing.T) {
	payload := validPayload()
	payload["username"] = "김철수"

	_, err := ValidateRegistration(payload)
	require.NoError(t, err)
}

func TestValidateRegistrationReportsEveryViolation(t *testing.T) {
	_, err := ValidateRegistration(map[string]any{
		"username": "ab",
		"email":    "nope",
		"password": "short",
	})
	vErr := requireViolations(t, err)
	require.Equal(t, []string{"username", "email", "password"}, vErr.Fields())
	require.Contains(t, err.Error(), "username")
	require.Contains(t, err.Error(), "password")
}

func TestValidateRegistrationMissingAndMistypedFields(t *testing.T) {
	_, err := ValidateRegistration(map[string]any{
		"username": 42,
		"password": nil,
	})
	vErr := requireViolations(t, err)
	require.Len(t, vErr.Violations, 3)
	require.Equal(t, Violation{Field: "username", Rule: RuleType, Message: "must be a string"}, vErr.Violations[0])
	require.Equal(t, RuleRequired, vErr.Violations[1].Rule)
	require.Equal(t, "email", vErr.Violations[1].Field)
	require.Equal(t, RuleRequired, vErr.Violations[2].Rule)
	require.Equal(t, "password", vErr.Violations[2].Field)
}

func TestUserCreateValidateMatchesMapValidation(t *testing.T) {
	require.NoError(t, UserCreate{Username: "alice", Email: "a@example.com", Password: "password123"}.Validate())

	err := UserCreate{Username: "al", Email: "a@example.com", Password: "password123"}.Validate()
	vErr := requireViolations(t, err)
	require.True(t, vErr.Has("username"))
	require.False(t, vErr.Has("email"))
}

func TestUserCreateStringRedactsPassword(t *testing.T) {
	in := UserCreate{Username: "alice", Email: "a@example.com", Password: "password123"}
	require.NotContains(t, fmt.Sprintf("%v", in), "password123")
}

func TestViolationMessagesNeverEchoPassword(t *testing.T) {
	payload := validPayload()
	payload["password"] = "secret"

	_, err := ValidateRegistration(payload)
	require.Error(t, err)
	require.NotContains(t, err.Error(), "secret")
}
