package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

var (
	responseFields = []string{"id", "username", "email", "created_at"}
	inDBFields     = []string{"id", "username", "email", "hashed_password", "created_at"}
)

// Source is anything exposing the public fields of a user record.
type Source interface {
	GetID() uint
	GetUsername() string
	GetEmail() string
	GetCreatedAt() time.Time
}

// CredentialSource additionally exposes the stored password hash.
type CredentialSource interface {
	Source
	GetHashedPassword() string
}

// UserResponse is the externally safe view of a user. It has no credential field.
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserInDB is the server-only view of a user, including the password hash.
//
// The hash is unexported, so UserInDB cannot be converted into UserResponse and
// cannot be built outside this package except through NewUserInDB or UserInDBFromMap.
// MarshalJSON always fails; use Public for anything leaving the process.
type UserInDB struct {
	ID        uint
	Username  string
	Email     string
	CreatedAt time.Time

	hashedPassword string
}

func NewUserResponse(src Source) (UserResponse, error) {
	var b violationBuilder
	out := projectSource(&b, src)
	if err := b.err(responseFields...); err != nil {
		return UserResponse{}, err
	}
	return out, nil
}

func NewUserInDB(src CredentialSource) (UserInDB, error) {
	var b violationBuilder
	public := projectSource(&b, src)
	var hash string
	if !isNilSource(src) {
		hash = src.GetHashedPassword()
		if hash == "" {
			b.add("hashed_password", RuleRequired, "field is required")
		}
	}
	if err := b.err(inDBFields...); err != nil {
		return UserInDB{}, err
	}
	return UserInDB{
		ID:             public.ID,
		Username:       public.Username,
		Email:          public.Email,
		CreatedAt:      public.CreatedAt,
		hashedPassword: hash,
	}, nil
}

// UserResponseFromMap projects a dict-like source such as a decoded JSON object.
// Keys other than the four public fields are ignored.
func UserResponseFromMap(raw map[string]any) (UserResponse, error) {
	var b violationBuilder
	out := UserResponse{
		ID:        b.requireID(raw, "id"),
		Username:  b.requireNonEmpty(raw, "username"),
		Email:     b.requireNonEmpty(raw, "email"),
		CreatedAt: b.requireTime(raw, "created_at"),
	}
	if err := b.err(responseFields...); err != nil {
		return UserResponse{}, err
	}
	return out, nil
}

func UserInDBFromMap(raw map[string]any) (UserInDB, error) {
	var b violationBuilder
	out := UserInDB{
		ID:             b.requireID(raw, "id"),
		Username:       b.requireNonEmpty(raw, "username"),
		Email:          b.requireNonEmpty(raw, "email"),
		hashedPassword: b.requireNonEmpty(raw, "hashed_password"),
		CreatedAt:      b.requireTime(raw, "created_at"),
	}
	if err := b.err(inDBFields...); err != nil {
		return UserInDB{}, err
	}
	return out, nil
}

func (u UserInDB) HashedPassword() string {
	return u.hashedPassword
}

// Public drops the hash.
func (u UserInDB) Public() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (UserInDB) MarshalJSON() ([]byte, error) {
	return nil, ErrInternalOnly
}

func (u UserInDB) String() string {
	return fmt.Sprintf("UserInDB{ID:%d Username:%q Email:%q HashedPassword:[redacted]}", u.ID, u.Username, u.Email)
}

func (u UserInDB) GoString() string {
	return u.String()
}

// nilChecker is implemented by pointer sources that can report a typed nil.
type nilChecker interface {
	IsNil() bool
}

func isNilSource(src Source) bool {
	if src == nil {
		return true
	}
	n, ok := src.(nilChecker)
	return ok && n.IsNil()
}

func projectSource(b *violationBuilder, src Source) UserResponse {
	if isNilSource(src) {
		for _, field := range responseFields {
			b.add(field, RuleRequired, "field is required")
		}
		return UserResponse{}
	}
	out := UserResponse{
		ID:        src.GetID(),
		Username:  src.GetUsername(),
		Email:     src.GetEmail(),
		CreatedAt: src.GetCreatedAt(),
	}
	if out.ID == 0 {
		b.add("id", RuleRequired, "field is required")
	}
	if out.Username == "" {
		b.add("username", RuleRequired, "field is required")
	}
	if out.Email == "" {
		b.add("email", RuleRequired, "field is required")
	}
	if out.CreatedAt.IsZero() {
		b.add("created_at", RuleRequired, "field is required")
	}
	return out
}

func (b *violationBuilder) requireNonEmpty(raw map[string]any, field string) string {
	s := b.requireString(raw, field)
	if s == "" && !b.has(field) {
		b.add(field, RuleRequired, "field is required")
	}
	return s
}

func (b *violationBuilder) requireID(raw map[string]any, field string) uint {
	value, ok := raw[field]
	if !ok || value == nil {
		b.add(field, RuleRequired, "field is required")
		return 0
	}
	id, err := coerceID(value)
	if err != nil {
		b.add(field, RuleType, err.Error())
		return 0
	}
	if id == 0 {
		b.add(field, RuleRange, "must be a positive integer")
	}
	return id
}

func (b *violationBuilder) requireTime(raw map[string]any, field string) time.Time {
	value, ok := raw[field]
	if !ok || value == nil {
		b.add(field, RuleRequired, "field is required")
		return time.Time{}
	}
	var ts time.Time
	switch v := value.(type) {
	case time.Time:
		ts = v
	case *time.Time:
		if v != nil {
			ts = *v
		}
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			b.add(field, RuleType, "must be an RFC3339 timestamp")
			return time.Time{}
		}
		ts = parsed
	default:
		b.add(field, RuleType, "must be a timestamp")
		return time.Time{}
	}
	if ts.IsZero() {
		b.add(field, RuleRequired, "field is required")
	}
	return ts
}

// coerceID accepts Go integers, integral floats, json.Number and decimal strings.
// Negative values and values beyond the uint range are type errors.
func coerceID(value any) (uint, error) {
	errType := errors.New("must be an integer")
	switch v := value.(type) {
	case int:
		return intToID(int64(v))
	case int8:
		return intToID(int64(v))
	case int16:
		return intToID(int64(v))
	case int32:
		return intToID(int64(v))
	case int64:
		return intToID(v)
	case uint:
		return v, nil
	case uint8:
		return uint(v), nil
	case uint16:
		return uint(v), nil
	case uint32:
		return uint(v), nil
	case uint64:
		if v > math.MaxUint {
			return 0, errType
		}
		return uint(v), nil
	case float32:
		return floatToID(float64(v))
	case float64:
		return floatToID(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return intToID(n)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, errType
		}
		return floatToID(f)
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n > math.MaxUint {
			return 0, errType
		}
		return uint(n), nil
	default:
		return 0, errType
	}
}

func intToID(v int64) (uint, error) {
	if v < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return uint(v), nil
}

func floatToID(v float64) (uint, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v < 0 || v > float64(math.MaxInt64) {
		return 0, errors.New("must be an integer")
	}
	return uint(v), nil
}
