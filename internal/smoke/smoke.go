// Package smoke runs the user feature smoke checks against a live database:
// model mapping, transfer schemas, validation rules, the users table, and a
// create/read/project/delete round trip.
package smoke

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"gopherauth/internal/model"
	"gopherauth/internal/repository"
	"gopherauth/internal/schema"
)

const (
	scratchUsername = "orm_test_user"
	scratchEmail    = "orm_test@example.com"
	scratchHash     = "fake_hash_for_testing"
)

var requiredColumns = []string{"id", "username", "email", "hashed_password", "created_at"}

type Result struct {
	Name   string
	Passed bool
}

type Report struct {
	Results []Result
}

func (r Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

func (r Report) OK() bool {
	return r.Passed() == len(r.Results)
}

type runner struct {
	db  *gorm.DB
	out io.Writer
}

type check struct {
	name string
	fn   func(*runner) bool
}

// Run executes every check in order, printing progress to out. A failing check
// does not stop later ones.
func Run(db *gorm.DB, out io.Writer) Report {
	r := &runner{db: db, out: out}
	checks := []check{
		{"Model Mapping", (*runner).checkModel},
		{"Schema Shapes", (*runner).checkSchemas},
		{"Schema Validation", (*runner).checkValidation},
		{"Database Table", (*runner).checkTable},
		{"ORM Operations", (*runner).checkORM},
	}

	line := strings.Repeat("=", 60)
	r.printf("%s\nUser Feature Smoke Suite: User Model & Schema\n%s\n", line, line)

	var report Report
	for i, c := range checks {
		r.printf("\n=== %d. %s ===\n", i+1, c.name)
		report.Results = append(report.Results, Result{Name: c.name, Passed: c.fn(r)})
	}

	r.printf("\n%s\nSummary\n%s\n", line, line)
	for _, res := range report.Results {
		status := "✓ PASS"
		if !res.Passed {
			status = "✗ FAIL"
		}
		r.printf("%s: %s\n", status, res.Name)
	}
	r.printf("\nTotal: %d/%d tests passed\n", report.Passed(), len(report.Results))
	return report
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *runner) ok(format string, args ...any) {
	r.printf("✓ "+format+"\n", args...)
}

func (r *runner) fail(format string, args ...any) bool {
	r.printf("✗ "+format+"\n", args...)
	return false
}

func (r *runner) checkModel() bool {
	stmt := &gorm.Statement{DB: r.db}
	if err := stmt.Parse(&model.User{}); err != nil {
		return r.fail("parse user model: %v", err)
	}
	r.ok("user model parsed")
	r.printf("  Table name: %s\n", stmt.Schema.Table)
	r.printf("  Columns: %v\n", stmt.Schema.DBNames)

	if stmt.Schema.Table != model.UserTableName {
		return r.fail("expected table %q, got %q", model.UserTableName, stmt.Schema.Table)
	}
	if missing := missingColumns(stmt.Schema.DBNames); len(missing) > 0 {
		return r.fail("model lacks columns %v", missing)
	}
	return true
}

func (r *runner) checkSchemas() bool {
	sample := schema.UserResponse{ID: 1, Username: "alice", Email: "a@example.com", CreatedAt: time.Now().UTC()}
	payload, err := json.Marshal(sample)
	if err != nil {
		return r.fail("marshal UserResponse: %v", err)
	}
	var keys map[string]any
	if err := json.Unmarshal(payload, &keys); err != nil {
		return r.fail("decode UserResponse: %v", err)
	}
	r.ok("UserResponse fields: %v", sortedKeys(keys))
	if _, leaked := keys["hashed_password"]; leaked {
		return r.fail("UserResponse exposes hashed_password")
	}

	inDB, err := schema.UserInDBFromMap(map[string]any{
		"id": 1, "username": "alice", "email": "a@example.com",
		"hashed_password": scratchHash, "created_at": sample.CreatedAt,
	})
	if err != nil {
		return r.fail("build UserInDB: %v", err)
	}
	if _, err := json.Marshal(inDB); !errors.Is(err, schema.ErrInternalOnly) {
		return r.fail("UserInDB must refuse JSON serialization, got %v", err)
	}
	r.ok("UserInDB refuses JSON serialization")
	return true
}

func (r *runner) checkValidation() bool {
	cases := []struct {
		name      string
		input     map[string]any
		wantField string
	}{
		{
			name:  "valid user data",
			input: map[string]any{"username": "testuser", "email": "test@example.com", "password": "password123"},
		},
		{
			name:      "invalid email",
			input:     map[string]any{"username": "test", "email": "not-an-email", "password": "pass1234"},
			wantField: "email",
		},
		{
			name:      "short username",
			input:     map[string]any{"username": "ab", "email": "test@example.com", "password": "password123"},
			wantField: "username",
		},
		{
			name:      "short password",
			input:     map[string]any{"username": "testuser", "email": "test@example.com", "password": "pass"},
			wantField: "password",
		},
	}

	passed, failed := 0, 0
	for _, tc := range cases {
		_, err := schema.ValidateRegistration(tc.input)
		var vErr *schema.ValidationError
		switch {
		case tc.wantField == "" && err == nil:
			r.ok("%s accepted", tc.name)
			passed++
		case tc.wantField == "":
			r.fail("%s rejected: %v", tc.name, err)
			failed++
		case errors.As(err, &vErr) && vErr.Has(tc.wantField):
			r.ok("%s rejected on %s", tc.name, tc.wantField)
			passed++
		default:
			r.fail("%s should have been rejected on %s (got %v)", tc.name, tc.wantField, err)
			failed++
		}
	}
	r.printf("\nValidation checks: %d passed, %d failed\n", passed, failed)
	return failed == 0
}

func (r *runner) checkTable() bool {
	migrator := r.db.Migrator()
	if !migrator.HasTable(&model.User{}) {
		return r.fail("%s table not found", model.UserTableName)
	}
	r.ok("%s table exists", model.UserTableName)

	columnTypes, err := migrator.ColumnTypes(&model.User{})
	if err != nil {
		return r.fail("read columns: %v", err)
	}
	names := make([]string, 0, len(columnTypes))
	r.printf("  Columns:\n")
	for _, col := range columnTypes {
		names = append(names, col.Name())
		r.printf("    - %s: %s\n", col.Name(), col.DatabaseTypeName())
	}
	if missing := missingColumns(names); len(missing) > 0 {
		return r.fail("table lacks columns %v", missing)
	}

	indexes, err := migrator.GetIndexes(&model.User{})
	if err != nil {
		r.printf("  Indexes: unavailable (%v)\n", err)
		return true
	}
	r.printf("  Indexes:\n")
	for _, idx := range indexes {
		r.printf("    - %s: %v\n", idx.Name(), idx.Columns())
	}
	return true
}

func (r *runner) checkORM() (passed bool) {
	repo := repository.NewUserRepository(r.db)

	if _, err := repo.DeleteByUsername(scratchUsername); err != nil {
		return r.fail("clear stale scratch user: %v", err)
	}

	scratch := &model.User{Username: scratchUsername, Email: scratchEmail, HashedPassword: scratchHash}
	if err := repo.Create(scratch); err != nil {
		return r.fail("create scratch user: %v", err)
	}
	r.ok("user created with ID: %d", scratch.ID)
	defer func() {
		if _, err := repo.DeleteByID(scratch.ID); err != nil {
			passed = r.fail("delete scratch user: %v", err)
			return
		}
		if passed {
			r.ok("scratch user deleted")
		}
	}()

	stored, err := repo.GetByUsername(scratchUsername)
	if err != nil {
		return r.fail("read scratch user: %v", err)
	}
	if stored == nil {
		return r.fail("scratch user not found")
	}
	r.ok("user retrieved: %s", stored.Email)

	resp, err := schema.NewUserResponse(stored)
	if err != nil {
		return r.fail("project scratch user: %v", err)
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return r.fail("marshal projection: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return r.fail("decode projection: %v", err)
	}
	if _, leaked := fields["hashed_password"]; leaked {
		return r.fail("hashed_password must not appear in UserResponse")
	}
	r.ok("UserResponse excludes hashed_password")
	r.printf("  Response fields: %v\n", sortedKeys(fields))
	return true
}

func missingColumns(have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, name := range have {
		set[name] = struct{}{}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := set[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
