package smoke_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"gopherauth/internal/model"
	"gopherauth/internal/repository"
	"gopherauth/internal/smoke"
	"gopherauth/internal/testkit"
)

func TestRunPassesOnMigratedDatabase(t *testing.T) {
	db := testkit.DB(t)
	var out bytes.Buffer

	report := smoke.Run(db, &out)

	require.True(t, report.OK(), out.String())
	require.Len(t, report.Results, 5)
	require.Contains(t, out.String(), "Total: 5/5 tests passed")
	require.Contains(t, out.String(), "✓ PASS: ORM Operations")

	leftover, err := repository.NewUserRepository(db).GetByUsername("orm_test_user")
	require.NoError(t, err)
	require.Nil(t, leftover)
}

func TestRunReplacesStaleScratchUser(t *testing.T) {
	db := testkit.DB(t)
	repo := repository.NewUserRepository(db)
	require.NoError(t, repo.Create(&model.User{Username: "orm_test_user", Email: "stale@example.com", HashedPassword: "x"}))

	report := smoke.Run(db, &bytes.Buffer{})
	require.True(t, report.OK())

	leftover, err := repo.GetByUsername("orm_test_user")
	require.NoError(t, err)
	require.Nil(t, leftover)
}

func TestRunFailsWithoutTable(t *testing.T) {
	db := testkit.DB(t)
	require.NoError(t, db.Migrator().DropTable(&model.User{}))
	var out bytes.Buffer

	report := smoke.Run(db, &out)

	require.False(t, report.OK())
	require.Equal(t, 3, report.Passed())
	require.Contains(t, out.String(), "✗ FAIL: Database Table")
	require.Contains(t, out.String(), "✗ FAIL: ORM Operations")
}
