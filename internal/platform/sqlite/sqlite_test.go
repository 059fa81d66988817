package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesFileAndDirectory(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	path := filepath.Join(t.TempDir(), "nested", "users.db")

	db, err := New(context.Background(), path, log)
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE ping_check (id INTEGER PRIMARY KEY)").Error)
	require.FileExists(t, path)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}
