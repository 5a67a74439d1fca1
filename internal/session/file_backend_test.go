package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/stage-portal/internal/models"
)

func TestFileBackendRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	sess := &models.Session{UserID: 7, DisplayName: "Eve", Role: models.RoleStudent, Token: "tok-7"}
	require.NoError(t, backend.Save(context.Background(), sess))

	loaded, err := backend.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *sess, *loaded)
}

func TestFileBackendMissingFileIsNoSession(t *testing.T) {
	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	loaded, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileBackendCorruptFileIsNoSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	loaded, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestFileBackendSaveUsesOwnerOnlyPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	require.NoError(t, backend.Save(context.Background(), &models.Session{
		UserID: 1, Role: models.RoleAdmin, Token: "tok",
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileBackendClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	require.NoError(t, backend.Save(context.Background(), &models.Session{
		UserID: 1, Role: models.RoleAdmin, Token: "tok",
	}))
	require.NoError(t, backend.Clear(context.Background()))
	require.NoError(t, backend.Clear(context.Background()))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileBackendCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.json")
	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	require.NoError(t, backend.Save(context.Background(), &models.Session{
		UserID: 1, Role: models.RoleAdmin, Token: "tok",
	}))

	loaded, err := backend.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1, loaded.UserID)
}
