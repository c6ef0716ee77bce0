package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vstoleru/storefront/internal/session"
	"github.com/vstoleru/storefront/internal/user"
)

func testUser() *user.User {
	return &user.User{ID: 7, Name: "User", Email: "user@example.com", Role: user.RoleAdmin}
}

func TestManager_CreateAndGet(t *testing.T) {
	m := session.NewManager(time.Hour)
	defer m.Stop()

	created, err := m.Create(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, created.Token)

	got, ok := m.Get(created.Token)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, "user@example.com", got.Email)
	assert.Equal(t, user.RoleAdmin, got.Role)
}

func TestManager_Get_UnknownToken(t *testing.T) {
	m := session.NewManager(time.Hour)
	defer m.Stop()

	_, ok := m.Get("no-such-token")
	assert.False(t, ok)
}

func TestManager_Create_TokensAreUnique(t *testing.T) {
	m := session.NewManager(time.Hour)
	defer m.Stop()

	first, err := m.Create(testUser())
	require.NoError(t, err)
	second, err := m.Create(testUser())
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	// Обе сессии живут независимо.
	_, ok := m.Get(first.Token)
	assert.True(t, ok)
	_, ok = m.Get(second.Token)
	assert.True(t, ok)
}

func TestManager_Destroy(t *testing.T) {
	m := session.NewManager(time.Hour)
	defer m.Stop()

	created, err := m.Create(testUser())
	require.NoError(t, err)

	m.Destroy(created.Token)

	_, ok := m.Get(created.Token)
	assert.False(t, ok)

	// Повторное уничтожение — no-op.
	m.Destroy(created.Token)
}

func TestManager_Get_ExpiredSession(t *testing.T) {
	m := session.NewManager(time.Millisecond)
	defer m.Stop()

	created, err := m.Create(testUser())
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	// Протухшая сессия невидима ещё до фоновой зачистки.
	_, ok := m.Get(created.Token)
	assert.False(t, ok)
}
