package admin

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/vitrine/store"
)

func newTestService(t *testing.T) (*Service, store.Backend) {
	t.Helper()
	backend := store.NewMemoryStore()
	now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	return NewService(store.Open(backend), nil, WithClock(func() time.Time { return now })), backend
}

func readAdmins(t *testing.T, backend store.Backend) map[string]Admin {
	t.Helper()
	raw, err := backend.ReadAll(Collection)
	require.NoError(t, err)
	var admins map[string]Admin
	require.NoError(t, json.Unmarshal(raw, &admins))
	return admins
}

func TestSeedCreatesDefaultAdmin(t *testing.T) {
	svc, backend := newTestService(t)
	require.NoError(t, svc.Seed("admin", "admin123"))

	admins := readAdmins(t, backend)
	require.Contains(t, admins, "admin")
	a := admins["admin"]
	assert.Equal(t, "Administrator", a.Name)
	assert.Nil(t, a.Token)
	assert.Empty(t, a.Password)
	assert.True(t, VerifyPassword("admin123", a.PasswordHash))
}

func TestSeedKeepsExistingAdmin(t *testing.T) {
	svc, backend := newTestService(t)
	require.NoError(t, svc.Seed("admin", "admin123"))
	_, _, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	before := readAdmins(t, backend)

	require.NoError(t, svc.Seed("admin", "changed"))
	assert.Equal(t, before, readAdmins(t, backend))

	assert.Error(t, svc.Seed(" ", "x"))
}

func TestLoginAuthenticateLogout(t *testing.T) {
	svc, backend := newTestService(t)
	require.NoError(t, svc.Seed("admin", "admin123"))

	user, token, err := svc.Login(" admin ", "admin123")
	require.NoError(t, err)
	assert.Equal(t, User{Username: "admin", Name: "Administrator", Role: Role}, user)
	assert.Regexp(t, `^[0-9A-F]{32}$`, token)
	assert.Equal(t, "2024-05-02T08:00:00.000Z", readAdmins(t, backend)["admin"].LastLogin)

	got, ok, err := svc.Authenticate(token)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user, got)

	require.NoError(t, svc.Logout(token))
	_, ok, err = svc.Authenticate(token)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, readAdmins(t, backend)["admin"].Token)
}

func TestLoginRotatesToken(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Seed("admin", "admin123"))

	_, first, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	_, second, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, ok, err := svc.Authenticate(first)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginFailures(t *testing.T) {
	svc, backend := newTestService(t)
	require.NoError(t, svc.Seed("admin", "admin123"))
	before := readAdmins(t, backend)

	var invalid *store.InvalidError
	_, _, err := svc.Login("", "admin123")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Identifiants manquants", invalid.Reason)

	_, _, err = svc.Login("admin", "")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Identifiants manquants", invalid.Reason)

	_, _, err = svc.Login("admin", "wrong")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Identifiants invalides", invalid.Reason)

	_, _, err = svc.Login("ghost", "admin123")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Identifiants invalides", invalid.Reason)

	assert.Equal(t, before, readAdmins(t, backend))
}

func TestLegacyPasswordIsUpgraded(t *testing.T) {
	svc, backend := newTestService(t)
	require.NoError(t, backend.WriteAll(Collection, []byte(`{
		"boss": {"username": "boss", "password": "s3cret", "name": "", "token": null}
	}`)))

	_, _, err := svc.Login("boss", "nope")
	require.Error(t, err)

	user, _, err := svc.Login("boss", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "boss", user.Name)

	stored := readAdmins(t, backend)["boss"]
	assert.Empty(t, stored.Password)
	assert.True(t, VerifyPassword("s3cret", stored.PasswordHash))

	_, _, err = svc.Login("boss", "s3cret")
	assert.NoError(t, err)
}

func TestAuthenticateIgnoresEmptyToken(t *testing.T) {
	svc, backend := newTestService(t)
	require.NoError(t, backend.WriteAll(Collection, []byte(`{
		"a": {"username": "a", "token": ""},
		"b": {"username": "b", "token": null}
	}`)))

	_, ok, err := svc.Authenticate("")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginKeepsProfileFields(t *testing.T) {
	svc, backend := newTestService(t)
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	doc, err := json.Marshal(map[string]any{
		"admin": map[string]any{
			"username":     "admin",
			"name":         "Admin",
			"passwordHash": hash,
			"token":        nil,
			"email":        "a@x",
		},
	})
	require.NoError(t, err)
	require.NoError(t, backend.WriteAll(Collection, doc))

	_, token, err := svc.Login("admin", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(token))

	raw, err := backend.ReadAll(Collection)
	require.NoError(t, err)
	var stored map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "a@x", stored["admin"]["email"])
	assert.Equal(t, "2024-05-02T08:00:00.000Z", stored["admin"]["lastLogin"])
}
