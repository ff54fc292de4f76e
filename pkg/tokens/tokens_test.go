package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *Codec {
	return &Codec{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	}
}

func TestCodec_AccessRoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	token, exp, err := c.SignAccess(42, 7)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(c.AccessTTL), exp, time.Second)

	claims, err := c.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.TokenVersion)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestCodec_RefreshRoundTrip(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	jti := NewJTI()
	token, exp, err := c.SignRefresh(42, 7, jti)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(c.RefreshTTL), exp, time.Second)

	claims, err := c.ParseRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, 7, claims.TokenVersion)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestCodec_KindsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	c := newTestCodec()

	access, _, err := c.SignAccess(1, 0)
	require.NoError(t, err)
	_, err = c.ParseRefresh(access)
	assert.Error(t, err)

	refresh, _, err := c.SignRefresh(1, 0, NewJTI())
	require.NoError(t, err)
	_, err = c.ParseAccess(refresh)
	assert.Error(t, err)
}

func TestCodec_WrongSecretFails(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	other := &Codec{
		AccessSecret:  []byte("different"),
		RefreshSecret: []byte("different"),
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
	}

	token, _, err := c.SignAccess(1, 0)
	require.NoError(t, err)
	_, err = other.ParseAccess(token)
	assert.Error(t, err)
}

func TestCodec_ExpiredTokenFails(t *testing.T) {
	t.Parallel()

	c := &Codec{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     -time.Minute,
		RefreshTTL:    -time.Minute,
	}

	access, _, err := c.SignAccess(1, 0)
	require.NoError(t, err)
	_, err = c.ParseAccess(access)
	assert.Error(t, err)

	refresh, _, err := c.SignRefresh(1, 0, NewJTI())
	require.NoError(t, err)
	_, err = c.ParseRefresh(refresh)
	assert.Error(t, err)
}

func TestCodec_GarbageFails(t *testing.T) {
	t.Parallel()

	c := newTestCodec()
	_, err := c.ParseAccess("not.a.token")
	assert.Error(t, err)
	_, err = c.ParseRefresh("")
	assert.Error(t, err)
}
