package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebigwealth89/socialblog/pkg/domain"
)

var testUser = domain.User{ID: "u1", Username: "ada", Email: "ada@example.com"}

func TestNewEmptyStore(t *testing.T) {
	s := New(NewMemoryStore())
	_, ok := s.Get()
	assert.False(t, ok)
	assert.Empty(t, s.Token())
}

func TestSetPersistsBothKeys(t *testing.T) {
	store := NewMemoryStore()
	s := New(store)

	require.NoError(t, s.Set(testUser, "T1"))

	snap, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "T1", snap.Token)
	assert.Equal(t, "ada", snap.User.Username)

	tok, err := store.Get(KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "T1", tok)

	raw, err := store.Get(KeyUser)
	require.NoError(t, err)
	var u domain.User
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.Equal(t, testUser.ID, u.ID)
}

func TestNewLoadsPersistedSession(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, New(store).Set(testUser, "T1"))

	snap, ok := New(store).Get()
	require.True(t, ok)
	assert.Equal(t, "T1", snap.Token)
	assert.Equal(t, "u1", snap.User.ID)
}

func TestNewDiscardsHalfSession(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"token only", map[string]string{KeyAccessToken: "T1"}},
		{"user only", map[string]string{KeyUser: `{"id":"u1"}`}},
		{"corrupt user", map[string]string{KeyAccessToken: "T1", KeyUser: "{not json"}},
		{"undefined user", map[string]string{KeyAccessToken: "T1", KeyUser: "undefined"}},
		{"empty token", map[string]string{KeyAccessToken: "", KeyUser: `{"id":"u1"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			for k, v := range tt.values {
				require.NoError(t, store.Set(k, v))
			}

			s := New(store)
			_, ok := s.Get()
			assert.False(t, ok)
			assert.Empty(t, s.Token())

			_, err := store.Get(KeyAccessToken)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = store.Get(KeyUser)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestClearRemovesBoth(t *testing.T) {
	store := NewMemoryStore()
	s := New(store)
	require.NoError(t, s.Set(testUser, "T1"))
	require.NoError(t, store.Set(KeyCookies, "[]"))

	require.NoError(t, s.Clear())

	_, ok := s.Get()
	assert.False(t, ok)
	_, err := store.Get(KeyAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(KeyCookies)
	assert.NoError(t, err, "cookies are not session state")
}

// slowStore widens the window between the memory update and the write.
type slowStore struct {
	Store
}

func (s slowStore) Set(key, value string) error {
	time.Sleep(100 * time.Microsecond)
	return s.Store.Set(key, value)
}

func (s slowStore) Delete(keys ...string) error {
	time.Sleep(100 * time.Microsecond)
	return s.Store.Delete(keys...)
}

func TestConcurrentSetAndClearKeepStoreInStep(t *testing.T) {
	store := NewMemoryStore()
	s := New(slowStore{store})

	for range 50 {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set(testUser, "T1")
		}()
		go func() {
			defer wg.Done()
			_ = s.Clear()
		}()
		wg.Wait()

		_, inMemory := s.Get()
		_, err := store.Get(KeyAccessToken)
		assert.Equal(t, inMemory, err == nil, "token on disk")
		_, err = store.Get(KeyUser)
		assert.Equal(t, inMemory, err == nil, "user on disk")

		_, reloaded := New(store).Get()
		require.Equal(t, inMemory, reloaded)
	}
}

func TestSetTokenRequiresUser(t *testing.T) {
	s := New(NewMemoryStore())
	assert.ErrorIs(t, s.SetToken("T2"), ErrNoSession)
	assert.Empty(t, s.Token())

	require.NoError(t, s.Set(testUser, "T1"))
	require.NoError(t, s.SetToken("T2"))
	snap, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, "T2", snap.Token)
	assert.Equal(t, "u1", snap.User.ID)
}

func TestOnChange(t *testing.T) {
	s := New(NewMemoryStore())

	type event struct {
		token string
		ok    bool
	}
	var events []event
	unsubscribe := s.OnChange(func(snap Snapshot, ok bool) {
		events = append(events, event{snap.Token, ok})
	})

	require.NoError(t, s.Set(testUser, "T1"))
	require.NoError(t, s.SetToken("T1")) // unchanged, no event
	require.NoError(t, s.SetToken("T2"))
	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear()) // already empty, no event

	unsubscribe()
	require.NoError(t, s.Set(testUser, "T3"))

	assert.Equal(t, []event{{"T1", true}, {"T2", true}, {"", false}}, events)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, ok := TokenExpiry(signed)
	require.True(t, ok)
	assert.True(t, got.Equal(exp), "got %v, want %v", got, exp)

	_, ok = TokenExpiry("T1")
	assert.False(t, ok)

	_, ok = Snapshot{Token: signed}.ExpiresAt()
	assert.True(t, ok)
}
