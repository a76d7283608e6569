package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionService(t *testing.T) {
	t.Parallel()

	user := testUser()
	store := newMemStore(user)
	sessions := NewSessionService(store)

	t.Run("resolve after create returns the same user", func(t *testing.T) {
		sessionID, err := sessions.Create(user.ID)
		require.NoError(t, err)
		require.NotEmpty(t, sessionID)

		resolved, err := sessions.Resolve(context.Background(), sessionID)
		require.NoError(t, err)
		require.Equal(t, user.ID, resolved.ID)
	})

	t.Run("resolve reflects live profile state", func(t *testing.T) {
		sessionID, err := sessions.Create(user.ID)
		require.NoError(t, err)

		updated := user
		updated.LastName = "Byron"
		require.NoError(t, store.UpdateProfile(context.Background(), updated))

		resolved, err := sessions.Resolve(context.Background(), sessionID)
		require.NoError(t, err)
		require.Equal(t, "Byron", resolved.LastName)
	})

	t.Run("resolve after destroy fails", func(t *testing.T) {
		sessionID, err := sessions.Create(user.ID)
		require.NoError(t, err)

		sessions.Destroy(sessionID)

		_, err = sessions.Resolve(context.Background(), sessionID)
		require.Error(t, err)
	})

	t.Run("destroy is idempotent", func(t *testing.T) {
		require.NotPanics(t, func() {
			sessions.Destroy("no-such-session")
			sessions.Destroy("no-such-session")
		})
	})

	t.Run("session ids are unique", func(t *testing.T) {
		first, err := sessions.Create(user.ID)
		require.NoError(t, err)
		second, err := sessions.Create(user.ID)
		require.NoError(t, err)
		require.NotEqual(t, first, second)
	})
}

func TestSessionService_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	user := testUser()
	sessions := NewSessionService(newMemStore(user))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			sessionID, err := sessions.Create(user.ID)
			require.NoError(t, err)

			_, err = sessions.Resolve(context.Background(), sessionID)
			require.NoError(t, err)

			sessions.Destroy(sessionID)
		}()
	}
	wg.Wait()
}
