package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixchat/sixchat-backend/internal/auth/domain"
	"github.com/sixchat/sixchat-backend/internal/backend/memory"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(memory.NewStore())

	require.NoError(t, repo.Create(ctx, "uid-1", "111111"))

	p, err := repo.GetByNumber(ctx, "111111")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", p.UID)
	assert.Equal(t, "", p.DisplayName)
	assert.False(t, p.CreatedAt.IsZero())

	_, err = repo.GetByNumber(ctx, "999999")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetByUID(ctx, "uid-404")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_UpdateDisplayNameKeepsNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(memory.NewStore())
	require.NoError(t, repo.Create(ctx, "uid-1", "111111"))

	require.NoError(t, repo.UpdateDisplayName(ctx, "uid-1", "Ana"))

	p, err := repo.GetByUID(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "111111", p.Number)
	assert.Equal(t, "Ana", p.DisplayName)
}

func TestUserRepository_SubscribeMissingThenCreated(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(memory.NewStore())

	var mu sync.Mutex
	var got []*domain.Profile
	stop := repo.Subscribe(ctx, "uid-1", func(p *domain.Profile, err error) {
		assert.NoError(t, err)
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	})
	defer stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == nil
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, repo.Create(ctx, "uid-1", "111111"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		last := got[len(got)-1]
		return last != nil && last.Number == "111111"
	}, 2*time.Second, 5*time.Millisecond)
}
