package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRequest(userID string, sessionType models.SessionType) *models.MatchRequest {
	return &models.MatchRequest{
		UserID:             userID,
		PreferredSkills:    []string{"golang"},
		SessionType:        sessionType,
		MaxDurationMinutes: 60,
		Urgency:            models.UrgencyMedium,
	}
}

func TestMemoryStore_EnqueueUpsert(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.Enqueue(ctx, makeRequest("user1", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	// 같은 사용자 재등록 → 항목 교체, TTL 재설정, 대기 시작 시각 보존
	second, err := store.Enqueue(ctx, makeRequest("user1", models.SessionTypeTeaching), time.Minute)
	require.NoError(t, err)

	assert.Equal(t, first.Request.EnqueuedAt, second.Request.EnqueuedAt)
	assert.True(t, second.ExpiresAt.After(first.ExpiresAt))

	// 살아있는 항목은 정확히 하나
	entries, err := store.ListCandidates(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.SessionTypeTeaching, entries[0].Request.SessionType)
}

func TestMemoryStore_DequeueIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, makeRequest("user1", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)

	removed, err := store.Dequeue(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Dequeue(ctx, "user1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryStore_ListCandidatesFiltersExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, makeRequest("expired", models.SessionTypeLearning), 5*time.Millisecond)
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, makeRequest("live", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	// 스윕이 돌기 전이라도 만료 항목은 읽기 시점에 걸러진다
	entries, err := store.ListCandidates(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "live", entries[0].Request.UserID)

	entry, err := store.Get(ctx, "expired")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestMemoryStore_ListCandidatesExcludeAndFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, makeRequest("caller", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, makeRequest("peer", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, makeRequest("other", models.SessionTypeTeaching), time.Minute)
	require.NoError(t, err)

	entries, err := store.ListCandidates(ctx, "caller", models.SessionTypeLearning)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "peer", entries[0].Request.UserID)
}

func TestMemoryStore_TryRemovePair(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, makeRequest("a", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, makeRequest("b", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)

	removed, err := store.TryRemovePair(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, removed)

	// 둘 다 제거됨
	entryA, _ := store.Get(ctx, "a")
	entryB, _ := store.Get(ctx, "b")
	assert.Nil(t, entryA)
	assert.Nil(t, entryB)

	// 이미 제거된 쌍은 false
	removed, err = store.TryRemovePair(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryStore_TryRemovePairPartialMissing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, makeRequest("a", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)

	// 한쪽이 없으면 어느 쪽도 제거되지 않음 (all-or-nothing)
	removed, err := store.TryRemovePair(ctx, "a", "missing")
	require.NoError(t, err)
	assert.False(t, removed)

	entry, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestMemoryStore_TryRemovePairConcurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, makeRequest("target", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)

	claimers := []string{"c1", "c2", "c3", "c4"}
	for _, id := range claimers {
		_, err := store.Enqueue(ctx, makeRequest(id, models.SessionTypeLearning), time.Minute)
		require.NoError(t, err)
	}

	// 동시에 같은 후보를 노리면 정확히 하나만 성공
	var wg sync.WaitGroup
	successes := make(chan string, len(claimers))

	for _, id := range claimers {
		wg.Add(1)
		go func(claimer string) {
			defer wg.Done()
			ok, err := store.TryRemovePair(ctx, claimer, "target")
			assert.NoError(t, err)
			if ok {
				successes <- claimer
			}
		}(id)
	}

	wg.Wait()
	close(successes)

	var winners []string
	for winner := range successes {
		winners = append(winners, winner)
	}
	require.Len(t, winners, 1)

	// 승자와 target만 제거됨
	entries, err := store.ListCandidates(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, entries, len(claimers)-1)
}

func TestMemoryStore_BumpAttempts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, makeRequest("user1", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.BumpAttempts(ctx, "user1"))
	require.NoError(t, store.BumpAttempts(ctx, "user1"))

	entry, err := store.Get(ctx, "user1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Attempts)

	// 없는 사용자에 대해서는 no-op
	assert.NoError(t, store.BumpAttempts(ctx, "missing"))
}

func TestMemoryStore_PruneExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, makeRequest("expired1", models.SessionTypeLearning), 5*time.Millisecond)
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, makeRequest("expired2", models.SessionTypeTeaching), 5*time.Millisecond)
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, makeRequest("live", models.SessionTypeLearning), time.Minute)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	removed, err := store.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entry, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestTTLFor(t *testing.T) {
	base := 10 * time.Minute
	ceiling := 12 * time.Minute

	tests := []struct {
		name     string
		urgency  models.Urgency
		expected time.Duration
	}{
		{"high urgency expires sooner", models.UrgencyHigh, 5 * time.Minute},
		{"medium urgency uses base", models.UrgencyMedium, 10 * time.Minute},
		{"low urgency capped by ceiling", models.UrgencyLow, 12 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := TTLFor(tt.urgency, base, ceiling)
			if actual != tt.expected {
				t.Errorf("TTLFor(%s) = %v, want %v", tt.urgency, actual, tt.expected)
			}
		})
	}
}
