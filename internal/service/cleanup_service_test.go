package service

import (
	"context"
	"testing"
	"time"

	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupService_SweepRemovesExpired(t *testing.T) {
	store := queue.NewMemoryStore()
	profiles := newFakeProfileStore()
	ctx := context.Background()

	profiles.profiles["expired"] = profileWithLevel("expired", 3)
	profiles.profiles["live"] = profileWithLevel("live", 3)

	_, err := store.Enqueue(ctx, learningRequest("expired"), 5*time.Millisecond)
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, learningRequest("live"), time.Minute)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	cleanup := NewCleanupService(store, profiles, nil, time.Minute)
	report := cleanup.Sweep(ctx)

	assert.Equal(t, 1, report.ExpiredRemoved)
	assert.Equal(t, 0, report.OrphanedRemoved)
	assert.GreaterOrEqual(t, report.DurationMs, int64(0))

	// 살아있는 항목은 유지
	entry, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestCleanupService_SweepRemovesOrphans(t *testing.T) {
	store := queue.NewMemoryStore()
	profiles := newFakeProfileStore()
	ctx := context.Background()

	// "ghost"는 프로필 스토어에서 더 이상 확인되지 않음
	profiles.profiles["known"] = profileWithLevel("known", 3)

	_, err := store.Enqueue(ctx, learningRequest("known"), time.Minute)
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, learningRequest("ghost"), time.Minute)
	require.NoError(t, err)

	cleanup := NewCleanupService(store, profiles, nil, time.Minute)
	report := cleanup.Sweep(ctx)

	assert.Equal(t, 0, report.ExpiredRemoved)
	assert.Equal(t, 1, report.OrphanedRemoved)

	entry, err := store.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = store.Get(ctx, "known")
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestCleanupService_SweepErrorsAreCountedNotFatal(t *testing.T) {
	store := queue.NewMemoryStore()
	profiles := newFakeProfileStore()
	ctx := context.Background()

	_, err := store.Enqueue(ctx, learningRequest("user1"), time.Minute)
	require.NoError(t, err)

	profiles.err = assert.AnError

	cleanup := NewCleanupService(store, profiles, nil, time.Minute)
	report := cleanup.Sweep(ctx)

	// 프로필 스토어 장애 → 고아 스윕 생략, 프로세스는 계속
	assert.Equal(t, 0, report.OrphanedRemoved)

	status, err := cleanup.HealthStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.LastSweepErrorCount)
	assert.Equal(t, 1, status.QueueDepth)
}

func TestCleanupService_HealthStatus(t *testing.T) {
	store := queue.NewMemoryStore()
	profiles := newFakeProfileStore()
	ctx := context.Background()

	profiles.profiles["user1"] = profileWithLevel("user1", 3)

	_, err := store.Enqueue(ctx, learningRequest("user1"), time.Minute)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	cleanup := NewCleanupService(store, profiles, nil, time.Minute)
	cleanup.Sweep(ctx)

	status, err := cleanup.HealthStatus(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, status.QueueDepth)
	assert.Greater(t, status.OldestEntryAgeMs, int64(0))
	assert.Equal(t, 0, status.LastSweepErrorCount)
}

func TestCleanupService_StartStop(t *testing.T) {
	store := queue.NewMemoryStore()
	profiles := newFakeProfileStore()

	_, err := store.Enqueue(context.Background(), learningRequest("expired"), time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	cleanup := NewCleanupService(store, profiles, nil, 10*time.Millisecond)
	cleanup.Start()
	cleanup.Start() // 중복 시작은 no-op

	time.Sleep(25 * time.Millisecond)
	cleanup.Stop()
	cleanup.Stop() // 중복 중지는 no-op

	// 시작 직후 1회 + 주기 실행으로 만료 항목이 사라짐
	entries, err := store.ListCandidates(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
