package queue

import (
	"context"
	"sync"
	"time"

	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
)

// MemoryStore 인메모리 매칭 큐. 테스트 및 Redis 없는 로컬 개발용.
// 모든 연산은 뮤텍스로 원자성을 보장하며 RedisStore와 동일한 계약을 따른다.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*models.QueueEntry
}

// NewMemoryStore 인메모리 큐 생성
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*models.QueueEntry),
	}
}

// Enqueue userId 기준 upsert, TTL 재설정
func (s *MemoryStore) Enqueue(_ context.Context, req *models.MatchRequest, ttl time.Duration) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry := &models.QueueEntry{
		Request:   *req,
		ExpiresAt: now.Add(ttl),
	}
	if entry.Request.EnqueuedAt.IsZero() {
		entry.Request.EnqueuedAt = now
	}

	// 재등록 시 원래 대기 시작 시각 보존
	if existing, ok := s.entries[req.UserID]; ok && !existing.Expired(now) {
		entry.Request.EnqueuedAt = existing.Request.EnqueuedAt
	}

	s.entries[req.UserID] = entry

	copied := *entry
	return &copied, nil
}

// Get 살아있는 항목 조회 (없거나 만료 시 nil)
func (s *MemoryStore) Get(_ context.Context, userID string) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[userID]
	if !ok || entry.Expired(time.Now()) {
		return nil, nil
	}

	copied := *entry
	return &copied, nil
}

// Dequeue 항목 제거 (멱등)
func (s *MemoryStore) Dequeue(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[userID]
	delete(s.entries, userID)
	return ok, nil
}

// ListCandidates 살아있는 항목 목록 (호출자 제외, 타입 필터 옵션)
func (s *MemoryStore) ListCandidates(_ context.Context, excludeUserID string, sessionType models.SessionType) ([]*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var entries []*models.QueueEntry

	for _, entry := range s.entries {
		if entry.Expired(now) {
			continue
		}
		if entry.Request.UserID == excludeUserID {
			continue
		}
		if sessionType != "" && entry.Request.SessionType != sessionType {
			continue
		}

		copied := *entry
		entries = append(entries, &copied)
	}

	return entries, nil
}

// TryRemovePair 두 항목이 모두 살아있을 때만 둘 다 제거
func (s *MemoryStore) TryRemovePair(_ context.Context, userIDA, userIDB string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	a, okA := s.entries[userIDA]
	b, okB := s.entries[userIDB]

	if !okA || !okB || a.Expired(now) || b.Expired(now) {
		return false, nil
	}

	delete(s.entries, userIDA)
	delete(s.entries, userIDB)
	return true, nil
}

// BumpAttempts 실패한 매칭 시도 횟수 증가
func (s *MemoryStore) BumpAttempts(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[userID]; ok && !entry.Expired(time.Now()) {
		entry.Attempts++
	}
	return nil
}

// PruneExpired 만료된 항목 일괄 제거
func (s *MemoryStore) PruneExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0

	for userID, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, userID)
			removed++
		}
	}

	return removed, nil
}
