package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
)

// RedisStore Redis 기반 매칭 큐.
// 항목은 user별 키에 TTL과 함께 저장하고, 조회용 인덱스 Set을 함께 유지한다.
// 키 TTL이 지나면 Redis가 항목을 자체 만료시키므로 인덱스에 남은 참조는
// 읽기 시점에 걸러지고 스윕이 정리한다.
type RedisStore struct {
	client      *redis.Client
	entryPrefix string
	indexKey    string
	opTimeout   time.Duration
}

// NewRedisStore Redis 매칭 큐 생성
func NewRedisStore(client *redis.Client, opTimeout time.Duration) *RedisStore {
	if opTimeout <= 0 {
		opTimeout = 500 * time.Millisecond
	}
	return &RedisStore{
		client:      client,
		entryPrefix: "matchqueue:entry:",
		indexKey:    "matchqueue:index",
		opTimeout:   opTimeout,
	}
}

func (s *RedisStore) entryKey(userID string) string {
	return s.entryPrefix + userID
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

// Enqueue userId 기준 upsert, TTL 재설정
func (s *RedisStore) Enqueue(ctx context.Context, req *models.MatchRequest, ttl time.Duration) (*models.QueueEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now()
	entry := &models.QueueEntry{
		Request:   *req,
		ExpiresAt: now.Add(ttl),
	}
	if entry.Request.EnqueuedAt.IsZero() {
		entry.Request.EnqueuedAt = now
	}

	// 재등록 시 원래 대기 시작 시각 보존
	if existing, err := s.Get(ctx, req.UserID); err == nil && existing != nil {
		entry.Request.EnqueuedAt = existing.Request.EnqueuedAt
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.entryKey(req.UserID), data, ttl)
	pipe.SAdd(ctx, s.indexKey, req.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue: %w", err)
	}

	return entry, nil
}

// Get 살아있는 항목 조회 (없거나 만료 시 nil)
func (s *RedisStore) Get(ctx context.Context, userID string) (*models.QueueEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.client.Get(ctx, s.entryKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	var entry models.QueueEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}

	if entry.Expired(time.Now()) {
		return nil, nil
	}
	return &entry, nil
}

// Dequeue 항목 제거 (멱등)
func (s *RedisStore) Dequeue(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.entryKey(userID))
	pipe.SRem(ctx, s.indexKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to dequeue: %w", err)
	}

	return del.Val() > 0, nil
}

// ListCandidates 살아있는 항목 목록 (호출자 제외, 타입 필터 옵션)
func (s *RedisStore) ListCandidates(ctx context.Context, excludeUserID string, sessionType models.SessionType) ([]*models.QueueEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	userIDs, err := s.client.SMembers(ctx, s.indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue index: %w", err)
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = s.entryKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue entries: %w", err)
	}

	now := time.Now()
	var entries []*models.QueueEntry
	var stale []interface{}

	for i, value := range values {
		if value == nil {
			// 키가 만료됨. 인덱스 참조는 스윕이 정리하지만 모아서 즉시 제거.
			stale = append(stale, userIDs[i])
			continue
		}

		var entry models.QueueEntry
		if err := json.Unmarshal([]byte(value.(string)), &entry); err != nil {
			continue
		}

		// 읽기 시점 만료 필터
		if entry.Expired(now) {
			continue
		}
		if entry.Request.UserID == excludeUserID {
			continue
		}
		if sessionType != "" && entry.Request.SessionType != sessionType {
			continue
		}

		entries = append(entries, &entry)
	}

	if len(stale) > 0 {
		// best-effort, 실패해도 다음 스윕에서 정리됨
		s.client.SRem(ctx, s.indexKey, stale...)
	}

	return entries, nil
}

// tryRemovePairScript 두 항목이 모두 존재할 때만 둘 다 제거
var tryRemovePairScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) + redis.call('EXISTS', KEYS[2]) == 2 then
		redis.call('DEL', KEYS[1], KEYS[2])
		redis.call('SREM', KEYS[3], ARGV[1], ARGV[2])
		return 1
	end
	return 0
`)

// TryRemovePair 원자적 dual-delete. 둘 중 하나라도 없으면 false.
func (s *RedisStore) TryRemovePair(ctx context.Context, userIDA, userIDB string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	result, err := tryRemovePairScript.Run(ctx, s.client,
		[]string{s.entryKey(userIDA), s.entryKey(userIDB), s.indexKey},
		userIDA, userIDB,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to remove pair: %w", err)
	}

	return result == 1, nil
}

// bumpAttemptsScript attempts 증가, 남은 TTL 유지
var bumpAttemptsScript = redis.NewScript(`
	local data = redis.call('GET', KEYS[1])
	if not data then
		return 0
	end
	local entry = cjson.decode(data)
	entry.attempts = (entry.attempts or 0) + 1
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl > 0 then
		redis.call('SET', KEYS[1], cjson.encode(entry), 'PX', ttl)
	end
	return entry.attempts
`)

// BumpAttempts 실패한 매칭 시도 횟수 증가
func (s *RedisStore) BumpAttempts(ctx context.Context, userID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := bumpAttemptsScript.Run(ctx, s.client, []string{s.entryKey(userID)}).Err(); err != nil {
		return fmt.Errorf("failed to bump attempts: %w", err)
	}
	return nil
}

// PruneExpired 만료된 항목과 죽은 인덱스 참조 제거
func (s *RedisStore) PruneExpired(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	userIDs, err := s.client.SMembers(ctx, s.indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue index: %w", err)
	}

	now := time.Now()
	removed := 0

	for _, id := range userIDs {
		data, err := s.client.Get(ctx, s.entryKey(id)).Result()
		if err == redis.Nil {
			// 키는 TTL로 이미 만료됨, 인덱스 참조만 정리
			if err := s.client.SRem(ctx, s.indexKey, id).Err(); err == nil {
				removed++
			}
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("failed to read entry: %w", err)
		}

		var entry models.QueueEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil || entry.Expired(now) {
			pipe := s.client.TxPipeline()
			pipe.Del(ctx, s.entryKey(id))
			pipe.SRem(ctx, s.indexKey, id)
			if _, err := pipe.Exec(ctx); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}
