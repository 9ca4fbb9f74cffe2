package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
)

// EventLog 매칭 커밋 이벤트의 롤링 로그. 통계 집계 전용으로
// 매칭 핫패스와 독립적이다.
type EventLog interface {
	// Record 매칭 커밋 이벤트 기록
	Record(ctx context.Context, event *models.MatchEvent) error

	// Recent 최근 window 내 이벤트 (최신순, 최대 limit개)
	Recent(ctx context.Context, window time.Duration, limit int) ([]*models.MatchEvent, error)
}

// RedisEventLog Redis Sorted Set 기반 이벤트 로그 (score = 매칭 시각 ms)
type RedisEventLog struct {
	client    *redis.Client
	key       string
	retention time.Duration
	opTimeout time.Duration
}

// NewRedisEventLog Redis 이벤트 로그 생성
func NewRedisEventLog(client *redis.Client, opTimeout time.Duration) *RedisEventLog {
	if opTimeout <= 0 {
		opTimeout = 500 * time.Millisecond
	}
	return &RedisEventLog{
		client:    client,
		key:       "matchqueue:events",
		retention: 2 * time.Hour,
		opTimeout: opTimeout,
	}
}

// Record 이벤트 추가 후 보존 기간 밖 이벤트 정리
func (l *RedisEventLog) Record(ctx context.Context, event *models.MatchEvent) error {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	if event.MatchedAt.IsZero() {
		event.MatchedAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	cutoff := event.MatchedAt.Add(-l.retention).UnixMilli()

	pipe := l.client.TxPipeline()
	pipe.ZAdd(ctx, l.key, redis.Z{
		Score:  float64(event.MatchedAt.UnixMilli()),
		Member: data,
	})
	pipe.ZRemRangeByScore(ctx, l.key, "-inf", strconv.FormatInt(cutoff, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

// Recent 최근 window 내 이벤트 조회
func (l *RedisEventLog) Recent(ctx context.Context, window time.Duration, limit int) ([]*models.MatchEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	min := strconv.FormatInt(time.Now().Add(-window).UnixMilli(), 10)

	values, err := l.client.ZRevRangeByScore(ctx, l.key, &redis.ZRangeBy{
		Min:   min,
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	events := make([]*models.MatchEvent, 0, len(values))
	for _, value := range values {
		var event models.MatchEvent
		if err := json.Unmarshal([]byte(value), &event); err != nil {
			continue
		}
		events = append(events, &event)
	}

	return events, nil
}

// MemoryEventLog 인메모리 이벤트 로그 (테스트용 링 버퍼)
type MemoryEventLog struct {
	mu     sync.Mutex
	events []*models.MatchEvent
	cap    int
}

// NewMemoryEventLog 인메모리 이벤트 로그 생성
func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{cap: 1000}
}

// Record 이벤트 추가
func (l *MemoryEventLog) Record(_ context.Context, event *models.MatchEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.MatchedAt.IsZero() {
		event.MatchedAt = time.Now()
	}

	copied := *event
	l.events = append(l.events, &copied)
	if len(l.events) > l.cap {
		l.events = l.events[len(l.events)-l.cap:]
	}
	return nil
}

// Recent 최근 window 내 이벤트 조회 (최신순)
func (l *MemoryEventLog) Recent(_ context.Context, window time.Duration, limit int) ([]*models.MatchEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-window)
	var events []*models.MatchEvent

	for i := len(l.events) - 1; i >= 0 && len(events) < limit; i-- {
		if l.events[i].MatchedAt.Before(cutoff) {
			continue
		}
		copied := *l.events[i]
		events = append(events, &copied)
	}

	return events, nil
}
