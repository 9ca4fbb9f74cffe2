package distributed

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotHeld = errors.New("lock not held")
)

// SweepLock Redis SET NX 기반 락. 여러 인스턴스 중 하나만 큐 스윕을
// 실행하도록 보장한다. TTL이 있어 보유 인스턴스가 죽어도 자동 해제된다.
type SweepLock struct {
	client *redis.Client
	key    string
	holder string // 인스턴스 고유 ID
	ttl    time.Duration
}

// NewSweepLock 스윕 락 생성
func NewSweepLock(client *redis.Client, key string, ttl time.Duration) *SweepLock {
	return &SweepLock{
		client: client,
		key:    key,
		holder: uuid.New().String(),
		ttl:    ttl,
	}
}

// Acquire 락 획득 시도. 다른 인스턴스가 보유 중이면 false.
func (l *SweepLock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.holder, l.ttl).Result()
}

// releaseScript 자신이 획득한 락만 해제
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Release 락 해제 (Lua 스크립트로 안전하게)
func (l *SweepLock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.holder).Int()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// IsHeld 자신이 현재 락을 보유 중인지 확인
func (l *SweepLock) IsHeld(ctx context.Context) (bool, error) {
	value, err := l.client.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == l.holder, nil
}
