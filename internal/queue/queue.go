package queue

import (
	"context"
	"time"

	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
)

// Store 매칭 큐 스토어 인터페이스.
// 동기화 수단은 원자적 upsert / delete / 조건부 dual-delete 뿐이며
// 장시간 락은 사용하지 않는다. ListCandidates는 TTL이 지난 항목을
// 스윕 지연과 무관하게 읽기 시점에 걸러내야 한다.
type Store interface {
	// Enqueue userId 기준 upsert. TTL을 재설정하고 저장된 항목을 반환한다.
	// 기존 항목이 있으면 EnqueuedAt은 보존된다 (대기 순서 공정성).
	Enqueue(ctx context.Context, req *models.MatchRequest, ttl time.Duration) (*models.QueueEntry, error)

	// Get 살아있는 항목 조회 (없거나 만료 시 nil)
	Get(ctx context.Context, userID string) (*models.QueueEntry, error)

	// Dequeue 항목 제거. 멱등, 제거 여부 반환.
	Dequeue(ctx context.Context, userID string) (bool, error)

	// ListCandidates 호출자 본인을 제외한 살아있는 항목 목록.
	// sessionType이 비어있지 않으면 해당 타입만 반환.
	ListCandidates(ctx context.Context, excludeUserID string, sessionType models.SessionType) ([]*models.QueueEntry, error)

	// TryRemovePair 두 항목이 모두 존재할 때만 둘 다 제거 (원자적).
	// 하나라도 이미 제거되었으면 false (stale 후보, 다음 후보로 재시도).
	TryRemovePair(ctx context.Context, userIDA, userIDB string) (bool, error)

	// BumpAttempts 실패한 매칭 시도 횟수 증가 (관측용, TTL 유지)
	BumpAttempts(ctx context.Context, userID string) error

	// PruneExpired 만료된 항목 일괄 제거, 제거 개수 반환 (스윕 전용)
	PruneExpired(ctx context.Context) (int, error)
}

// TTLFor urgency에 따른 대기 TTL 계산. 급할수록 짧게 만료시키고
// ceiling을 넘지 않는다.
func TTLFor(urgency models.Urgency, base, ceiling time.Duration) time.Duration {
	var ttl time.Duration
	switch urgency {
	case models.UrgencyHigh:
		ttl = base / 2
	case models.UrgencyLow:
		ttl = base + base/2
	default:
		ttl = base
	}

	if ceiling > 0 && ttl > ceiling {
		ttl = ceiling
	}
	return ttl
}
