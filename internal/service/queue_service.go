package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/queue"
	"go.uber.org/zap"
)

// QueueService 대기열 등록/이탈 및 클라이언트 피드백용 위치 추정
type QueueService struct {
	store      queue.Store
	logger     *zap.Logger
	ttlBase    time.Duration
	ttlCeiling time.Duration
}

func NewQueueService(store queue.Store, ttlBase, ttlCeiling time.Duration) *QueueService {
	logger, _ := zap.NewProduction()
	return &QueueService{
		store:      store,
		logger:     logger,
		ttlBase:    ttlBase,
		ttlCeiling: ttlCeiling,
	}
}

// Enqueue 대기열 등록 (같은 userId는 교체되고 TTL이 재설정됨).
// 반환값은 같은 sessionType에서 먼저 등록된 살아있는 항목 수 (위치 추정).
func (s *QueueService) Enqueue(ctx context.Context, req *models.MatchRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	ttl := queue.TTLFor(req.Urgency, s.ttlBase, s.ttlCeiling)

	entry, err := s.store.Enqueue(ctx, req, ttl)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue: %w", err)
	}

	s.logger.Debug("User enqueued",
		zap.String("userId", req.UserID),
		zap.String("sessionType", string(req.SessionType)),
		zap.Duration("ttl", ttl))

	// 위치 추정 실패는 등록 성공에 영향 없음
	candidates, err := s.store.ListCandidates(ctx, req.UserID, req.SessionType)
	if err != nil {
		s.logger.Warn("Failed to estimate queue position", zap.Error(err))
		return 0, nil
	}

	position := 0
	for _, candidate := range candidates {
		if candidate.Request.EnqueuedAt.Before(entry.Request.EnqueuedAt) {
			position++
		}
	}

	return position, nil
}

// Dequeue 대기열 이탈 (멱등)
func (s *QueueService) Dequeue(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidInput
	}

	removed, err := s.store.Dequeue(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to dequeue: %w", err)
	}

	if removed {
		s.logger.Debug("User dequeued", zap.String("userId", userID))
	}

	return removed, nil
}
