package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/queue"
	"go.uber.org/zap"
)

const (
	statsWindow    = time.Hour
	maxStatsEvents = 1000 // 시간당 매칭 집계 상한
	maxWaitSamples = 100  // 평균 대기 시간 샘플 수
)

// StatsService 큐 상태와 매칭 이벤트 로그에서 통계를 집계한다.
// 읽기 전용이며 큐를 변경하지 않는다. 스토어가 불가하면 숫자를
// 지어내는 대신 명시적으로 실패한다.
type StatsService struct {
	store  queue.Store
	events queue.EventLog
	logger *zap.Logger
}

func NewStatsService(store queue.Store, events queue.EventLog) *StatsService {
	logger, _ := zap.NewProduction()
	return &StatsService{
		store:  store,
		events: events,
		logger: logger,
	}
}

// GetStats 현재 큐 카운트 + 최근 1시간 롤링 매칭 지표
func (s *StatsService) GetStats(ctx context.Context) (*models.StatsSnapshot, error) {
	entries, err := s.store.ListCandidates(ctx, "", "")
	if err != nil {
		s.logger.Warn("Queue store unreachable for stats", zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrStatsUnavailable, err)
	}

	snapshot := &models.StatsSnapshot{
		TotalInQueue:  len(entries),
		BySessionType: make(map[models.SessionType]int),
		ByUrgency:     make(map[models.Urgency]int),
	}

	for _, entry := range entries {
		snapshot.BySessionType[entry.Request.SessionType]++
		snapshot.ByUrgency[entry.Request.Urgency]++
	}

	events, err := s.events.Recent(ctx, statsWindow, maxStatsEvents)
	if err != nil {
		s.logger.Warn("Event log unreachable for stats", zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrStatsUnavailable, err)
	}

	snapshot.MatchesPerHour = len(events)
	snapshot.AverageWaitTimeMs = averageWait(events)

	return snapshot, nil
}

// averageWait 최근 매칭의 요청자/파트너 대기 시간 평균 (샘플 상한 적용)
func averageWait(events []*models.MatchEvent) int64 {
	if len(events) == 0 {
		return 0
	}

	sampled := events
	if len(sampled) > maxWaitSamples {
		sampled = sampled[:maxWaitSamples]
	}

	var sum int64
	for _, event := range sampled {
		sum += event.RequesterWaitMs + event.PartnerWaitMs
	}

	return sum / int64(2*len(sampled))
}
