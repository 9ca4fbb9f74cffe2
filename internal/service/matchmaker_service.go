package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/queue"
	"go.uber.org/zap"
)

// ProfileStore 외부 프로필 스토어 (읽기 전용 협력자)
type ProfileStore interface {
	// GetProfile counterpart와의 세션 이력을 포함한 프로필 스냅샷.
	// 프로필이 없으면 (nil, nil).
	GetProfile(ctx context.Context, userID, counterpartID string) (*models.CandidateProfile, error)

	// ExistingUsers 주어진 ID 중 존재하는 사용자 집합
	ExistingUsers(ctx context.Context, userIDs []string) (map[string]bool, error)
}

// MatchmakerService 매칭 시도 오케스트레이션: 후보 조회 → 점수 계산 →
// 최적 후보 선택 → 원자적 dual-remove 커밋.
// 점수 계산은 읽기 전용이라 stale 스냅샷 위에서 경합해도 되고,
// 정확성은 오직 원자적 제거가 보장한다.
type MatchmakerService struct {
	store      queue.Store
	events     queue.EventLog
	profiles   ProfileStore
	scorer     *CompatibilityScorer
	logger     *zap.Logger
	threshold  float64
	maxRetries int
}

func NewMatchmakerService(
	store queue.Store,
	events queue.EventLog,
	profiles ProfileStore,
	scorer *CompatibilityScorer,
	threshold float64,
	maxRetries int,
) *MatchmakerService {
	logger, _ := zap.NewProduction()
	return &MatchmakerService{
		store:      store,
		events:     events,
		profiles:   profiles,
		scorer:     scorer,
		logger:     logger,
		threshold:  threshold,
		maxRetries: maxRetries,
	}
}

type scoredCandidate struct {
	entry     *models.QueueEntry
	breakdown models.ScoreBreakdown
}

// FindMatch 매칭 시도. 수락 가능한 후보가 없으면 (nil, nil)을 반환하고
// 요청자 항목은 큐에 남는다 (pull 방식: 호출자가 재시도하거나 다른
// 사용자의 pull에서 매칭됨). 스토어 일시 장애도 (nil, nil)로 처리한다.
func (s *MatchmakerService) FindMatch(ctx context.Context, req *models.MatchRequest) (*models.MatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, ErrInvalidInput
	}

	// 커밋 전에 대기 시작 시각 확보 (커밋 후에는 항목이 사라짐)
	enqueuedAt := req.EnqueuedAt
	if entry, err := s.store.Get(ctx, req.UserID); err == nil && entry != nil {
		enqueuedAt = entry.Request.EnqueuedAt
	}
	if enqueuedAt.IsZero() {
		enqueuedAt = time.Now()
	}

	candidates, err := s.store.ListCandidates(ctx, req.UserID, req.SessionType)
	if err != nil {
		s.logger.Warn("Failed to list candidates", zap.Error(err))
		return nil, nil
	}
	if len(candidates) == 0 {
		s.noMatch(ctx, req.UserID)
		return nil, nil
	}

	// 요청자 프로필 조회 실패는 점수 구성 요소의 중립값으로 강등
	requesterProfile, err := s.profiles.GetProfile(ctx, req.UserID, "")
	if err != nil {
		s.logger.Warn("Failed to fetch requester profile",
			zap.String("userId", req.UserID),
			zap.Error(err))
		requesterProfile = nil
	}

	ranked := s.rankCandidates(ctx, req, requesterProfile, candidates)
	if len(ranked) == 0 {
		s.noMatch(ctx, req.UserID)
		return nil, nil
	}

	// 점수 계산은 경합 가능하지만 커밋은 원자적 제거를 통해서만 이루어지므로
	// 동시 FindMatch가 같은 후보를 둘 다 차지할 수 없다.
	retries := 0
	for _, candidate := range ranked {
		if retries >= s.maxRetries {
			break
		}

		partnerID := candidate.entry.Request.UserID

		removed, err := s.store.TryRemovePair(ctx, req.UserID, partnerID)
		if err != nil {
			s.logger.Warn("Failed to commit match", zap.Error(err))
			break
		}
		if !removed {
			// stale 후보: 동시 호출이 먼저 가져감, 다음 후보로
			retries++
			s.logger.Debug("Candidate already claimed",
				zap.String("userId", req.UserID),
				zap.String("candidate", partnerID))
			continue
		}

		return s.commitResult(ctx, req, candidate, enqueuedAt), nil
	}

	s.noMatch(ctx, req.UserID)
	return nil, nil
}

// rankCandidates 후보 점수 계산 후 임계값 필터링 및 정렬.
// 동점은 먼저 등록된 쪽이 우선 (공정성).
func (s *MatchmakerService) rankCandidates(
	ctx context.Context,
	req *models.MatchRequest,
	requesterProfile *models.CandidateProfile,
	candidates []*models.QueueEntry,
) []scoredCandidate {
	ranked := make([]scoredCandidate, 0, len(candidates))

	for _, entry := range candidates {
		candidateProfile, err := s.profiles.GetProfile(ctx, entry.Request.UserID, req.UserID)
		if err != nil {
			// 일시 장애: 이번 라운드는 해당 후보 제외
			s.logger.Debug("Skipping candidate, profile fetch failed",
				zap.String("candidate", entry.Request.UserID),
				zap.Error(err))
			continue
		}

		breakdown := s.scorer.Score(req, requesterProfile, &entry.Request, candidateProfile)
		if breakdown.Overall < s.threshold {
			continue
		}

		ranked = append(ranked, scoredCandidate{entry: entry, breakdown: breakdown})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].breakdown.Overall != ranked[j].breakdown.Overall {
			return ranked[i].breakdown.Overall > ranked[j].breakdown.Overall
		}
		return ranked[i].entry.Request.EnqueuedAt.Before(ranked[j].entry.Request.EnqueuedAt)
	})

	return ranked
}

// commitResult 커밋된 매칭의 결과 구성 및 이벤트 기록
func (s *MatchmakerService) commitResult(
	ctx context.Context,
	req *models.MatchRequest,
	candidate scoredCandidate,
	enqueuedAt time.Time,
) *models.MatchResult {
	now := time.Now()
	partnerID := candidate.entry.Request.UserID

	result := &models.MatchResult{
		PartnerID:           partnerID,
		CompatibilityScore:  candidate.breakdown.Overall,
		ScoreBreakdown:      candidate.breakdown,
		SessionID:           uuid.New().String(),
		EstimatedWaitTimeMs: now.Sub(enqueuedAt).Milliseconds(),
	}

	event := &models.MatchEvent{
		SessionID:       result.SessionID,
		RequesterID:     req.UserID,
		PartnerID:       partnerID,
		Score:           result.CompatibilityScore,
		RequesterWaitMs: result.EstimatedWaitTimeMs,
		PartnerWaitMs:   now.Sub(candidate.entry.Request.EnqueuedAt).Milliseconds(),
		MatchedAt:       now,
	}
	if err := s.events.Record(ctx, event); err != nil {
		// 통계 로그 실패가 매칭을 되돌리지는 않음
		s.logger.Warn("Failed to record match event", zap.Error(err))
	}

	s.logger.Info("Match committed",
		zap.String("requester", req.UserID),
		zap.String("partner", partnerID),
		zap.String("sessionId", result.SessionID),
		zap.Float64("score", result.CompatibilityScore))

	return result
}

// noMatch 실패한 시도 횟수 기록 (best effort)
func (s *MatchmakerService) noMatch(ctx context.Context, userID string) {
	if err := s.store.BumpAttempts(ctx, userID); err != nil {
		s.logger.Debug("Failed to bump attempts", zap.Error(err))
	}
}
