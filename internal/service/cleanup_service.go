package service

import (
	"context"
	"sync"
	"time"

	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/queue"
	"go.uber.org/zap"
)

// SweepLocker 스윕 단일 실행 보장용 락 (nil이면 락 없이 실행)
type SweepLocker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// CleanupService 만료/고아 항목을 정리하는 백그라운드 스윕.
// 요청 트래픽과 독립적인 타이머로 돌고, 일반 dequeue와 같은 원자적
// 삭제 연산만 사용하므로 진행 중인 매칭 시도를 막지 않는다.
type CleanupService struct {
	store    queue.Store
	profiles ProfileStore
	lock     SweepLocker
	logger   *zap.Logger
	interval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex

	lastSweepDuration time.Duration
	lastSweepErrors   int
}

func NewCleanupService(
	store queue.Store,
	profiles ProfileStore,
	lock SweepLocker,
	interval time.Duration,
) *CleanupService {
	logger, _ := zap.NewProduction()
	return &CleanupService{
		store:    store,
		profiles: profiles,
		lock:     lock,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start 주기적 스윕 시작
func (s *CleanupService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("Starting CleanupService", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop 주기적 스윕 중지
func (s *CleanupService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping CleanupService")
	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("CleanupService stopped")
}

// sweepLoop 타이머 기반 스윕 실행
func (s *CleanupService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// 시작 시 한번 실행
	s.runSweep()

	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-s.stopChan:
			return
		}
	}
}

// runSweep 락 획득 후 스윕 1회. 실패는 로그만 남기고 다음 틱에 재시도.
func (s *CleanupService) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			s.logger.Error("Failed to acquire sweep lock", zap.Error(err))
			return
		}
		if !acquired {
			// 다른 인스턴스가 스윕 중
			s.logger.Debug("Sweep lock held by another instance")
			return
		}
		defer func() {
			if err := s.lock.Release(context.Background()); err != nil {
				s.logger.Error("Failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	report := s.Sweep(ctx)
	if report.ExpiredRemoved > 0 || report.OrphanedRemoved > 0 {
		s.logger.Info("Queue sweep completed",
			zap.Int("expiredRemoved", report.ExpiredRemoved),
			zap.Int("orphanedRemoved", report.OrphanedRemoved),
			zap.Int64("durationMs", report.DurationMs))
	}
}

// Sweep 만료 항목과 프로필이 사라진 고아 항목 제거.
// 개별 오류는 집계해 healthStatus에 반영할 뿐 스윕을 중단시키지 않는다.
func (s *CleanupService) Sweep(ctx context.Context) *models.CleanupReport {
	start := time.Now()
	report := &models.CleanupReport{}
	errorCount := 0

	expired, err := s.store.PruneExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to prune expired entries", zap.Error(err))
		errorCount++
	}
	report.ExpiredRemoved = expired

	report.OrphanedRemoved, errorCount = s.removeOrphans(ctx, errorCount)

	report.DurationMs = time.Since(start).Milliseconds()

	s.mu.Lock()
	s.lastSweepDuration = time.Since(start)
	s.lastSweepErrors = errorCount
	s.mu.Unlock()

	return report
}

// removeOrphans 프로필 스토어에서 더 이상 확인되지 않는 사용자의 항목 제거
func (s *CleanupService) removeOrphans(ctx context.Context, errorCount int) (int, int) {
	entries, err := s.store.ListCandidates(ctx, "", "")
	if err != nil {
		s.logger.Error("Failed to list entries for orphan sweep", zap.Error(err))
		return 0, errorCount + 1
	}
	if len(entries) == 0 {
		return 0, errorCount
	}

	userIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		userIDs = append(userIDs, entry.Request.UserID)
	}

	existing, err := s.profiles.ExistingUsers(ctx, userIDs)
	if err != nil {
		s.logger.Error("Failed to resolve users for orphan sweep", zap.Error(err))
		return 0, errorCount + 1
	}

	removed := 0
	for _, userID := range userIDs {
		if existing[userID] {
			continue
		}

		ok, err := s.store.Dequeue(ctx, userID)
		if err != nil {
			s.logger.Error("Failed to remove orphaned entry",
				zap.String("userId", userID),
				zap.Error(err))
			errorCount++
			continue
		}
		if ok {
			removed++
		}
	}

	return removed, errorCount
}

// HealthStatus 큐 깊이, 최장 대기, 마지막 스윕 상태 보고
func (s *CleanupService) HealthStatus(ctx context.Context) (*models.HealthStatus, error) {
	entries, err := s.store.ListCandidates(ctx, "", "")
	if err != nil {
		return nil, err
	}

	status := &models.HealthStatus{
		QueueDepth: len(entries),
	}

	now := time.Now()
	for _, entry := range entries {
		age := now.Sub(entry.Request.EnqueuedAt).Milliseconds()
		if age > status.OldestEntryAgeMs {
			status.OldestEntryAgeMs = age
		}
	}

	s.mu.Lock()
	status.LastSweepDurationMs = s.lastSweepDuration.Milliseconds()
	status.LastSweepErrorCount = s.lastSweepErrors
	s.mu.Unlock()

	return status, nil
}
