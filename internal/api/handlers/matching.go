package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/service"
)

type MatchingHandler struct {
	queueService *service.QueueService
	matchmaker   *service.MatchmakerService
	statsService *service.StatsService
	cleanup      *service.CleanupService
}

func NewMatchingHandler(
	queueService *service.QueueService,
	matchmaker *service.MatchmakerService,
	statsService *service.StatsService,
	cleanup *service.CleanupService,
) *MatchingHandler {
	return &MatchingHandler{
		queueService: queueService,
		matchmaker:   matchmaker,
		statsService: statsService,
		cleanup:      cleanup,
	}
}

// Enqueue 대기열 등록
func (h *MatchingHandler) Enqueue(c *gin.Context) {
	var req models.MatchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	position, err := h.queueService.Enqueue(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to join queue",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"position": position,
	})
}

// Dequeue 대기열 이탈
func (h *MatchingHandler) Dequeue(c *gin.Context) {
	userID := c.Param("userId")

	removed, err := h.queueService.Dequeue(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "userId is required",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to leave queue",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"removed": removed,
	})
}

// FindMatch 매칭 시도. 수락 가능한 후보가 없으면 matched=false,
// 요청자는 큐에 남는다.
func (h *MatchingHandler) FindMatch(c *gin.Context) {
	var req models.MatchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	result, err := h.matchmaker.FindMatch(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid match request",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to find match",
		})
		return
	}

	if result == nil {
		c.JSON(http.StatusOK, gin.H{
			"matched": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matched": true,
		"result":  result,
	})
}

// GetStats 큐 통계 조회
func (h *MatchingHandler) GetStats(c *gin.Context) {
	stats, err := h.statsService.GetStats(c.Request.Context())
	if err != nil {
		// 지어낸 숫자 대신 명시적 불가 응답
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "stats unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ForceCleanup 온디맨드 스윕 실행
func (h *MatchingHandler) ForceCleanup(c *gin.Context) {
	report := h.cleanup.Sweep(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

// GetHealthStatus 큐 운영 상태 조회
func (h *MatchingHandler) GetHealthStatus(c *gin.Context) {
	status, err := h.cleanup.HealthStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "health status unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, status)
}
