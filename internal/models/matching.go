package models

import (
	"errors"
	"time"
)

type SessionType string

const (
	SessionTypeLearning      SessionType = "learning"
	SessionTypeTeaching      SessionType = "teaching"
	SessionTypeCollaboration SessionType = "collaboration"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

var (
	ErrMissingUserID      = errors.New("userId is required")
	ErrNoPreferredSkills  = errors.New("preferredSkills must not be empty")
	ErrInvalidSessionType = errors.New("invalid sessionType")
	ErrInvalidUrgency     = errors.New("invalid urgency")
	ErrInvalidDuration    = errors.New("maxDurationMinutes must be positive")
)

// MatchRequest 매칭 대기 요청
type MatchRequest struct {
	UserID             string      `json:"userId"`
	PreferredSkills    []string    `json:"preferredSkills"`
	SessionType        SessionType `json:"sessionType"`
	MaxDurationMinutes int         `json:"maxDurationMinutes"`
	Urgency            Urgency     `json:"urgency"`
	EnqueuedAt         time.Time   `json:"enqueuedAt"`
}

// Validate 요청 검증 (엔진 진입 전 차단)
func (r *MatchRequest) Validate() error {
	if r.UserID == "" {
		return ErrMissingUserID
	}
	if len(r.PreferredSkills) == 0 {
		return ErrNoPreferredSkills
	}
	switch r.SessionType {
	case SessionTypeLearning, SessionTypeTeaching, SessionTypeCollaboration:
	default:
		return ErrInvalidSessionType
	}
	switch r.Urgency {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
	default:
		return ErrInvalidUrgency
	}
	if r.MaxDurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	return nil
}

// QueueEntry 큐 내부 부기 정보를 포함한 대기 항목
type QueueEntry struct {
	Request   MatchRequest `json:"request"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Attempts  int          `json:"attempts"`
}

// Expired 만료 여부
func (e *QueueEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// ScoreBreakdown 호환성 점수 구성 요소 (각 [0,1])
type ScoreBreakdown struct {
	SkillCompatibility          float64 `json:"skillCompatibility"`
	TimezoneCompatibility       float64 `json:"timezoneCompatibility"`
	AvailabilityCompatibility   float64 `json:"availabilityCompatibility"`
	CommunicationCompatibility  float64 `json:"communicationCompatibility"`
	SessionHistoryCompatibility float64 `json:"sessionHistoryCompatibility"`
	Overall                     float64 `json:"overall"`
}

// MatchResult 매칭 성공 결과
type MatchResult struct {
	PartnerID           string         `json:"partnerId"`
	CompatibilityScore  float64        `json:"compatibilityScore"`
	ScoreBreakdown      ScoreBreakdown `json:"scoreBreakdown"`
	SessionID           string         `json:"sessionId"`
	EstimatedWaitTimeMs int64          `json:"estimatedWaitTimeMs"`
}

// MatchEvent 매칭 커밋 이벤트 (롤링 통계용)
type MatchEvent struct {
	SessionID       string    `json:"sessionId"`
	RequesterID     string    `json:"requesterId"`
	PartnerID       string    `json:"partnerId"`
	Score           float64   `json:"score"`
	RequesterWaitMs int64     `json:"requesterWaitMs"`
	PartnerWaitMs   int64     `json:"partnerWaitMs"`
	MatchedAt       time.Time `json:"matchedAt"`
}
