package models

import "time"

type CommunicationStyle string

const (
	StyleCasual   CommunicationStyle = "casual"
	StyleBalanced CommunicationStyle = "balanced"
	StyleFormal   CommunicationStyle = "formal"
)

// AvailabilityWindow 주간 가용 시간대 (분 단위, 요일별)
type AvailabilityWindow struct {
	Weekday     time.Weekday `json:"weekday"`
	StartMinute int          `json:"startMinute"`
	EndMinute   int          `json:"endMinute"`
}

// SessionRecord 상대방과의 과거 세션 기록
type SessionRecord struct {
	SessionID string    `json:"sessionId"`
	Rating    float64   `json:"rating"` // 1-5
	EndedAt   time.Time `json:"endedAt"`
}

// CandidateProfile 프로필 스토어에서 가져온 읽기 전용 스냅샷.
// SharedSessions는 조회 시점의 상대방(counterpart) 기준 이력이다.
type CandidateProfile struct {
	UserID             string               `json:"userId"`
	SkillLevels        map[string]int       `json:"skillLevels"`    // 1-5
	TimezoneOffset     float64              `json:"timezoneOffset"` // UTC 오프셋 (시간)
	Availability       []AvailabilityWindow `json:"availability"`
	CommunicationStyle CommunicationStyle   `json:"communicationStyle"`
	SharedSessions     []SessionRecord      `json:"sharedSessions"`
}
