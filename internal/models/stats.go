package models

// CleanupReport 스윕 1회 실행 결과
type CleanupReport struct {
	ExpiredRemoved  int   `json:"expiredRemoved"`
	OrphanedRemoved int   `json:"orphanedRemoved"`
	DurationMs      int64 `json:"durationMs"`
}

// HealthStatus 큐 운영 상태 스냅샷
type HealthStatus struct {
	QueueDepth          int   `json:"queueDepth"`
	OldestEntryAgeMs    int64 `json:"oldestEntryAgeMs"`
	LastSweepDurationMs int64 `json:"lastSweepDurationMs"`
	LastSweepErrorCount int   `json:"lastSweepErrorCount"`
}

// StatsSnapshot 큐 통계 스냅샷
type StatsSnapshot struct {
	TotalInQueue      int                 `json:"totalInQueue"`
	BySessionType     map[SessionType]int `json:"bySessionType"`
	ByUrgency         map[Urgency]int     `json:"byUrgency"`
	AverageWaitTimeMs int64               `json:"averageWaitTimeMs"`
	MatchesPerHour    int                 `json:"matchesPerHour"`
}
