package service

import (
	"testing"
	"time"

	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSkillGapScore(t *testing.T) {
	tests := []struct {
		name        string
		sessionType models.SessionType
		gap         int // 후보 레벨 - 요청자 레벨
		expected    float64
	}{
		{"learning - ideal gap of 2", models.SessionTypeLearning, 2, 1.0},
		{"learning - gap of 1", models.SessionTypeLearning, 1, 0.75},
		{"learning - gap of 3", models.SessionTypeLearning, 3, 0.75},
		{"learning - equal levels", models.SessionTypeLearning, 0, 0.2},
		{"learning - candidate below requester", models.SessionTypeLearning, -2, 0.2},
		{"learning - gap too wide", models.SessionTypeLearning, 4, 0.2},
		{"teaching - requester 2 above candidate", models.SessionTypeTeaching, -2, 1.0},
		{"teaching - requester 1 above candidate", models.SessionTypeTeaching, -1, 0.75},
		{"teaching - candidate above requester", models.SessionTypeTeaching, 2, 0.2},
		{"collaboration - equal levels", models.SessionTypeCollaboration, 0, 1.0},
		{"collaboration - one apart", models.SessionTypeCollaboration, 1, 0.8},
		{"collaboration - one apart negative", models.SessionTypeCollaboration, -1, 0.8},
		{"collaboration - two apart", models.SessionTypeCollaboration, 2, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := skillGapScore(tt.sessionType, tt.gap)
			if actual != tt.expected {
				t.Errorf("skillGapScore(%s, %d) = %v, want %v",
					tt.sessionType, tt.gap, actual, tt.expected)
			}
		})
	}
}

func fullOverlapAvailability() []models.AvailabilityWindow {
	return []models.AvailabilityWindow{
		{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 12 * 60},
		{Weekday: time.Wednesday, StartMinute: 18 * 60, EndMinute: 21 * 60},
	}
}

func TestCompatibilityScorer_IdealLearningPair(t *testing.T) {
	scorer := NewCompatibilityScorer()

	requester := &models.MatchRequest{
		UserID:          "student",
		PreferredSkills: []string{"golang"},
		SessionType:     models.SessionTypeLearning,
	}
	requesterProfile := &models.CandidateProfile{
		UserID:             "student",
		SkillLevels:        map[string]int{"golang": 2},
		TimezoneOffset:     9,
		Availability:       fullOverlapAvailability(),
		CommunicationStyle: models.StyleBalanced,
	}
	candidate := &models.MatchRequest{
		UserID:          "mentor",
		PreferredSkills: []string{"golang"},
		SessionType:     models.SessionTypeLearning,
	}
	candidateProfile := &models.CandidateProfile{
		UserID:             "mentor",
		SkillLevels:        map[string]int{"golang": 4},
		TimezoneOffset:     9,
		Availability:       fullOverlapAvailability(),
		CommunicationStyle: models.StyleBalanced,
	}

	breakdown := scorer.Score(requester, requesterProfile, candidate, candidateProfile)

	assert.Equal(t, 1.0, breakdown.SkillCompatibility)
	assert.Equal(t, 1.0, breakdown.TimezoneCompatibility)
	assert.Equal(t, 1.0, breakdown.AvailabilityCompatibility)
	assert.Equal(t, 1.0, breakdown.CommunicationCompatibility)
	assert.Equal(t, 0.5, breakdown.SessionHistoryCompatibility) // 이력 없음 → 중립
	assert.InDelta(t, 0.35*1.0+0.15*1.0+0.20*1.0+0.15*1.0+0.15*0.5, breakdown.Overall, 1e-9)
}

func TestCompatibilityScorer_OverallIsWeightedSum(t *testing.T) {
	scorer := NewCompatibilityScorer()
	weights := DefaultScoreWeights()

	requester := &models.MatchRequest{
		UserID:          "u1",
		PreferredSkills: []string{"python", "sql"},
		SessionType:     models.SessionTypeCollaboration,
	}
	requesterProfile := &models.CandidateProfile{
		SkillLevels:        map[string]int{"python": 3},
		TimezoneOffset:     -5,
		Availability:       fullOverlapAvailability(),
		CommunicationStyle: models.StyleCasual,
	}
	candidate := &models.MatchRequest{UserID: "u2", SessionType: models.SessionTypeCollaboration}
	candidateProfile := &models.CandidateProfile{
		SkillLevels:        map[string]int{"python": 4},
		TimezoneOffset:     3,
		Availability:       []models.AvailabilityWindow{{Weekday: time.Monday, StartMinute: 10 * 60, EndMinute: 11 * 60}},
		CommunicationStyle: models.StyleFormal,
		SharedSessions: []models.SessionRecord{
			{SessionID: "s1", Rating: 4.0, EndedAt: time.Now().Add(-30 * 24 * time.Hour)},
		},
	}

	b := scorer.Score(requester, requesterProfile, candidate, candidateProfile)

	expected := weights.Skill*b.SkillCompatibility +
		weights.Timezone*b.TimezoneCompatibility +
		weights.Availability*b.AvailabilityCompatibility +
		weights.Communication*b.CommunicationCompatibility +
		weights.History*b.SessionHistoryCompatibility

	assert.InDelta(t, expected, b.Overall, 1e-9)

	for _, component := range []float64{
		b.SkillCompatibility, b.TimezoneCompatibility, b.AvailabilityCompatibility,
		b.CommunicationCompatibility, b.SessionHistoryCompatibility, b.Overall,
	} {
		assert.GreaterOrEqual(t, component, 0.0)
		assert.LessOrEqual(t, component, 1.0)
	}
}

func TestCompatibilityScorer_TimezoneFloorNotZero(t *testing.T) {
	scorer := NewCompatibilityScorer()

	requesterProfile := &models.CandidateProfile{TimezoneOffset: -6}
	candidateProfile := &models.CandidateProfile{TimezoneOffset: 6}

	score := scorer.timezoneScore(requesterProfile, candidateProfile)

	// 12시간 차이 → floor, 비동기 세션은 여전히 가능하므로 0이 아님
	assert.Equal(t, timezoneFloor, score)
	assert.Greater(t, score, 0.0)
}

func TestCompatibilityScorer_TimezoneMonotonic(t *testing.T) {
	scorer := NewCompatibilityScorer()

	prev := 1.1
	for diff := 0.0; diff <= 12; diff++ {
		score := scorer.timezoneScore(
			&models.CandidateProfile{TimezoneOffset: 0},
			&models.CandidateProfile{TimezoneOffset: diff},
		)
		assert.Less(t, score, prev, "timezone score must decrease with offset difference")
		prev = score
	}
}

func TestCompatibilityScorer_NoSharedSkills(t *testing.T) {
	scorer := NewCompatibilityScorer()

	requester := &models.MatchRequest{
		PreferredSkills: []string{"rust"},
		SessionType:     models.SessionTypeLearning,
	}
	requesterProfile := &models.CandidateProfile{SkillLevels: map[string]int{"rust": 2}}
	candidateProfile := &models.CandidateProfile{SkillLevels: map[string]int{"haskell": 5}}

	score := scorer.skillScore(requester, requesterProfile, candidateProfile)

	// 최소 점수이지만 0은 아님 (희소 큐에서 한계 매칭 허용)
	assert.Equal(t, minSkillScore, score)
	assert.Greater(t, score, 0.0)
}

func TestCompatibilityScorer_MissingProfilesDegradeToNeutral(t *testing.T) {
	scorer := NewCompatibilityScorer()

	requester := &models.MatchRequest{
		PreferredSkills: []string{"golang"},
		SessionType:     models.SessionTypeLearning,
	}
	candidate := &models.MatchRequest{SessionType: models.SessionTypeLearning}

	b := scorer.Score(requester, nil, candidate, nil)

	assert.Equal(t, neutralScore, b.SkillCompatibility)
	assert.Equal(t, neutralScore, b.TimezoneCompatibility)
	assert.Equal(t, neutralScore, b.AvailabilityCompatibility)
	assert.Equal(t, neutralScore, b.CommunicationCompatibility)
	assert.Equal(t, neutralScore, b.SessionHistoryCompatibility)
	assert.InDelta(t, 0.5, b.Overall, 1e-9)
}

func TestCompatibilityScorer_AvailabilityOverlap(t *testing.T) {
	scorer := NewCompatibilityScorer()

	requesterProfile := &models.CandidateProfile{
		Availability: []models.AvailabilityWindow{
			{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 11 * 60},   // 후보와 겹침
			{Weekday: time.Tuesday, StartMinute: 9 * 60, EndMinute: 11 * 60},  // 요일 불일치
			{Weekday: time.Monday, StartMinute: 20 * 60, EndMinute: 21 * 60},  // 겹침 없음
		},
	}
	candidateProfile := &models.CandidateProfile{
		Availability: []models.AvailabilityWindow{
			{Weekday: time.Monday, StartMinute: 10 * 60, EndMinute: 13 * 60},
		},
	}

	score := scorer.availabilityScore(requesterProfile, candidateProfile)
	assert.InDelta(t, 1.0/3.0, score, 1e-9)
}

func TestCompatibilityScorer_AvailabilityShortOverlapIgnored(t *testing.T) {
	scorer := NewCompatibilityScorer()

	requesterProfile := &models.CandidateProfile{
		Availability: []models.AvailabilityWindow{
			{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 10 * 60},
		},
	}
	// 10분만 겹침 → 최소 인정 시간 미달
	candidateProfile := &models.CandidateProfile{
		Availability: []models.AvailabilityWindow{
			{Weekday: time.Monday, StartMinute: 9*60 + 50, EndMinute: 12 * 60},
		},
	}

	score := scorer.availabilityScore(requesterProfile, candidateProfile)
	assert.Equal(t, 0.0, score)
}

func TestCompatibilityScorer_CommunicationStyles(t *testing.T) {
	scorer := NewCompatibilityScorer()

	tests := []struct {
		name     string
		a, b     models.CommunicationStyle
		expected float64
	}{
		{"exact match", models.StyleCasual, models.StyleCasual, 1.0},
		{"balanced vs casual", models.StyleBalanced, models.StyleCasual, commAdjacentScore},
		{"balanced vs formal", models.StyleBalanced, models.StyleFormal, commAdjacentScore},
		{"opposite extremes", models.StyleCasual, models.StyleFormal, commOppositeScore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := scorer.communicationScore(
				&models.CandidateProfile{CommunicationStyle: tt.a},
				&models.CandidateProfile{CommunicationStyle: tt.b},
			)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestCompatibilityScorer_HistoryScoring(t *testing.T) {
	scorer := NewCompatibilityScorer()
	longAgo := time.Now().Add(-60 * 24 * time.Hour)

	t.Run("no shared sessions is neutral", func(t *testing.T) {
		score := scorer.historyScore(&models.CandidateProfile{}, &models.CandidateProfile{})
		assert.Equal(t, neutralScore, score)
	})

	t.Run("average rating weighted", func(t *testing.T) {
		candidateProfile := &models.CandidateProfile{
			SharedSessions: []models.SessionRecord{
				{Rating: 4.0, EndedAt: longAgo},
				{Rating: 2.0, EndedAt: longAgo},
			},
		}
		score := scorer.historyScore(nil, candidateProfile)
		assert.InDelta(t, 3.0/5.0, score, 1e-9)
	})

	t.Run("recent repeat penalized", func(t *testing.T) {
		candidateProfile := &models.CandidateProfile{
			SharedSessions: []models.SessionRecord{
				{Rating: 4.0, EndedAt: time.Now().Add(-24 * time.Hour)},
			},
		}
		score := scorer.historyScore(nil, candidateProfile)
		assert.InDelta(t, 4.0/5.0-historyRepeatPenalty, score, 1e-9)
	})

	t.Run("consistent high ratings rewarded", func(t *testing.T) {
		candidateProfile := &models.CandidateProfile{
			SharedSessions: []models.SessionRecord{
				{Rating: 5.0, EndedAt: longAgo},
				{Rating: 4.8, EndedAt: longAgo},
			},
		}
		score := scorer.historyScore(nil, candidateProfile)
		assert.InDelta(t, (9.8/2.0)/5.0+historyHighBonus, score, 1e-9)
	})
}
