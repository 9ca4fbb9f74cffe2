package service

import (
	"time"

	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
)

const (
	neutralScore = 0.5 // 데이터 부재 시 중립값

	minSkillScore = 0.1 // 공유 스킬 없음 (희소 큐에서 한계 매칭 허용)

	timezoneFloor        = 0.15 // 12시간 이상 차이 (비동기 세션은 여전히 가능)
	timezoneMaxDiffHours = 12.0

	minOverlapMinutes = 30 // 가용 시간 겹침 최소 인정 시간

	commAdjacentScore = 0.6
	commOppositeScore = 0.2

	historyRecentWindow  = 7 * 24 * time.Hour // 최근 반복 페널티 기간
	historyRepeatPenalty = 0.15               // 파트너 다양성 우대
	historyHighRatingMin = 4.5
	historyHighBonus     = 0.1
)

// ScoreWeights 구성 요소 가중치 (합 1.0)
type ScoreWeights struct {
	Skill         float64
	Timezone      float64
	Availability  float64
	Communication float64
	History       float64
}

// DefaultScoreWeights 기본 가중치
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Skill:         0.35,
		Timezone:      0.15,
		Availability:  0.20,
		Communication: 0.15,
		History:       0.15,
	}
}

// CompatibilityScorer 두 대기 요청 간 호환성 점수 계산.
// 순수 함수이며 상태와 I/O가 없다. 프로필 데이터가 없으면 해당 구성
// 요소를 중립값으로 처리하고 실패하지 않는다.
type CompatibilityScorer struct {
	weights ScoreWeights
}

// NewCompatibilityScorer 기본 가중치로 생성
func NewCompatibilityScorer() *CompatibilityScorer {
	return &CompatibilityScorer{weights: DefaultScoreWeights()}
}

// NewCompatibilityScorerWithWeights 가중치 지정 생성
func NewCompatibilityScorerWithWeights(weights ScoreWeights) *CompatibilityScorer {
	return &CompatibilityScorer{weights: weights}
}

// Score 요청자/후보 쌍의 점수 계산. 모든 구성 요소와 overall은 [0,1].
func (s *CompatibilityScorer) Score(
	requester *models.MatchRequest,
	requesterProfile *models.CandidateProfile,
	candidate *models.MatchRequest,
	candidateProfile *models.CandidateProfile,
) models.ScoreBreakdown {
	breakdown := models.ScoreBreakdown{
		SkillCompatibility:          s.skillScore(requester, requesterProfile, candidateProfile),
		TimezoneCompatibility:       s.timezoneScore(requesterProfile, candidateProfile),
		AvailabilityCompatibility:   s.availabilityScore(requesterProfile, candidateProfile),
		CommunicationCompatibility:  s.communicationScore(requesterProfile, candidateProfile),
		SessionHistoryCompatibility: s.historyScore(requesterProfile, candidateProfile),
	}

	breakdown.Overall = clamp01(
		s.weights.Skill*breakdown.SkillCompatibility +
			s.weights.Timezone*breakdown.TimezoneCompatibility +
			s.weights.Availability*breakdown.AvailabilityCompatibility +
			s.weights.Communication*breakdown.CommunicationCompatibility +
			s.weights.History*breakdown.SessionHistoryCompatibility,
	)

	return breakdown
}

// skillScore 요청 스킬별 숙련도 격차 점수의 평균.
// learning: 후보가 1~3 높을 때 보상 (+2 최대), teaching: 반대 방향,
// collaboration: ±1 이내 보상. 공유 스킬이 전혀 없으면 최소 점수.
func (s *CompatibilityScorer) skillScore(requester *models.MatchRequest, requesterProfile, candidateProfile *models.CandidateProfile) float64 {
	if requesterProfile == nil || candidateProfile == nil ||
		len(requesterProfile.SkillLevels) == 0 || len(candidateProfile.SkillLevels) == 0 {
		return neutralScore
	}

	sum := 0.0
	shared := 0

	for _, skill := range requester.PreferredSkills {
		requesterLevel, ok := requesterProfile.SkillLevels[skill]
		if !ok {
			continue
		}
		candidateLevel, ok := candidateProfile.SkillLevels[skill]
		if !ok {
			continue
		}

		sum += skillGapScore(requester.SessionType, candidateLevel-requesterLevel)
		shared++
	}

	if shared == 0 {
		return minSkillScore
	}
	return sum / float64(shared)
}

// skillGapScore 숙련도 격차(후보-요청자)에 따른 점수
func skillGapScore(sessionType models.SessionType, gap int) float64 {
	switch sessionType {
	case models.SessionTypeTeaching:
		// 요청자가 가르치는 쪽: 방향을 뒤집어 learning과 동일하게 평가
		gap = -gap
	case models.SessionTypeCollaboration:
		switch abs(gap) {
		case 0:
			return 1.0
		case 1:
			return 0.8
		default:
			return 0.2
		}
	}

	// learning (및 방향 반전된 teaching): +2 격차가 최적
	switch gap {
	case 2:
		return 1.0
	case 1, 3:
		return 0.75
	default:
		return 0.2
	}
}

// timezoneScore UTC 오프셋 차이에 단조 감소. 0시간 → 1.0,
// 12시간 이상 → floor (0이 아님).
func (s *CompatibilityScorer) timezoneScore(requesterProfile, candidateProfile *models.CandidateProfile) float64 {
	if requesterProfile == nil || candidateProfile == nil {
		return neutralScore
	}

	diff := requesterProfile.TimezoneOffset - candidateProfile.TimezoneOffset
	if diff < 0 {
		diff = -diff
	}

	if diff >= timezoneMaxDiffHours {
		return timezoneFloor
	}
	return 1.0 - (diff/timezoneMaxDiffHours)*(1.0-timezoneFloor)
}

// availabilityScore 요청자 주간 가용 시간대 중 후보와 최소 시간 이상
// 겹치는 비율. 겹침 0분 → 0, 전부 겹침 → 1.
func (s *CompatibilityScorer) availabilityScore(requesterProfile, candidateProfile *models.CandidateProfile) float64 {
	if requesterProfile == nil || candidateProfile == nil ||
		len(requesterProfile.Availability) == 0 || len(candidateProfile.Availability) == 0 {
		return neutralScore
	}

	overlapping := 0
	for _, rw := range requesterProfile.Availability {
		for _, cw := range candidateProfile.Availability {
			if rw.Weekday != cw.Weekday {
				continue
			}
			start := max(rw.StartMinute, cw.StartMinute)
			end := min(rw.EndMinute, cw.EndMinute)
			if end-start >= minOverlapMinutes {
				overlapping++
				break
			}
		}
	}

	return float64(overlapping) / float64(len(requesterProfile.Availability))
}

// communicationScore 스타일 일치 → 1, 인접(balanced vs 양극) → 중간,
// 양극단 → 낮음
func (s *CompatibilityScorer) communicationScore(requesterProfile, candidateProfile *models.CandidateProfile) float64 {
	if requesterProfile == nil || candidateProfile == nil ||
		requesterProfile.CommunicationStyle == "" || candidateProfile.CommunicationStyle == "" {
		return neutralScore
	}

	a := requesterProfile.CommunicationStyle
	b := candidateProfile.CommunicationStyle

	if a == b {
		return 1.0
	}
	if a == models.StyleBalanced || b == models.StyleBalanced {
		return commAdjacentScore
	}
	return commOppositeScore
}

// historyScore 과거 세션이 없으면 중립 0.5. 있으면 평균 평점 가중,
// 아주 최근 반복에는 페널티, 일관된 고평점에는 보너스.
func (s *CompatibilityScorer) historyScore(requesterProfile, candidateProfile *models.CandidateProfile) float64 {
	var sessions []models.SessionRecord
	if candidateProfile != nil {
		sessions = candidateProfile.SharedSessions
	}
	if len(sessions) == 0 && requesterProfile != nil {
		sessions = requesterProfile.SharedSessions
	}
	if len(sessions) == 0 {
		return neutralScore
	}

	sum := 0.0
	allHigh := true
	mostRecent := sessions[0].EndedAt

	for _, session := range sessions {
		sum += session.Rating
		if session.Rating < historyHighRatingMin {
			allHigh = false
		}
		if session.EndedAt.After(mostRecent) {
			mostRecent = session.EndedAt
		}
	}

	score := sum / float64(len(sessions)) / 5.0

	if time.Since(mostRecent) < historyRecentWindow {
		score -= historyRepeatPenalty
	}
	if allHigh && len(sessions) >= 2 {
		score += historyHighBonus
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
