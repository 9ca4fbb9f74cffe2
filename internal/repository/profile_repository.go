package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/models"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/pkg/database"
)

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile 사용자 프로필 스냅샷 조회 (counterpart와의 세션 이력 포함).
// 읽기 전용, 매칭 엔진은 프로필을 변경하지 않는다.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID, counterpartID string) (*models.CandidateProfile, error) {
	profile := &models.CandidateProfile{
		UserID:      userID,
		SkillLevels: make(map[string]int),
	}

	query := `
		SELECT timezone_offset, communication_style
		FROM user_profiles
		WHERE user_id = $1
	`
	var style string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&profile.TimezoneOffset, &style)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	profile.CommunicationStyle = models.CommunicationStyle(style)

	if err := r.loadSkills(ctx, profile); err != nil {
		return nil, err
	}
	if err := r.loadAvailability(ctx, profile); err != nil {
		return nil, err
	}
	if counterpartID != "" {
		if err := r.loadSharedSessions(ctx, profile, counterpartID); err != nil {
			return nil, err
		}
	}

	return profile, nil
}

// ExistingUsers 주어진 ID 중 프로필 스토어에 존재하는 사용자 집합 (orphan 스윕용)
func (r *ProfileRepository) ExistingUsers(ctx context.Context, userIDs []string) (map[string]bool, error) {
	if len(userIDs) == 0 {
		return map[string]bool{}, nil
	}

	query := `
		SELECT user_id
		FROM user_profiles
		WHERE user_id = ANY($1)
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to check users: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool, len(userIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		existing[id] = true
	}

	return existing, rows.Err()
}

func (r *ProfileRepository) loadSkills(ctx context.Context, profile *models.CandidateProfile) error {
	query := `
		SELECT skill_name, proficiency_level
		FROM user_skills
		WHERE user_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to get skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var level int
		if err := rows.Scan(&name, &level); err != nil {
			return fmt.Errorf("failed to scan skill: %w", err)
		}
		profile.SkillLevels[name] = level
	}

	return rows.Err()
}

func (r *ProfileRepository) loadAvailability(ctx context.Context, profile *models.CandidateProfile) error {
	query := `
		SELECT weekday, start_minute, end_minute
		FROM availability_windows
		WHERE user_id = $1
		ORDER BY weekday, start_minute
	`
	rows, err := r.db.QueryContext(ctx, query, profile.UserID)
	if err != nil {
		return fmt.Errorf("failed to get availability: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w models.AvailabilityWindow
		if err := rows.Scan(&w.Weekday, &w.StartMinute, &w.EndMinute); err != nil {
			return fmt.Errorf("failed to scan availability window: %w", err)
		}
		profile.Availability = append(profile.Availability, w)
	}

	return rows.Err()
}

func (r *ProfileRepository) loadSharedSessions(ctx context.Context, profile *models.CandidateProfile, counterpartID string) error {
	query := `
		SELECT id, rating, ended_at
		FROM learning_sessions
		WHERE status = 'completed'
		  AND rating IS NOT NULL
		  AND ((user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1))
		ORDER BY ended_at DESC
		LIMIT 20
	`
	rows, err := r.db.QueryContext(ctx, query, profile.UserID, counterpartID)
	if err != nil {
		return fmt.Errorf("failed to get session history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.SessionRecord
		if err := rows.Scan(&rec.SessionID, &rec.Rating, &rec.EndedAt); err != nil {
			return fmt.Errorf("failed to scan session record: %w", err)
		}
		profile.SharedSessions = append(profile.SharedSessions, rec)
	}

	return rows.Err()
}
