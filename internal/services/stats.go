package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
	"gorm.io/gorm"
)

type CategoryStat struct {
	Count int64 `json:"count"`
}

type UserStat struct {
	Nickname string `json:"nickname"`
	Count    int64  `json:"count"`
}

// DashboardStats summarizes posting activity across the caller's visible
// groups for the home screen.
type DashboardStats struct {
	TotalPosts    int64                   `json:"totalPosts"`
	ThisWeekPosts int64                   `json:"thisWeekPosts"`
	CategoryStats map[string]CategoryStat `json:"categoryStats"`
	UserStats     map[string]UserStat     `json:"userStats"`
}

// GetDashboardStats aggregates post counts over the visible set: total,
// rolling seven days, per category, and per author. One grouped query per
// aggregate, never one per post.
func GetDashboardStats(userID uuid.UUID) (*DashboardStats, error) {
	stats := &DashboardStats{
		CategoryStats: map[string]CategoryStat{},
		UserStats:     map[string]UserStat{},
	}

	visible, err := VisibleGroupIDs(userID)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return stats, nil
	}

	// A fresh query per aggregate; chaining off one builder would leak
	// conditions between them.
	visiblePosts := func() *gorm.DB {
		return database.DB.Model(&models.Post{}).Where("group_id IN ?", visible)
	}

	if err := visiblePosts().Count(&stats.TotalPosts).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	weekAgo := time.Now().Add(-7 * 24 * time.Hour)
	if err := visiblePosts().
		Where("created_at >= ?", weekAgo).
		Count(&stats.ThisWeekPosts).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	var categoryRows []struct {
		Category string
		N        int64
	}
	if err := visiblePosts().
		Select("category, COUNT(*) AS n").
		Group("category").
		Scan(&categoryRows).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	for _, r := range categoryRows {
		stats.CategoryStats[r.Category] = CategoryStat{Count: r.N}
	}

	var userRows []struct {
		UserID uuid.UUID
		N      int64
	}
	if err := visiblePosts().
		Select("user_id, COUNT(*) AS n").
		Group("user_id").
		Scan(&userRows).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	if len(userRows) > 0 {
		userIDs := make([]uuid.UUID, 0, len(userRows))
		for _, r := range userRows {
			userIDs = append(userIDs, r.UserID)
		}
		var profiles []models.Profile
		if err := database.DB.Where("id IN ?", userIDs).Find(&profiles).Error; err != nil {
			return nil, apperr.Transient(err)
		}
		nicknameByID := make(map[uuid.UUID]string, len(profiles))
		for _, p := range profiles {
			nicknameByID[p.ID] = p.Nickname
		}
		for _, r := range userRows {
			nickname := nicknameByID[r.UserID]
			if nickname == "" {
				nickname = "Unknown"
			}
			stats.UserStats[r.UserID.String()] = UserStat{Nickname: nickname, Count: r.N}
		}
	}

	return stats, nil
}
