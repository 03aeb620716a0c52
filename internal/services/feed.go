package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
	"github.com/hide-yama/kireiapp/internal/storage"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 50
)

type FeedQuery struct {
	GroupIDs   []uuid.UUID
	Categories []string
	Page       int
	Limit      int
}

type FeedAuthor struct {
	ID        uuid.UUID `json:"id"`
	Nickname  string    `json:"nickname"`
	AvatarURL string    `json:"avatar_url"`
}

type FeedGroup struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type FeedPost struct {
	ID           uuid.UUID          `json:"id"`
	GroupID      uuid.UUID          `json:"group_id"`
	UserID       uuid.UUID          `json:"user_id"`
	Body         string             `json:"body"`
	Category     string             `json:"category"`
	Place        *string            `json:"place"`
	CreatedAt    time.Time          `json:"created_at"`
	Profile      FeedAuthor         `json:"profile"`
	Group        FeedGroup          `json:"group"`
	Images       []models.PostImage `json:"post_images"`
	LikeCount    int64              `json:"like_count"`
	CommentCount int64              `json:"comment_count"`
	IsLiked      bool               `json:"is_liked"`
}

type FeedResult struct {
	Posts      []FeedPost `json:"posts"`
	TotalCount int64      `json:"totalCount"`
	HasMore    bool       `json:"hasMore"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}

// ClampFeedLimit bounds a requested page size; out-of-range values are
// clamped, not rejected.
func ClampFeedLimit(limit int) int {
	if limit < 1 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

// GetFeed returns one denormalized feed page across the caller's visible
// groups. Explicitly requesting a group outside the visible set fails with
// a 403 rather than returning an empty page.
func GetFeed(userID uuid.UUID, q FeedQuery) (*FeedResult, error) {
	visible, err := VisibleGroupIDs(userID)
	if err != nil {
		return nil, err
	}

	limit := ClampFeedLimit(q.Limit)
	page := q.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	empty := &FeedResult{Posts: []FeedPost{}, Page: page, Limit: limit}
	if len(visible) == 0 {
		if len(q.GroupIDs) > 0 {
			return nil, apperr.ErrGroupAccess
		}
		return empty, nil
	}

	visibleSet := make(map[uuid.UUID]bool, len(visible))
	for _, id := range visible {
		visibleSet[id] = true
	}

	target := visible
	if len(q.GroupIDs) > 0 {
		for _, id := range q.GroupIDs {
			if !visibleSet[id] {
				return nil, apperr.ErrGroupAccess
			}
		}
		target = q.GroupIDs
	}

	base := database.DB.Model(&models.Post{}).Where("group_id IN ?", target)
	if len(q.Categories) > 0 {
		base = base.Where("category IN ?", q.Categories)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	var posts []models.Post
	if err := base.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	detailed, err := buildFeedPosts(posts, userID)
	if err != nil {
		return nil, err
	}

	return &FeedResult{
		Posts:      detailed,
		TotalCount: total,
		HasMore:    int64(offset+limit) < total,
		Page:       page,
		Limit:      limit,
	}, nil
}

// GetPostDetails returns a single post denormalized the same way a feed
// page is, or a NotFound when the post is outside the caller's groups.
func GetPostDetails(postID, userID uuid.UUID) (*FeedPost, error) {
	post, err := visiblePost(postID, userID)
	if err != nil {
		return nil, err
	}
	detailed, err := buildFeedPosts([]models.Post{*post}, userID)
	if err != nil {
		return nil, err
	}
	return &detailed[0], nil
}

// buildFeedPosts resolves authors, groups, images, counts and the
// caller's like state for one page of posts: one query per relation,
// never one per post.
func buildFeedPosts(posts []models.Post, userID uuid.UUID) ([]FeedPost, error) {
	if len(posts) == 0 {
		return []FeedPost{}, nil
	}

	postIDs := make([]uuid.UUID, 0, len(posts))
	userIDs := make([]uuid.UUID, 0, len(posts))
	groupIDs := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		userIDs = append(userIDs, p.UserID)
		groupIDs = append(groupIDs, p.GroupID)
	}

	var profiles []models.Profile
	if err := database.DB.Where("id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	profileByID := make(map[uuid.UUID]models.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}

	var groups []models.FamilyGroup
	if err := database.DB.Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	groupByID := make(map[uuid.UUID]models.FamilyGroup, len(groups))
	for _, g := range groups {
		groupByID[g.ID] = g
	}

	var images []models.PostImage
	if err := database.DB.Where("post_id IN ?", postIDs).
		Order("position ASC").
		Find(&images).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	imagesByPost := make(map[uuid.UUID][]models.PostImage)
	for _, img := range images {
		img.URL = resolveImageURL(img.StoragePath)
		imagesByPost[img.PostID] = append(imagesByPost[img.PostID], img)
	}

	likeCounts, err := countByPost(&models.Like{}, postIDs, "")
	if err != nil {
		return nil, err
	}
	commentCounts, err := countByPost(&models.Comment{}, postIDs, "is_deleted = ?")
	if err != nil {
		return nil, err
	}

	var myLikes []models.Like
	if err := database.DB.Where("post_id IN ? AND user_id = ?", postIDs, userID).Find(&myLikes).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	likedSet := make(map[uuid.UUID]bool, len(myLikes))
	for _, l := range myLikes {
		likedSet[l.PostID] = true
	}

	result := make([]FeedPost, len(posts))
	for i, p := range posts {
		author := FeedAuthor{ID: p.UserID, Nickname: "Unknown User"}
		if profile, ok := profileByID[p.UserID]; ok {
			author.Nickname = profile.Nickname
			author.AvatarURL = profile.AvatarURL
		}

		group := FeedGroup{ID: p.GroupID, Name: "Unknown Group"}
		if g, ok := groupByID[p.GroupID]; ok {
			group.Name = g.Name
		}

		imgs := imagesByPost[p.ID]
		if imgs == nil {
			imgs = []models.PostImage{}
		}

		result[i] = FeedPost{
			ID:           p.ID,
			GroupID:      p.GroupID,
			UserID:       p.UserID,
			Body:         p.Body,
			Category:     p.Category,
			Place:        p.Place,
			CreatedAt:    p.CreatedAt,
			Profile:      author,
			Group:        group,
			Images:       imgs,
			LikeCount:    likeCounts[p.ID],
			CommentCount: commentCounts[p.ID],
			IsLiked:      likedSet[p.ID],
		}
	}
	return result, nil
}

type postCountRow struct {
	PostID uuid.UUID
	N      int64
}

func countByPost(model interface{}, postIDs []uuid.UUID, extraCond string) (map[uuid.UUID]int64, error) {
	query := database.DB.Model(model).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs)
	if extraCond != "" {
		query = query.Where(extraCond, false)
	}

	var rows []postCountRow
	if err := query.Group("post_id").Scan(&rows).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		counts[r.PostID] = r.N
	}
	return counts, nil
}

// resolveImageURL degrades to an empty URL when the stored path does not
// resolve to an allow-listed host; the post itself still renders.
func resolveImageURL(storagePath string) string {
	u, err := storage.PublicURL(storagePath)
	if err != nil {
		log.Printf("feed: dropping image url for %q: %v", storagePath, err)
		return ""
	}
	return u
}
