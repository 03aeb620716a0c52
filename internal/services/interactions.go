package services

import (
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
	"gorm.io/gorm"
)

// visiblePost loads a post the caller is allowed to see. A post in a group
// outside the caller's visible set reports NotFound, indistinguishable
// from a missing row, so existence never leaks.
func visiblePost(postID, userID uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrPostNotFound
		}
		return nil, apperr.Transient(err)
	}
	if !IsGroupMember(post.GroupID, userID) {
		return nil, apperr.ErrPostNotFound
	}
	return &post, nil
}

// LikePost records a like and returns the post's like count. Liking an
// already-liked post is a success; the duplicate insert collapses on the
// (post_id, user_id) key, so concurrent double submission can neither
// duplicate the row nor the notification.
func LikePost(postID, userID uuid.UUID) (int64, error) {
	post, err := visiblePost(postID, userID)
	if err != nil {
		return 0, err
	}

	like := models.Like{PostID: postID, UserID: userID}
	createErr := database.DB.Create(&like).Error
	if createErr != nil && !errors.Is(createErr, gorm.ErrDuplicatedKey) {
		return 0, apperr.Transient(createErr)
	}

	if createErr == nil {
		NotifyInteraction(post.UserID, models.NotificationTypeLike, postID, userID)
	}

	return LikeCount(postID)
}

// UnlikePost removes the caller's like if present. Never notifies.
func UnlikePost(postID, userID uuid.UUID) (int64, error) {
	if _, err := visiblePost(postID, userID); err != nil {
		return 0, err
	}
	if err := database.DB.
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{}).Error; err != nil {
		return 0, apperr.Transient(err)
	}
	return LikeCount(postID)
}

func LikeCount(postID uuid.UUID) (int64, error) {
	var count int64
	if err := database.DB.Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, apperr.Transient(err)
	}
	return count, nil
}

// CreateComment appends a comment and notifies the post owner.
func CreateComment(postID, userID uuid.UUID, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("コメントは必須です")
	}
	if utf8.RuneCountInString(body) > models.MaxCommentBody {
		return nil, apperr.Validation("コメントは500文字以内で入力してください")
	}

	post, err := visiblePost(postID, userID)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{PostID: postID, UserID: userID, Body: body}
	if err := database.DB.Create(&comment).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	NotifyInteraction(post.UserID, models.NotificationTypeComment, postID, userID)

	// The write committed; a failed author reload degrades to a
	// placeholder instead of erroring the whole request.
	if err := database.DB.Preload("Profile").First(&comment, "id = ?", comment.ID).Error; err != nil {
		log.Printf("comments: reload after create for %s: %v", comment.ID, err)
	}
	if comment.Profile.ID == uuid.Nil {
		comment.Profile = models.Profile{ID: userID, Nickname: "Unknown User"}
	}
	return &comment, nil
}

// GetComments returns a post's live comments, oldest first.
func GetComments(postID, userID uuid.UUID) ([]models.Comment, error) {
	if _, err := visiblePost(postID, userID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := database.DB.
		Where("post_id = ? AND is_deleted = ?", postID, false).
		Preload("Profile").
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	return comments, nil
}

// DeleteComment soft-deletes the caller's comment. Deleting it again is a
// no-op for the author; anyone else is rejected before the deleted state
// is considered.
func DeleteComment(commentID, userID uuid.UUID) error {
	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrCommentNotFound
		}
		return apperr.Transient(err)
	}

	if comment.UserID != userID {
		return apperr.ErrNotCommentOwner
	}
	if comment.IsDeleted {
		return nil
	}

	if err := database.DB.Model(&comment).Update("is_deleted", true).Error; err != nil {
		return apperr.Transient(err)
	}
	return nil
}

func CommentCount(postID uuid.UUID) (int64, error) {
	var count int64
	if err := database.DB.Model(&models.Comment{}).
		Where("post_id = ? AND is_deleted = ?", postID, false).
		Count(&count).Error; err != nil {
		return 0, apperr.Transient(err)
	}
	return count, nil
}
