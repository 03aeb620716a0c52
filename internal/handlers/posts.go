package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/models"
	"github.com/hide-yama/kireiapp/internal/services"
	"github.com/hide-yama/kireiapp/internal/storage"
	"gorm.io/gorm"
)

func validatePostFields(body, category string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return apperr.Validation("本文は必須です")
	}
	if utf8.RuneCountInString(body) > models.MaxPostBody {
		return apperr.Validation("本文は1000文字以内で入力してください")
	}
	if !models.IsValidCategory(category) {
		return apperr.Validation("カテゴリが正しくありません")
	}
	return nil
}

// CreatePost accepts a multipart form: body, category, place, group_id and
// up to four image_{i} files.
func CreatePost(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	body := strings.TrimSpace(c.FormValue("body"))
	category := c.FormValue("category")
	place := c.FormValue("place")
	groupIDRaw := c.FormValue("group_id")

	if err := validatePostFields(body, category); err != nil {
		return respondError(c, err)
	}

	groupID, err := uuid.Parse(groupIDRaw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "グループIDが正しくありません",
		})
	}
	if !services.IsGroupMember(groupID, userID) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "グループに参加していません",
		})
	}

	// All image files are validated before anything is written, so a bad
	// file never leaves a half-created post behind.
	var files []*multipart.FileHeader
	for i := 0; i < models.MaxPostImages; i++ {
		file, err := c.FormFile(fmt.Sprintf("image_%d", i))
		if err != nil || file == nil || file.Size == 0 {
			continue
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !storage.AllowedImageExts[ext] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "対応しているファイル形式: JPEG, PNG, WebP",
			})
		}
		if file.Size > storage.MaxImageSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "画像サイズは5MB以内にしてください",
			})
		}
		files = append(files, file)
	}

	post := models.Post{
		GroupID:  groupID,
		UserID:   userID,
		Body:     body,
		Category: category,
	}
	if place != "" {
		post.Place = &place
	}
	if err := database.DB.Create(&post).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}

	// A blob whose DB record fails is removed again so nothing is orphaned
	// in the object store.
	images := make([]models.PostImage, 0, len(files))
	for i, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		path := fmt.Sprintf("post-images/%s/%d%s", post.ID, i, ext)
		if err := storage.Save(file, path); err != nil {
			return respondError(c, apperr.Transient(err))
		}

		image := models.PostImage{PostID: post.ID, StoragePath: path, Position: i}
		if err := database.DB.Create(&image).Error; err != nil {
			storage.Remove(path)
			return respondError(c, apperr.Transient(err))
		}
		if url, err := storage.PublicURL(path); err == nil {
			image.URL = url
		}
		images = append(images, image)
	}

	post.Images = images
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"post": post})
}

func GetPost(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.ErrPostNotFound)
	}

	post, err := services.GetPostDetails(postID, userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// UpdatePost edits body/category/place; only the author may edit.
func UpdatePost(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.ErrPostNotFound)
	}

	var req models.UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "リクエストの形式が正しくありません",
		})
	}
	if err := validatePostFields(req.Body, req.Category); err != nil {
		return respondError(c, err)
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		return respondError(c, apperr.ErrPostNotFound)
	}
	if post.UserID != userID {
		return respondError(c, apperr.ErrNotPostOwner)
	}

	updates := map[string]interface{}{
		"body":     strings.TrimSpace(req.Body),
		"category": req.Category,
		"place":    req.Place,
	}
	if err := database.DB.Model(&post).Updates(updates).Error; err != nil {
		return respondError(c, apperr.Transient(err))
	}

	database.DB.First(&post, "id = ?", postID)
	return c.JSON(fiber.Map{"success": true, "post": post})
}

// DeletePost removes the post, its interactions and its image blobs.
func DeletePost(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return respondError(c, apperr.ErrPostNotFound)
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		return respondError(c, apperr.ErrPostNotFound)
	}
	if post.UserID != userID {
		return respondError(c, apperr.ErrNotPostOwner)
	}

	var blobPaths []string
	database.DB.Model(&models.PostImage{}).Where("post_id = ?", postID).Pluck("storage_path", &blobPaths)

	txErr := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	if txErr != nil {
		return respondError(c, apperr.Transient(txErr))
	}

	// Blobs go after the rows committed; a crash in between leaves only
	// unreferenced files, never dangling records.
	storage.Remove(blobPaths...)

	return c.JSON(fiber.Map{"success": true})
}
