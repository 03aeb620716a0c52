package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/middleware"
	"github.com/hide-yama/kireiapp/internal/models"
	"github.com/hide-yama/kireiapp/internal/services"
	"github.com/hide-yama/kireiapp/internal/storage"
)

func GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	email, _ := c.Locals("email").(string)

	profile, err := services.EnsureProfile(userID, nicknameFromEmail(email))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":      userID,
		"email":   email,
		"profile": profile,
	})
}

func UpdateMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	email, _ := c.Locals("email").(string)

	var req models.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "リクエストの形式が正しくありません",
		})
	}

	profile, err := services.EnsureProfile(userID, nicknameFromEmail(email))
	if err != nil {
		return respondError(c, err)
	}

	if req.Nickname != nil {
		nickname := strings.TrimSpace(*req.Nickname)
		if nickname == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "ニックネームは必須です",
			})
		}
		if err := database.DB.Model(profile).Update("nickname", nickname).Error; err != nil {
			return respondError(c, err)
		}
		profile.Nickname = nickname
	}

	return c.JSON(profile)
}

// UploadAvatar replaces the caller's avatar blob and profile URL.
func UploadAvatar(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	email, _ := c.Locals("email").(string)

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ファイルが選択されていません",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !storage.AllowedImageExts[ext] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "対応しているファイル形式: JPEG, PNG, WebP",
		})
	}
	if file.Size > storage.MaxImageSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ファイルサイズは5MB以内にしてください",
		})
	}

	profile, err := services.EnsureProfile(userID, nicknameFromEmail(email))
	if err != nil {
		return respondError(c, err)
	}

	path := fmt.Sprintf("avatars/%s-%s%s", userID, uuid.New().String()[:8], ext)
	if err := storage.Save(file, path); err != nil {
		return respondError(c, err)
	}

	url, err := storage.PublicURL(path)
	if err != nil {
		storage.Remove(path)
		return respondError(c, err)
	}

	// The avatar URL points at the new blob before the old one goes away,
	// so a failed update leaves the profile consistent.
	oldPath := ""
	if profile.AvatarURL != "" {
		if p := storage.PathFromURL(profile.AvatarURL); strings.Contains(p, userID.String()) {
			oldPath = p
		}
	}
	if err := database.DB.Model(profile).Update("avatar_url", url).Error; err != nil {
		storage.Remove(path)
		return respondError(c, err)
	}
	if oldPath != "" {
		storage.Remove(oldPath)
	}

	profile.AvatarURL = url
	return c.JSON(fiber.Map{"avatar_url": url})
}

// GetUserProfile returns another member's public profile.
func GetUserProfile(c *fiber.Ctx) error {
	profileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ユーザーIDが正しくありません",
		})
	}

	var profile models.Profile
	if err := database.DB.First(&profile, "id = ?", profileID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "プロフィールが見つかりません",
		})
	}

	return c.JSON(profile)
}
