package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
)

// setupTestDB swaps the package-global connection for a fresh in-memory
// database. cache=shared keeps every pooled connection on the same DB.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	database.DB = db
	require.NoError(t, database.Migrate())
}

func createTestUser(t *testing.T, nickname string) uuid.UUID {
	t.Helper()

	user := models.User{Email: nickname + "@example.com", Password: "hashed"}
	require.NoError(t, database.DB.Create(&user).Error)
	require.NoError(t, database.DB.Create(&models.Profile{ID: user.ID, Nickname: nickname}).Error)
	return user.ID
}

// createTestGroup creates a group plus its owner membership row, the same
// shape the create endpoint produces.
func createTestGroup(t *testing.T, ownerID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	group := models.FamilyGroup{Name: name, OwnerID: ownerID}
	require.NoError(t, database.DB.Create(&group).Error)
	require.NoError(t, database.DB.Create(&models.FamilyMember{
		GroupID: group.ID,
		UserID:  ownerID,
		Role:    models.RoleOwner,
	}).Error)
	return group.ID
}

func addTestMember(t *testing.T, groupID, userID uuid.UUID) {
	t.Helper()
	require.NoError(t, database.DB.Create(&models.FamilyMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    models.RoleMember,
	}).Error)
}

func createTestPost(t *testing.T, groupID, userID uuid.UUID, category, body string) uuid.UUID {
	t.Helper()

	post := models.Post{GroupID: groupID, UserID: userID, Body: body, Category: category}
	require.NoError(t, database.DB.Create(&post).Error)
	return post.ID
}
