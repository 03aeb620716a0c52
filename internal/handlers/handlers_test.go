package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
	"github.com/hide-yama/kireiapp/internal/routes"
)

// newTestApp wires the full route table against a fresh in-memory
// database, so tests exercise the same stack a client sees.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	database.DB = db
	require.NoError(t, database.Migrate())

	app := fiber.New()
	routes.Setup(app)
	return app
}

// registerUser signs a user up over HTTP and returns their token and ID.
func registerUser(t *testing.T, app *fiber.App, email, nickname string) (string, uuid.UUID) {
	t.Helper()

	res, body := doJSON(t, app, "POST", "/api/auth/register", "", models.RegisterRequest{
		Email:    email,
		Password: "password123",
		Nickname: nickname,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, "register %s: %v", email, body)

	token := body["token"].(string)
	user := body["user"].(map[string]interface{})
	id, err := uuid.Parse(user["id"].(string))
	require.NoError(t, err)
	return token, id
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	body := map[string]interface{}{}
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		// Some endpoints return arrays; those tests decode the raw body
		// themselves.
		_ = json.Unmarshal(raw, &body)
		body["_raw"] = string(raw)
	}
	return res, body
}

// seedGroup inserts a group plus owner membership directly, for tests
// whose subject is not the group endpoints.
func seedGroup(t *testing.T, ownerID uuid.UUID, name string) uuid.UUID {
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

func seedMember(t *testing.T, groupID, userID uuid.UUID) {
	t.Helper()
	require.NoError(t, database.DB.Create(&models.FamilyMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    models.RoleMember,
	}).Error)
}

func seedPost(t *testing.T, groupID, userID uuid.UUID, category, body string) uuid.UUID {
	t.Helper()

	post := models.Post{GroupID: groupID, UserID: userID, Body: body, Category: category}
	require.NoError(t, database.DB.Create(&post).Error)
	return post.ID
}
