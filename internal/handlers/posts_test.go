package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
)

func postForm(t *testing.T, app *fiber.App, token string, fields map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/posts/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	body := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return res, body
}

func TestCreatePost(t *testing.T) {
	app := newTestApp(t)

	token, userID := registerUser(t, app, "alice@example.com", "alice")
	groupID := seedGroup(t, userID, "我が家")

	res, body := postForm(t, app, token, map[string]string{
		"body":     "夕食を作りました",
		"category": "料理",
		"place":    "キッチン",
		"group_id": groupID.String(),
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, "%v", body)

	post := body["post"].(map[string]interface{})
	assert.Equal(t, "夕食を作りました", post["body"])
	assert.Equal(t, "料理", post["category"])
	assert.Equal(t, "キッチン", post["place"])
}

func TestCreatePostValidation(t *testing.T) {
	app := newTestApp(t)

	token, userID := registerUser(t, app, "alice@example.com", "alice")
	groupID := seedGroup(t, userID, "我が家")

	// Empty body
	res, _ := postForm(t, app, token, map[string]string{
		"body": "", "category": "料理", "group_id": groupID.String(),
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// Body over the limit
	res, _ = postForm(t, app, token, map[string]string{
		"body":     strings.Repeat("あ", models.MaxPostBody+1),
		"category": "料理",
		"group_id": groupID.String(),
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// Unknown category
	res, _ = postForm(t, app, token, map[string]string{
		"body": "test", "category": "ゲーム", "group_id": groupID.String(),
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	// A group the caller is not a member of
	res, body := postForm(t, app, token, map[string]string{
		"body": "test", "category": "料理", "group_id": uuid.New().String(),
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["error"], "参加していません")
}

func TestGetPostVisibility(t *testing.T) {
	app := newTestApp(t)

	aliceToken, aliceID := registerUser(t, app, "alice@example.com", "alice")
	bobToken, _ := registerUser(t, app, "bob@example.com", "bob")

	groupID := seedGroup(t, aliceID, "我が家")
	postID := seedPost(t, groupID, aliceID, "掃除", "リビングを掃除")

	res, body := doJSON(t, app, "GET", "/api/posts/"+postID.String(), aliceToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	post := body["post"].(map[string]interface{})
	assert.Equal(t, "リビングを掃除", post["body"])
	profile := post["profile"].(map[string]interface{})
	assert.Equal(t, "alice", profile["nickname"])

	// Outside the group the post reads as missing.
	res, _ = doJSON(t, app, "GET", "/api/posts/"+postID.String(), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestUpdatePostAuthorOnly(t *testing.T) {
	app := newTestApp(t)

	aliceToken, aliceID := registerUser(t, app, "alice@example.com", "alice")
	bobToken, bobID := registerUser(t, app, "bob@example.com", "bob")

	groupID := seedGroup(t, aliceID, "我が家")
	seedMember(t, groupID, bobID)
	postID := seedPost(t, groupID, aliceID, "洗濯", "洗濯しました")

	update := models.UpdatePostRequest{Body: "洗濯と乾燥をしました", Category: "洗濯"}

	res, _ := doJSON(t, app, "PUT", "/api/posts/"+postID.String(), bobToken, update)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := doJSON(t, app, "PUT", "/api/posts/"+postID.String(), aliceToken, update)
	require.Equal(t, http.StatusOK, res.StatusCode)
	post := body["post"].(map[string]interface{})
	assert.Equal(t, "洗濯と乾燥をしました", post["body"])
}

func TestDeletePostCascades(t *testing.T) {
	app := newTestApp(t)

	aliceToken, aliceID := registerUser(t, app, "alice@example.com", "alice")
	bobToken, bobID := registerUser(t, app, "bob@example.com", "bob")

	groupID := seedGroup(t, aliceID, "我が家")
	seedMember(t, groupID, bobID)
	postID := seedPost(t, groupID, aliceID, "買い物", "買い出し")

	res, _ := doJSON(t, app, "POST", "/api/posts/"+postID.String()+"/like", bobToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = doJSON(t, app, "POST", "/api/posts/"+postID.String()+"/comments", bobToken, models.CreateCommentRequest{Body: "ありがとう"})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, _ = doJSON(t, app, "DELETE", "/api/posts/"+postID.String(), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = doJSON(t, app, "DELETE", "/api/posts/"+postID.String(), aliceToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = doJSON(t, app, "GET", "/api/posts/"+postID.String(), aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var likes, comments int64
	require.NoError(t, database.DB.Model(&models.Like{}).Where("post_id = ?", postID).Count(&likes).Error)
	require.NoError(t, database.DB.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)
}

func TestFeedEndpoint(t *testing.T) {
	app := newTestApp(t)

	aliceToken, aliceID := registerUser(t, app, "alice@example.com", "alice")
	groupID := seedGroup(t, aliceID, "我が家")

	for i := 0; i < 3; i++ {
		seedPost(t, groupID, aliceID, "料理", "post")
	}

	// Out-of-range limits are clamped, not rejected.
	res, body := doJSON(t, app, "GET", "/api/feed?limit=500", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, float64(50), body["limit"])
	assert.Equal(t, float64(3), body["totalCount"])
	assert.Equal(t, false, body["hasMore"])

	// Filtering by a foreign group is forbidden, not empty.
	res, _ = doJSON(t, app, "GET", "/api/feed?groups="+uuid.New().String(), aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// A malformed group filter is a plain bad request.
	res, _ = doJSON(t, app, "GET", "/api/feed?groups=not-a-uuid", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestLikeEndpointIdempotent(t *testing.T) {
	app := newTestApp(t)

	aliceToken, aliceID := registerUser(t, app, "alice@example.com", "alice")
	bobToken, bobID := registerUser(t, app, "bob@example.com", "bob")

	groupID := seedGroup(t, aliceID, "我が家")
	seedMember(t, groupID, bobID)
	postID := seedPost(t, groupID, aliceID, "その他", "post")

	for i := 0; i < 3; i++ {
		res, body := doJSON(t, app, "POST", "/api/posts/"+postID.String()+"/like", bobToken, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, float64(1), body["likeCount"])
	}

	res, body := doJSON(t, app, "POST", "/api/posts/"+postID.String()+"/like", aliceToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, float64(2), body["likeCount"])

	res, body = doJSON(t, app, "DELETE", "/api/posts/"+postID.String()+"/like", bobToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, float64(1), body["likeCount"])
}
