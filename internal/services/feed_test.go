package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hide-yama/kireiapp/internal/apperr"
	"github.com/hide-yama/kireiapp/internal/database"
	"github.com/hide-yama/kireiapp/internal/models"
)

func TestClampFeedLimit(t *testing.T) {
	assert.Equal(t, DefaultFeedLimit, ClampFeedLimit(0))
	assert.Equal(t, DefaultFeedLimit, ClampFeedLimit(-5))
	assert.Equal(t, 7, ClampFeedLimit(7))
	assert.Equal(t, MaxFeedLimit, ClampFeedLimit(51))
	assert.Equal(t, MaxFeedLimit, ClampFeedLimit(1000))
}

func TestGetFeedVisibilityContainment(t *testing.T) {
	setupTestDB(t)

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	aliceGroup := createTestGroup(t, alice, "alice-family")
	bobGroup := createTestGroup(t, bob, "bob-family")

	createTestPost(t, aliceGroup, alice, "料理", "visible post")
	createTestPost(t, bobGroup, bob, "掃除", "hidden post")

	result, err := GetFeed(alice, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "visible post", result.Posts[0].Body)
	assert.Equal(t, int64(1), result.TotalCount)

	// Explicitly asking for a group outside the visible set is an access
	// error, not an empty page.
	_, err = GetFeed(alice, FeedQuery{GroupIDs: []uuid.UUID{bobGroup}})
	assert.ErrorIs(t, err, apperr.ErrGroupAccess)

	_, err = GetFeed(alice, FeedQuery{GroupIDs: []uuid.UUID{aliceGroup, bobGroup}})
	assert.ErrorIs(t, err, apperr.ErrGroupAccess)
}

func TestGetFeedNoMemberships(t *testing.T) {
	setupTestDB(t)

	loner := createTestUser(t, "loner")

	result, err := GetFeed(loner, FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, result.Posts)
	assert.Equal(t, int64(0), result.TotalCount)
	assert.False(t, result.HasMore)

	_, err = GetFeed(loner, FeedQuery{GroupIDs: []uuid.UUID{uuid.New()}})
	assert.ErrorIs(t, err, apperr.ErrGroupAccess)
}

func TestGetFeedOrderingAndPaging(t *testing.T) {
	setupTestDB(t)

	alice := createTestUser(t, "alice")
	groupID := createTestGroup(t, alice, "family")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		post := models.Post{
			GroupID:  groupID,
			UserID:   alice,
			Body:     fmt.Sprintf("post %d", i),
			Category: "その他",
		}
		require.NoError(t, database.DB.Create(&post).Error)
		require.NoError(t, database.DB.Model(&post).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	result, err := GetFeed(alice, FeedQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Posts, 2)
	assert.Equal(t, "post 4", result.Posts[0].Body)
	assert.Equal(t, "post 3", result.Posts[1].Body)
	assert.Equal(t, int64(5), result.TotalCount)
	assert.True(t, result.HasMore)

	result, err = GetFeed(alice, FeedQuery{Limit: 2, Page: 3})
	require.NoError(t, err)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "post 0", result.Posts[0].Body)
	assert.False(t, result.HasMore)
}

func TestGetFeedCategoryFilter(t *testing.T) {
	setupTestDB(t)

	alice := createTestUser(t, "alice")
	groupID := createTestGroup(t, alice, "family")

	createTestPost(t, groupID, alice, "料理", "cooking")
	createTestPost(t, groupID, alice, "掃除", "cleaning")
	createTestPost(t, groupID, alice, "洗濯", "laundry")

	result, err := GetFeed(alice, FeedQuery{Categories: []string{"料理", "洗濯"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalCount)
	for _, p := range result.Posts {
		assert.Contains(t, []string{"料理", "洗濯"}, p.Category)
	}
}

func TestGetFeedCountsAndLikeState(t *testing.T) {
	setupTestDB(t)

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	groupID := createTestGroup(t, alice, "family")
	addTestMember(t, groupID, bob)

	postID := createTestPost(t, groupID, alice, "料理", "dinner")

	_, err := LikePost(postID, bob)
	require.NoError(t, err)
	_, err = CreateComment(postID, bob, "looks great")
	require.NoError(t, err)
	deleted, err := CreateComment(postID, bob, "oops")
	require.NoError(t, err)
	require.NoError(t, DeleteComment(deleted.ID, bob))

	result, err := GetFeed(bob, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, result.Posts, 1)

	post := result.Posts[0]
	assert.Equal(t, int64(1), post.LikeCount)
	// Soft-deleted comments never count.
	assert.Equal(t, int64(1), post.CommentCount)
	assert.True(t, post.IsLiked)

	result, err = GetFeed(alice, FeedQuery{})
	require.NoError(t, err)
	assert.False(t, result.Posts[0].IsLiked)
}

func TestGetFeedUnknownAuthorPlaceholder(t *testing.T) {
	setupTestDB(t)

	alice := createTestUser(t, "alice")
	groupID := createTestGroup(t, alice, "family")

	// An author with no profile row still renders.
	ghost := models.User{Email: "ghost@example.com", Password: "hashed"}
	require.NoError(t, database.DB.Create(&ghost).Error)
	addTestMember(t, groupID, ghost.ID)
	createTestPost(t, groupID, ghost.ID, "その他", "from a ghost")

	result, err := GetFeed(alice, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "Unknown User", result.Posts[0].Profile.Nickname)
	assert.Equal(t, "family", result.Posts[0].Group.Name)
}

func TestGetPostDetails(t *testing.T) {
	setupTestDB(t)

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	groupID := createTestGroup(t, alice, "family")

	postID := createTestPost(t, groupID, alice, "買い物", "groceries")

	post, err := GetPostDetails(postID, alice)
	require.NoError(t, err)
	assert.Equal(t, "groceries", post.Body)
	assert.Equal(t, "alice", post.Profile.Nickname)

	// Outside the visible set the post reads as missing, not forbidden.
	_, err = GetPostDetails(postID, bob)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)

	_, err = GetPostDetails(uuid.New(), alice)
	assert.ErrorIs(t, err, apperr.ErrPostNotFound)
}
