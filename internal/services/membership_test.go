package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleGroupIDs(t *testing.T) {
	setupTestDB(t)

	owner := createTestUser(t, "owner")
	member := createTestUser(t, "member")
	outsider := createTestUser(t, "outsider")

	ownedGroup := createTestGroup(t, owner, "owned")
	joinedGroup := createTestGroup(t, member, "joined")
	addTestMember(t, joinedGroup, owner)

	// Owning a group and holding its membership row must not double it up.
	visible, err := VisibleGroupIDs(owner)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{ownedGroup, joinedGroup}, visible)

	visible, err = VisibleGroupIDs(outsider)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestIsGroupMember(t *testing.T) {
	setupTestDB(t)

	owner := createTestUser(t, "owner")
	member := createTestUser(t, "member")
	outsider := createTestUser(t, "outsider")

	groupID := createTestGroup(t, owner, "family")
	addTestMember(t, groupID, member)

	assert.True(t, IsGroupMember(groupID, owner))
	assert.True(t, IsGroupMember(groupID, member))
	assert.False(t, IsGroupMember(groupID, outsider))
	assert.False(t, IsGroupMember(uuid.New(), owner))
}
