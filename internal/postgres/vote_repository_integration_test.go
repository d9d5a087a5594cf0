package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biscuits-internet-project/bip-engage/internal/domain"
)

func TestVoteRepo_Toggle_CreateUpvote(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, pool, "author", domain.RoleMember)
	voter := createTestUser(t, pool, "voter", domain.RoleMember)
	post := createTestPost(t, pool, author, "strong first set opener")

	repo := NewVoteRepo(pool)
	result, err := repo.Toggle(ctx, post.ID, voter, domain.VoteUp)
	require.NoError(t, err)
	require.NotNil(t, result.Vote)
	assert.Equal(t, domain.VoteUp, result.Vote.VoteType)

	fresh, err := NewPostRepo(pool).GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.VoteScore)
	assert.Equal(t, 1, fresh.UpvoteCount)
	assert.Equal(t, 0, fresh.DownvoteCount)
}

func TestVoteRepo_Toggle_SameTypeCancels(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, pool, "author", domain.RoleMember)
	voter := createTestUser(t, pool, "voter", domain.RoleMember)
	post := createTestPost(t, pool, author, "hot take on the encore")

	repo := NewVoteRepo(pool)
	_, err := repo.Toggle(ctx, post.ID, voter, domain.VoteDown)
	require.NoError(t, err)

	result, err := repo.Toggle(ctx, post.ID, voter, domain.VoteDown)
	require.NoError(t, err)
	assert.Nil(t, result.Vote)

	fresh, err := NewPostRepo(pool).GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.VoteScore)
	assert.Equal(t, 0, fresh.UpvoteCount)
	assert.Equal(t, 0, fresh.DownvoteCount)

	var voteRows int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM votes WHERE post_id = $1 AND user_id = $2`,
		post.ID, voter,
	).Scan(&voteRows))
	assert.Equal(t, 0, voteRows)
}

func TestVoteRepo_Toggle_SwitchDirection(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, pool, "author", domain.RoleMember)
	voter := createTestUser(t, pool, "voter", domain.RoleMember)
	repo := NewVoteRepo(pool)
	posts := NewPostRepo(pool)

	t.Run("up to down", func(t *testing.T) {
		post := createTestPost(t, pool, author, "setlist prediction")

		_, err := repo.Toggle(ctx, post.ID, voter, domain.VoteUp)
		require.NoError(t, err)
		result, err := repo.Toggle(ctx, post.ID, voter, domain.VoteDown)
		require.NoError(t, err)
		require.NotNil(t, result.Vote)
		assert.Equal(t, domain.VoteDown, result.Vote.VoteType)

		fresh, err := posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, -1, fresh.VoteScore)
		assert.Equal(t, 0, fresh.UpvoteCount)
		assert.Equal(t, 1, fresh.DownvoteCount)
	})

	t.Run("down to up", func(t *testing.T) {
		post := createTestPost(t, pool, author, "tour rumor thread")

		_, err := repo.Toggle(ctx, post.ID, voter, domain.VoteDown)
		require.NoError(t, err)
		result, err := repo.Toggle(ctx, post.ID, voter, domain.VoteUp)
		require.NoError(t, err)
		require.NotNil(t, result.Vote)
		assert.Equal(t, domain.VoteUp, result.Vote.VoteType)

		fresh, err := posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, fresh.VoteScore)
		assert.Equal(t, 1, fresh.UpvoteCount)
		assert.Equal(t, 0, fresh.DownvoteCount)
	})
}

func TestVoteRepo_Toggle_OneRowPerUserAndPost(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, pool, "author", domain.RoleMember)
	voter := createTestUser(t, pool, "voter", domain.RoleMember)
	post := createTestPost(t, pool, author, "jam chart nomination")

	repo := NewVoteRepo(pool)
	_, err := repo.Toggle(ctx, post.ID, voter, domain.VoteUp)
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, post.ID, voter, domain.VoteDown)
	require.NoError(t, err)

	var voteRows int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM votes WHERE post_id = $1 AND user_id = $2`,
		post.ID, voter,
	).Scan(&voteRows))
	assert.Equal(t, 1, voteRows)
}

func TestVoteRepo_Toggle_IndependentVoters(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, pool, "author", domain.RoleMember)
	fanA := createTestUser(t, pool, "fan_a", domain.RoleMember)
	fanB := createTestUser(t, pool, "fan_b", domain.RoleMember)
	fanC := createTestUser(t, pool, "fan_c", domain.RoleMember)
	post := createTestPost(t, pool, author, "rare bustout last night")

	repo := NewVoteRepo(pool)
	_, err := repo.Toggle(ctx, post.ID, fanA, domain.VoteUp)
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, post.ID, fanB, domain.VoteUp)
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, post.ID, fanC, domain.VoteDown)
	require.NoError(t, err)

	fresh, err := NewPostRepo(pool).GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.VoteScore)
	assert.Equal(t, 2, fresh.UpvoteCount)
	assert.Equal(t, 1, fresh.DownvoteCount)
}

func TestVoteRepo_Toggle_UnknownPost(t *testing.T) {
	pool := setupTestDB(t)

	voter := createTestUser(t, pool, "voter", domain.RoleMember)

	_, err := NewVoteRepo(pool).Toggle(context.Background(), uuid.New(), voter, domain.VoteUp)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}

func TestVoteRepo_Toggle_DeletedPost(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, pool, "author", domain.RoleMember)
	voter := createTestUser(t, pool, "voter", domain.RoleMember)
	post := createTestPost(t, pool, author, "soon to be deleted")

	require.NoError(t, NewPostRepo(pool).SoftDelete(ctx, post.ID, author, false))

	_, err := NewVoteRepo(pool).Toggle(ctx, post.ID, voter, domain.VoteUp)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
}
