package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Picture{}, &Space{}, &SpaceMember{}))

	return NewStore(db)
}

func seed(t *testing.T, s *Store) {
	t.Helper()

	spaceID := int64(10)
	require.NoError(t, s.db.Create(&User{ID: 1, Account: "alice", Name: "Alice", Avatar: "a.png", Role: "user"}).Error)
	require.NoError(t, s.db.Create(&User{ID: 2, Account: "bob", Name: "Bob", Role: "user", IsDelete: 1}).Error)
	require.NoError(t, s.db.Create(&Space{ID: spaceID, Name: "team", SpaceType: SpaceTypeTeam, UserID: 1}).Error)
	require.NoError(t, s.db.Create(&Picture{ID: 100, Name: "sunset", SpaceID: &spaceID, UserID: 1}).Error)
	require.NoError(t, s.db.Create(&Picture{ID: 101, Name: "public pic", UserID: 1}).Error)
	require.NoError(t, s.db.Create(&SpaceMember{ID: 1000, SpaceID: spaceID, UserID: 1, Role: RoleEditor}).Error)
}

func TestGetUser(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		user, err := s.GetUser(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Alice", user.Name)
	})

	t.Run("not found", func(t *testing.T) {
		user, err := s.GetUser(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("soft deleted", func(t *testing.T) {
		user, err := s.GetUser(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

func TestGetPicture(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	t.Run("in space", func(t *testing.T) {
		picture, err := s.GetPicture(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, picture)
		require.NotNil(t, picture.SpaceID)
		assert.Equal(t, int64(10), *picture.SpaceID)
	})

	t.Run("public", func(t *testing.T) {
		picture, err := s.GetPicture(ctx, 101)
		require.NoError(t, err)
		require.NotNil(t, picture)
		assert.Nil(t, picture.SpaceID)
	})

	t.Run("absent", func(t *testing.T) {
		picture, err := s.GetPicture(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, picture)
	})
}

func TestGetSpace(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	space, err := s.GetSpace(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, space)
	assert.Equal(t, SpaceTypeTeam, space.SpaceType)

	absent, err := s.GetSpace(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestRoleFor(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	ctx := context.Background()

	role, err := s.RoleFor(ctx, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, role)

	role, err = s.RoleFor(ctx, 10, 42)
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestUserView(t *testing.T) {
	user := &User{ID: 1, Account: "alice", Password: "hash", Name: "Alice", Avatar: "a.png"}
	view := user.View()

	assert.Equal(t, int64(1), view.ID)
	assert.Equal(t, "Alice", view.Name)
	assert.Equal(t, "a.png", view.Avatar)
}
