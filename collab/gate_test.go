package collab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picshed/picshed/storage"
)

type stubCollaborators struct {
	users    map[string]*storage.User
	pictures map[int64]*storage.Picture
	spaces   map[int64]*storage.Space
	roles    map[[2]int64]string // {spaceID, userID} -> role
}

func (s *stubCollaborators) ResolveIdentity(_ context.Context, token string) (*storage.User, error) {
	if user, ok := s.users[token]; ok {
		return user, nil
	}
	return nil, ErrUnauthenticated
}

func (s *stubCollaborators) GetPicture(_ context.Context, id int64) (*storage.Picture, error) {
	return s.pictures[id], nil
}

func (s *stubCollaborators) GetSpace(_ context.Context, id int64) (*storage.Space, error) {
	return s.spaces[id], nil
}

func (s *stubCollaborators) RoleFor(_ context.Context, spaceID, userID int64) (string, error) {
	return s.roles[[2]int64{spaceID, userID}], nil
}

func newStubGate() (*Gate, *stubCollaborators) {
	teamSpace := int64(10)
	privateSpace := int64(11)
	missingSpace := int64(12)

	stub := &stubCollaborators{
		users: map[string]*storage.User{
			"editor-token": {ID: 1, Name: "Alice"},
			"viewer-token": {ID: 2, Name: "Bob"},
			"outsider-token": {ID: 3, Name: "Carol"},
		},
		pictures: map[int64]*storage.Picture{
			100: {ID: 100, SpaceID: &teamSpace},
			101: {ID: 101}, // public picture
			102: {ID: 102, SpaceID: &privateSpace},
			103: {ID: 103, SpaceID: &missingSpace},
		},
		spaces: map[int64]*storage.Space{
			10: {ID: 10, SpaceType: storage.SpaceTypeTeam},
			11: {ID: 11, SpaceType: storage.SpaceTypePrivate},
		},
		roles: map[[2]int64]string{
			{10, 1}: storage.RoleEditor,
			{10, 2}: storage.RoleViewer,
		},
	}
	return NewGate(stub, stub, stub, stub), stub
}

func TestGateAuthorize(t *testing.T) {
	gate, _ := newStubGate()
	ctx := context.Background()

	t.Run("editor on team space picture", func(t *testing.T) {
		user, pictureID, err := gate.Authorize(ctx, "editor-token", "100")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, int64(100), pictureID)
	})

	t.Run("any authenticated user on public picture", func(t *testing.T) {
		user, pictureID, err := gate.Authorize(ctx, "outsider-token", "101")
		require.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
		assert.Equal(t, int64(101), pictureID)
	})
}

func TestGateRejections(t *testing.T) {
	gate, _ := newStubGate()
	ctx := context.Background()

	tests := []struct {
		name      string
		token     string
		pictureID string
		wantErr   error
	}{
		{"missing picture id", "editor-token", "", ErrMissingPictureID},
		{"malformed picture id", "editor-token", "not-a-number", ErrMissingPictureID},
		{"unauthenticated", "bad-token", "100", ErrUnauthenticated},
		{"picture not found", "editor-token", "999", ErrPictureNotFound},
		{"space not found", "editor-token", "103", ErrSpaceNotFound},
		{"space not a team space", "editor-token", "102", ErrSpaceNotEditable},
		{"viewer lacks edit capability", "viewer-token", "100", ErrForbidden},
		{"non-member lacks edit capability", "outsider-token", "100", ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, pictureID, err := gate.Authorize(ctx, tt.token, tt.pictureID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, user, "no identity may leak from a rejected handshake")
			assert.Zero(t, pictureID)
		})
	}
}

func TestRoleCanEdit(t *testing.T) {
	assert.True(t, roleCanEdit(storage.RoleEditor))
	assert.True(t, roleCanEdit(storage.RoleAdmin))
	assert.False(t, roleCanEdit(storage.RoleViewer))
	assert.False(t, roleCanEdit(""))
}
