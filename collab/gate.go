package collab

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/picshed/picshed/internal/slogging"
	"github.com/picshed/picshed/storage"
)

// Handshake rejection reasons. All of them refuse the upgrade; no session
// state exists until the gate has passed.
var (
	ErrMissingPictureID = errors.New("missing or malformed picture id")
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrPictureNotFound  = errors.New("picture not found")
	ErrSpaceNotFound    = errors.New("space not found")
	ErrSpaceNotEditable = errors.New("space does not support collaborative editing")
	ErrForbidden        = errors.New("no edit permission for this picture")
)

// IdentityResolver turns a bearer token into an authenticated user.
// Satisfied by auth.Service.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (*storage.User, error)
}

// PictureFinder looks up pictures. Satisfied by storage.Store.
type PictureFinder interface {
	GetPicture(ctx context.Context, id int64) (*storage.Picture, error)
}

// SpaceFinder looks up spaces. Satisfied by storage.Store.
type SpaceFinder interface {
	GetSpace(ctx context.Context, id int64) (*storage.Space, error)
}

// MembershipRoles answers what role a user holds in a space. Satisfied by
// storage.Store.
type MembershipRoles interface {
	RoleFor(ctx context.Context, spaceID, userID int64) (string, error)
}

// Gate validates a connection attempt before the websocket upgrade. It runs
// once per handshake and has no side effects; registry insertion happens
// afterwards in the connect path.
type Gate struct {
	identity IdentityResolver
	pictures PictureFinder
	spaces   SpaceFinder
	roles    MembershipRoles
}

// NewGate creates an authorization gate from its collaborators
func NewGate(identity IdentityResolver, pictures PictureFinder, spaces SpaceFinder, roles MembershipRoles) *Gate {
	return &Gate{
		identity: identity,
		pictures: pictures,
		spaces:   spaces,
		roles:    roles,
	}
}

// Authorize checks, in order: picture id present and well-formed, token
// resolves to a user, picture exists, and - when the picture lives in a
// space - the space exists, is a team space, and the user's role there
// grants editing. On success it returns the identity and picture id to
// attach to the new session.
func (g *Gate) Authorize(ctx context.Context, token, pictureIDParam string) (*storage.User, int64, error) {
	log := slogging.Get()

	if pictureIDParam == "" {
		log.Warn("Rejecting handshake: missing picture id")
		return nil, 0, ErrMissingPictureID
	}
	pictureID, err := strconv.ParseInt(pictureIDParam, 10, 64)
	if err != nil {
		log.Warn("Rejecting handshake: malformed picture id %q", pictureIDParam)
		return nil, 0, ErrMissingPictureID
	}

	user, err := g.identity.ResolveIdentity(ctx, token)
	if err != nil {
		log.Warn("Rejecting handshake for picture %d: %v", pictureID, err)
		return nil, 0, ErrUnauthenticated
	}

	picture, err := g.pictures.GetPicture(ctx, pictureID)
	if err != nil {
		return nil, 0, fmt.Errorf("picture lookup failed: %w", err)
	}
	if picture == nil {
		log.Warn("Rejecting handshake: picture %d not found", pictureID)
		return nil, 0, ErrPictureNotFound
	}

	if picture.SpaceID != nil {
		space, err := g.spaces.GetSpace(ctx, *picture.SpaceID)
		if err != nil {
			return nil, 0, fmt.Errorf("space lookup failed: %w", err)
		}
		if space == nil {
			log.Warn("Rejecting handshake: space %d for picture %d not found", *picture.SpaceID, pictureID)
			return nil, 0, ErrSpaceNotFound
		}
		if space.SpaceType != storage.SpaceTypeTeam {
			log.Warn("Rejecting handshake: space %d is not a team space", space.ID)
			return nil, 0, ErrSpaceNotEditable
		}

		role, err := g.roles.RoleFor(ctx, space.ID, user.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("membership lookup failed: %w", err)
		}
		if !roleCanEdit(role) {
			log.Warn("Rejecting handshake: user %d has role %q in space %d", user.ID, role, space.ID)
			return nil, 0, ErrForbidden
		}
	}

	return user, pictureID, nil
}

// roleCanEdit reports whether a space role grants picture editing
func roleCanEdit(role string) bool {
	return role == storage.RoleEditor || role == storage.RoleAdmin
}
