package storage

// Role values for space membership.
const (
	RoleViewer = "viewer"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// Space types.
const (
	SpaceTypePrivate = 0
	SpaceTypeTeam    = 1
)

// User is an account row. Credential fields never leave this package;
// callers get a UserView instead.
type User struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	Account  string `gorm:"column:userAccount"`
	Password string `gorm:"column:userPassword"`
	Name     string `gorm:"column:userName"`
	Avatar   string `gorm:"column:userAvatar"`
	Role     string `gorm:"column:userRole"`
	IsDelete int    `gorm:"column:isDelete"`
}

// TableName maps User to the legacy table name
func (User) TableName() string { return "user" }

// View returns the public projection of a user, safe to put on the wire.
func (u *User) View() *UserView {
	return &UserView{
		ID:     u.ID,
		Name:   u.Name,
		Avatar: u.Avatar,
	}
}

// UserView is the public user projection used in broadcasts. IDs are
// marshaled as strings so 64-bit values survive JavaScript clients.
type UserView struct {
	ID     int64  `json:"id,string"`
	Name   string `json:"userName"`
	Avatar string `json:"userAvatar,omitempty"`
}

// Picture is a stored picture. SpaceID is nil for public-gallery pictures.
type Picture struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	Name     string `gorm:"column:name"`
	URL      string `gorm:"column:url"`
	SpaceID  *int64 `gorm:"column:spaceId"`
	UserID   int64  `gorm:"column:userId"`
	IsDelete int    `gorm:"column:isDelete"`
}

// TableName maps Picture to the legacy table name
func (Picture) TableName() string { return "picture" }

// Space is a picture container. Only team spaces support collaborative editing.
type Space struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Name      string `gorm:"column:spaceName"`
	SpaceType int    `gorm:"column:spaceType"`
	UserID    int64  `gorm:"column:userId"`
	IsDelete  int    `gorm:"column:isDelete"`
}

// TableName maps Space to the legacy table name
func (Space) TableName() string { return "space" }

// SpaceMember links a user to a space with a role.
type SpaceMember struct {
	ID      int64  `gorm:"column:id;primaryKey"`
	SpaceID int64  `gorm:"column:spaceId"`
	UserID  int64  `gorm:"column:userId"`
	Role    string `gorm:"column:spaceRole"`
}

// TableName maps SpaceMember to the legacy table name
func (SpaceMember) TableName() string { return "space_user" }
