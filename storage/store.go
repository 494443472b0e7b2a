package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/picshed/picshed/internal/slogging"
)

// Store provides read access to the relational tables the collaboration
// subsystem needs: users, pictures, spaces and space membership.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an existing gorm connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// NewPostgres opens a PostgreSQL-backed store
func NewPostgres(dsn string) (*Store, error) {
	log := slogging.Get()
	log.Debug("Opening PostgreSQL connection")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	log.Debug("PostgreSQL connection established")

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetUser returns the user with the given id, or nil if absent or deleted.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("id = ? AND \"isDelete\" = 0", id).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user %d: %w", id, err)
	}
	return &user, nil
}

// GetPicture returns the picture with the given id, or nil if absent or deleted.
func (s *Store) GetPicture(ctx context.Context, id int64) (*Picture, error) {
	var picture Picture
	err := s.db.WithContext(ctx).
		Where("id = ? AND \"isDelete\" = 0", id).
		First(&picture).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query picture %d: %w", id, err)
	}
	return &picture, nil
}

// GetSpace returns the space with the given id, or nil if absent or deleted.
func (s *Store) GetSpace(ctx context.Context, id int64) (*Space, error) {
	var space Space
	err := s.db.WithContext(ctx).
		Where("id = ? AND \"isDelete\" = 0", id).
		First(&space).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query space %d: %w", id, err)
	}
	return &space, nil
}

// RoleFor returns the user's role in the space, or "" when the user is not a member.
func (s *Store) RoleFor(ctx context.Context, spaceID, userID int64) (string, error) {
	var member SpaceMember
	err := s.db.WithContext(ctx).
		Where("\"spaceId\" = ? AND \"userId\" = ?", spaceID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query membership space=%d user=%d: %w", spaceID, userID, err)
	}
	return member.Role, nil
}
