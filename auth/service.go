package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/picshed/picshed/internal/slogging"
	"github.com/picshed/picshed/storage"
)

// ErrInvalidToken is returned when a bearer token fails validation
var ErrInvalidToken = errors.New("invalid or expired token")

const userCacheTTL = 5 * time.Minute

// userCacheKey builds the Redis key for a cached user
func userCacheKey(id int64) string {
	return "cache:user:" + strconv.FormatInt(id, 10)
}

// UserLoader loads users from durable storage; satisfied by storage.Store.
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (*storage.User, error)
}

// Service validates bearer tokens and resolves them to users. Lookups go
// through a Redis cache in front of the user table.
type Service struct {
	secret []byte
	redis  *redis.Client
	users  UserLoader
}

// NewService creates an authentication service
func NewService(secret string, redisClient *redis.Client, users UserLoader) *Service {
	return &Service{
		secret: []byte(secret),
		redis:  redisClient,
		users:  users,
	}
}

// NewRedisClient opens and pings a Redis connection
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	log := slogging.Get()
	log.Debug("Initializing Redis connection to %s DB=%d", addr, db)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	log.Debug("Redis connection established")

	return client, nil
}

// ResolveIdentity validates the token and returns the authenticated user.
// The returned user carries no credential fields beyond what the table holds;
// callers put only its View() on the wire.
func (s *Service) ResolveIdentity(ctx context.Context, tokenStr string) (*storage.User, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return s.lookupUser(ctx, userID)
}

// lookupUser checks the Redis cache first and falls back to the user table.
func (s *Service) lookupUser(ctx context.Context, userID int64) (*storage.User, error) {
	log := slogging.Get()
	key := userCacheKey(userID)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			var user storage.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
			// Corrupt cache entry; fall through to storage
			log.Warn("Dropping unparseable user cache entry for user %d", userID)
			s.redis.Del(ctx, key)
		} else if !errors.Is(err, redis.Nil) {
			log.Warn("Redis user cache read failed for user %d: %v", userID, err)
		}
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	if s.redis != nil {
		if data, err := json.Marshal(user); err == nil {
			if err := s.redis.Set(ctx, key, data, userCacheTTL).Err(); err != nil {
				log.Warn("Redis user cache write failed for user %d: %v", userID, err)
			}
		}
	}

	return user, nil
}

// IssueToken mints a signed token for the user; used by tests and tooling.
func (s *Service) IssueToken(userID int64, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
