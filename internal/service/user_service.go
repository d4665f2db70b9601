package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/labwatch/labwatch-api/internal/models"
	appErrors "github.com/labwatch/labwatch-api/pkg/errors"
)

const userDirectoryCacheKey = "users:directory"

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
}

type directoryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// UserService serves the user directory. Listing is admin-gated at the
// route level; the service itself never exposes credential hashes or
// soft-deleted users.
type UserService struct {
	repo     userRepository
	cache    directoryCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewUserService creates an instance of UserService. A nil cache disables
// caching.
func NewUserService(repo userRepository, cache directoryCache, cacheTTL time.Duration, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns every visible directory user.
func (s *UserService) List(ctx context.Context) ([]models.UserInfo, error) {
	if s.cache != nil {
		var cached []models.UserInfo
		err := s.cache.Get(ctx, userDirectoryCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("user directory cache read failed", zap.Error(err))
		}
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	infos := make([]models.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].Info())
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userDirectoryCacheKey, infos, s.cacheTTL); err != nil {
			s.logger.Warn("user directory cache write failed", zap.Error(err))
		}
	}

	return infos, nil
}
