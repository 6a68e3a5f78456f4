package resume

import (
	"context"

	"go.uber.org/zap"

	"github.com/swarajreddy10/Resume-Canvas-sub000/repositorycache"
)

// UserTag is the cache tag under which a user's resume reads are registered.
func UserTag(userID string) string {
	return "user:" + userID
}

// Store is the cached resume access path used by handlers. Records returned
// from the cache are shared; callers must not mutate them.
type Store struct {
	repo   *repositorycache.CachedRepository[*Resume]
	logger *zap.Logger
}

func NewStore(repo *repositorycache.CachedRepository[*Resume], logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{repo: repo, logger: logger.Named("resume")}
}

func (s *Store) Get(ctx context.Context, id string) (*Resume, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Store) BySlug(ctx context.Context, slug string) (*Resume, error) {
	return s.repo.GetByIdentifier(ctx, slug)
}

// ListByUser returns userID's resumes, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*Resume, int, error) {
	ctx = repositorycache.WithCacheTags(ctx, UserTag(userID))
	ctx = repositorycache.WithKeyScope(ctx, "user="+userID)
	return s.repo.List(ctx, ByUser(userID), Newest())
}

func (s *Store) Create(ctx context.Context, r *Resume) (*Resume, error) {
	created, err := s.repo.Create(ctx, r)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("resume created", zap.Stringer("id", created.ID), zap.String("user_id", created.UserID))
	return created, nil
}

func (s *Store) Update(ctx context.Context, r *Resume) (*Resume, error) {
	return s.repo.Update(ctx, r)
}

func (s *Store) Delete(ctx context.Context, r *Resume) error {
	return s.repo.Delete(ctx, r)
}

// ForgetUser drops every cached list read for userID.
func (s *Store) ForgetUser(ctx context.Context, userID string) error {
	return s.repo.InvalidateTags(ctx, UserTag(userID))
}
