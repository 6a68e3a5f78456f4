package resume

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewRepository returns the bun backed resume repository.
func NewRepository(db *bun.DB) repository.Repository[*Resume] {
	return repository.NewRepository[*Resume](db, repository.ModelHandlers[*Resume]{
		NewRecord: func() *Resume {
			return &Resume{}
		},
		GetID: func(r *Resume) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Resume, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
	})
}

// Migrate creates the resumes table and its user index when missing.
func Migrate(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*Resume)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	_, err := db.NewCreateIndex().
		Model((*Resume)(nil)).
		Index("resumes_user_id_idx").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	return err
}

// ByUser limits a query to the resumes owned by userID. Function criteria
// make poor cache keys, so cached reads using it must be keyed with
// repositorycache.WithKeyScope; Store does this.
func ByUser(userID string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.user_id = ?", userID)
	}
}

// Newest orders resumes by last update, most recent first.
func Newest() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("updated_at DESC")
	}
}
