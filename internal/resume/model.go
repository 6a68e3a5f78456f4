// Package resume holds the resume model, its persistence and the cached
// document and completion services built on top of it.
package resume

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultTemplate is used when a resume is stored without one.
const DefaultTemplate = "modern"

// Resume is a user's resume document.
type Resume struct {
	bun.BaseModel `bun:"table:resumes,alias:r"`

	ID        uuid.UUID `bun:"id,pk,type:varchar(36)" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	Title     string    `bun:"title,notnull" json:"title"`
	Slug      string    `bun:"slug,unique,notnull" json:"slug"`
	Template  string    `bun:"template,notnull" json:"template"`
	Content   string    `bun:"content" json:"content"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*Resume)(nil)

// BeforeAppendModel assigns an ID and the template default on insert and
// stamps UpdatedAt on every write. UpdatedAt is part of the document cache
// key, so each update renders a fresh PDF.
func (r *Resume) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()

	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.Template == "" {
			r.Template = DefaultTemplate
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		r.UpdatedAt = now
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}
