package resume

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/swarajreddy10/Resume-Canvas-sub000/cache"
)

// Renderer produces the PDF bytes for a resume.
type Renderer interface {
	Render(ctx context.Context, r *Resume) ([]byte, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, r *Resume) ([]byte, error)

func (f RendererFunc) Render(ctx context.Context, r *Resume) ([]byte, error) {
	return f(ctx, r)
}

// Documents caches rendered PDFs by resume content. Any change to the
// template, the content or UpdatedAt yields a new key, so stale PDFs are
// never served; they age out through the LRU bound or their TTL.
type Documents struct {
	cache    *cache.MemoryCache[[]byte]
	renderer Renderer
	logger   *zap.Logger
	group    singleflight.Group
}

func NewDocuments(c *cache.MemoryCache[[]byte], renderer Renderer, logger *zap.Logger) *Documents {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Documents{cache: c, renderer: renderer, logger: logger.Named("documents")}
}

// DocumentKey is the cache key of r's rendered PDF.
func DocumentKey(r *Resume) string {
	return cache.HashKey("pdf",
		r.ID.String(),
		r.Template,
		r.UpdatedAt.UTC().Format(time.RFC3339Nano),
		r.Content,
	)
}

// PDF returns the rendered document for r, rendering at most once per key
// even under concurrent requests. Render errors are returned and not cached.
func (d *Documents) PDF(ctx context.Context, r *Resume) ([]byte, error) {
	key := DocumentKey(r)
	if pdf, ok := d.cache.Get(key); ok {
		d.logger.Debug("pdf cache hit", zap.Stringer("resume_id", r.ID))
		return pdf, nil
	}

	renderCtx := context.WithoutCancel(ctx)
	v, err, shared := d.group.Do(key, func() (any, error) {
		if d.cache.Has(key) {
			if pdf, ok := d.cache.Get(key); ok {
				return pdf, nil
			}
		}

		start := time.Now()
		pdf, err := d.renderer.Render(renderCtx, r)
		if err != nil {
			return nil, err
		}
		d.cache.Set(key, pdf)
		d.logger.Debug("pdf rendered",
			zap.Stringer("resume_id", r.ID),
			zap.Int("bytes", len(pdf)),
			zap.Duration("took", time.Since(start)),
		)
		return pdf, nil
	})
	if err != nil {
		d.logger.Warn("pdf render failed", zap.Stringer("resume_id", r.ID), zap.Bool("shared", shared), zap.Error(err))
		return nil, err
	}
	return v.([]byte), nil
}

// Forget drops the cached PDF for r's current state.
func (d *Documents) Forget(r *Resume) {
	d.cache.Delete(DocumentKey(r))
}
