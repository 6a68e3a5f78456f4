package resume

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/swarajreddy10/Resume-Canvas-sub000/cache"
)

// CompletionRequest identifies one AI generation. Equal requests share a
// cached answer.
type CompletionRequest struct {
	Model       string
	Section     string
	Prompt      string
	Temperature float64
}

// Completer calls the text generation backend.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

// Completions caches generated text keyed by a fingerprint of the request.
type Completions struct {
	cache     *cache.MemoryCache[string]
	completer Completer
	logger    *zap.Logger
	group     singleflight.Group
}

func NewCompletions(c *cache.MemoryCache[string], completer Completer, logger *zap.Logger) *Completions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Completions{cache: c, completer: completer, logger: logger.Named("completions")}
}

// CompletionKey is the cache key of req.
func CompletionKey(req CompletionRequest) string {
	return cache.Fingerprint("ai", req)
}

// Complete returns the cached answer for req or asks the Completer once.
// Empty answers are returned but not cached.
func (c *Completions) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	key := CompletionKey(req)
	if text, ok := c.cache.Get(key); ok {
		return text, nil
	}

	completeCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if c.cache.Has(key) {
			if text, ok := c.cache.Get(key); ok {
				return text, nil
			}
		}
		text, err := c.completer.Complete(completeCtx, req)
		if err != nil {
			return "", err
		}
		if text != "" {
			c.cache.Set(key, text)
		}
		return text, nil
	})
	if err != nil {
		c.logger.Warn("completion failed",
			zap.String("model", req.Model),
			zap.String("section", req.Section),
			zap.Error(err),
		)
		return "", err
	}
	return v.(string), nil
}
