package repositorycache

import (
	"context"
	"strings"
)

type cacheTagsContextKey struct{}

// WithCacheTags attaches cache tags to ctx. Reads made through a
// CachedRepository with the returned context are registered under each tag
// and can later be dropped together with InvalidateTags.
//
//	ctx = repositorycache.WithCacheTags(ctx, "user:"+userID)
//	resumes, total, err := repo.List(ctx, byUser(userID))
//	...
//	repo.InvalidateTags(ctx, "user:"+userID)
func WithCacheTags(ctx context.Context, tags ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	combined := dedupeStrings(append(cacheTagsFromContext(ctx), tags...))
	if len(combined) == 0 {
		return ctx
	}
	return context.WithValue(ctx, cacheTagsContextKey{}, combined)
}

type keyScopeContextKey struct{}

// WithKeyScope keys every read made with the returned context by parts
// instead of its criteria. Function criteria serialize as a code pointer,
// which neither tells closures with different captured values apart nor
// stays the same across call sites. The scope must therefore identify
// everything the criteria select on:
//
//	ctx = repositorycache.WithKeyScope(ctx, "user="+userID)
//	list, total, err := repo.List(ctx, byUser(userID))
func WithKeyScope(ctx context.Context, parts ...string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(parts) == 0 {
		return ctx
	}

	combined := append(keyScopeFromContext(ctx), parts...)
	return context.WithValue(ctx, keyScopeContextKey{}, combined)
}

func keyScopeFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if parts, ok := ctx.Value(keyScopeContextKey{}).([]string); ok {
		return append([]string(nil), parts...)
	}
	return nil
}

func cacheTagsFromContext(ctx context.Context) []string {
	if ctx == nil {
		return nil
	}
	if tags, ok := ctx.Value(cacheTagsContextKey{}).([]string); ok {
		return append([]string(nil), tags...)
	}
	return nil
}

// dedupeStrings trims values, drops blanks and keeps the first occurrence of
// each, preserving order.
func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
