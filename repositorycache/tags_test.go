package repositorycache

import (
	"context"
	"reflect"
	"testing"
)

func TestWithCacheTags(t *testing.T) {
	ctx := WithCacheTags(context.Background(), "user:1", " user:1 ", "")
	ctx = WithCacheTags(ctx, "resume:9", "user:1")

	got := cacheTagsFromContext(ctx)
	want := []string{"user:1", "resume:9"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}

	plain := context.Background()
	if WithCacheTags(plain) != plain {
		t.Error("expected context to be returned unchanged without tags")
	}

	//nolint:staticcheck // nil context is accepted on purpose
	if tags := cacheTagsFromContext(WithCacheTags(nil, "a")); len(tags) != 1 {
		t.Errorf("expected nil context to be replaced, got %v", tags)
	}
}

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"Resume":          "resume",
		"ResumeSection":   "resume_section",
		"HTTPRequest":     "http_request",
		"Page[int]":       "page_int",
		"*resume.Resume":  "resume_resume",
		"Version2Draft":   "version_2_draft",
		"already_snake":   "already_snake",
		"kebab-case name": "kebab_case_name",
		"":                "",
	}

	for in, want := range tests {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
