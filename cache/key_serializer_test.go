package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/swarajreddy10/Resume-Canvas-sub000/pkg/testsupport"
)

// TestScenario represents a test scenario loaded from fixtures
type TestScenario struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Cases       []TestCase `json:"cases"`
}

// TestCase represents individual test cases within a scenario
type TestCase struct {
	Method      string `json:"method"`
	Args        []any  `json:"args"`
	ExpectedKey string `json:"expectedKey"`
}

// TestFixtures represents the structure of the test fixture file
type TestFixtures struct {
	Scenarios []TestScenario `json:"scenarios"`
}

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

func TestDefaultKeySerializer_BasicTypes(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name   string
		method string
		args   []any
		want   string
	}{
		{name: "no args", method: "List", args: []any{}, want: "List"},
		{name: "single int", method: "GetByID", args: []any{42}, want: joinWithSeparator("GetByID", "42")},
		{
			name:   "multiple basic types",
			method: "Get",
			args:   []any{1, "hello", true, 3.14},
			want:   joinWithSeparator("Get", "1", "hello", "true", "3.14"),
		},
		{name: "empty string", method: "Get", args: []any{""}, want: joinWithSeparator("Get", "")},
		{
			name:   "string with special chars",
			method: "Search",
			args:   []any{"hello:world"},
			want:   joinWithSeparator("Search", "hello:world"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.method, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_NilValues(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name string
		arg  any
		want string
	}{
		{name: "nil interface", arg: nil, want: "nil"},
		{name: "nil pointer", arg: (*int)(nil), want: "nil"},
		{name: "nil slice", arg: ([]int)(nil), want: "slice:nil"},
		{name: "nil map", arg: (map[string]int)(nil), want: "map:nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("Get", tt.arg)
			if want := joinWithSeparator("Get", tt.want); got != want {
				t.Errorf("SerializeKey() = %v, want %v", got, want)
			}
		})
	}
}

func TestDefaultKeySerializer_Composite(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	type Section struct {
		Kind  string
		Order int
		notes string
	}

	tests := []struct {
		name string
		arg  any
		want string
	}{
		{name: "slice", arg: []int{1, 2, 3}, want: "slice[3]:{1,2,3}"},
		{name: "array", arg: [2]string{"a", "b"}, want: "array[2]:{a,b}"},
		{name: "map sorted", arg: map[string]int{"b": 2, "a": 1}, want: "map[2]:{a=1,b=2}"},
		{name: "struct skips unexported", arg: Section{Kind: "education", Order: 2, notes: "x"}, want: "struct:{Kind:education,Order:2}"},
		{name: "pointer dereferenced", arg: &Section{Kind: "skills", Order: 1}, want: "struct:{Kind:skills,Order:1}"},
		{
			name: "uuid uses its string form",
			arg:  uuid.MustParse("9b2f6a8e-1d4c-4f0e-8a53-1c2e7a9d4b10"),
			want: "9b2f6a8e-1d4c-4f0e-8a53-1c2e7a9d4b10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("Get", tt.arg)
			if want := joinWithSeparator("Get", tt.want); got != want {
				t.Errorf("SerializeKey() = %v, want %v", got, want)
			}
		})
	}
}

func TestDefaultKeySerializer_TimeUsesStringer(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	got := serializer.SerializeKey("Since", ts)
	if want := joinWithSeparator("Since", ts.String()); got != want {
		t.Errorf("SerializeKey() = %v, want %v", got, want)
	}
}

func TestDefaultKeySerializer_FunctionsAndChannels(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	fn := func() {}
	key1 := serializer.SerializeKey("GetWithFunc", fn)
	key2 := serializer.SerializeKey("GetWithFunc", fn)
	if key1 != key2 {
		t.Errorf("function serialization should be stable: %v != %v", key1, key2)
	}
	if prefix := joinWithSeparator("GetWithFunc", "func") + ":"; !strings.HasPrefix(key1, prefix) {
		t.Errorf("expected %q prefix, got %v", prefix, key1)
	}

	ch := make(chan int)
	if prefix := joinWithSeparator("GetWithChannel", "chan") + ":"; !strings.HasPrefix(serializer.SerializeKey("GetWithChannel", ch), prefix) {
		t.Errorf("expected channel to serialize with %q prefix", prefix)
	}
}

func TestDefaultKeySerializer_Fixtures(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	var fixtures TestFixtures
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("key_serializer_scenarios.json"), &fixtures)

	if len(fixtures.Scenarios) == 0 {
		t.Fatal("expected fixture scenarios")
	}

	for _, scenario := range fixtures.Scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			for _, tc := range scenario.Cases {
				if got := serializer.SerializeKey(tc.Method, tc.Args...); got != tc.ExpectedKey {
					t.Errorf("%s: SerializeKey() = %v, want %v", tc.Method, got, tc.ExpectedKey)
				}
			}
		})
	}
}

func TestHashKey(t *testing.T) {
	key := HashKey("pdf", "resume-1", "modern", "body")

	if !strings.HasPrefix(key, "pdf"+KeySeparator) {
		t.Fatalf("expected namespace prefix, got %v", key)
	}
	if digest := strings.TrimPrefix(key, "pdf"+KeySeparator); len(digest) != 16 {
		t.Errorf("expected 16 hex digits, got %q", digest)
	}
	if key != HashKey("pdf", "resume-1", "modern", "body") {
		t.Error("expected HashKey to be deterministic")
	}
	if key == HashKey("pdf", "resume-1", "classic", "body") {
		t.Error("expected different content to produce a different key")
	}
	if key == HashKey("ai", "resume-1", "modern", "body") {
		t.Error("expected namespaces to keep keys apart")
	}
	// Length prefixes keep part boundaries significant.
	if HashKey("pdf", "ab", "c") == HashKey("pdf", "a", "bc") {
		t.Error("expected part boundaries to affect the key")
	}
}

func TestFingerprint(t *testing.T) {
	type request struct {
		Model   string
		Section string
		Prompt  string
	}

	a := Fingerprint("ai", request{Model: "m", Section: "summary", Prompt: "write"})
	b := Fingerprint("ai", request{Model: "m", Section: "summary", Prompt: "write"})
	c := Fingerprint("ai", request{Model: "m", Section: "summary", Prompt: "rewrite"})

	if a != b {
		t.Errorf("expected equal requests to share a fingerprint: %v != %v", a, b)
	}
	if a == c {
		t.Error("expected different prompts to produce different fingerprints")
	}
}

func BenchmarkDefaultKeySerializer(b *testing.B) {
	serializer := NewDefaultKeySerializer()
	args := []any{1, "benchmark", []int{1, 2, 3}, map[string]int{"test": 1}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		serializer.SerializeKey("BenchmarkMethod", args...)
	}
}
