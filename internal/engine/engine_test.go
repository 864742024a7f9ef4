package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/jacoelho/pathq/internal/evaluator"
	"github.com/jacoelho/pathq/internal/parser"
)

const storeJSON = `{
	"store": {
		"book": [
			{"author": "Nigel Rees", "title": "Sayings of the Century"},
			{"author": "Evelyn Waugh", "title": "Sword of Honour"},
			{"author": "Herman Melville", "title": "Moby Dick"},
			{"author": "J. R. R. Tolkien", "title": "The Lord of the Rings"}
		],
		"bicycle": {"color": "red"}
	}
}`

func newTestEngine(t *testing.T, language string, opts Options) *Engine {
	t.Helper()
	e, err := New("json", language, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name          string
		documentType  string
		queryLanguage string
		wantErr       error
	}{
		{"unknown document type", "toml", "jsonpath", parser.ErrUnsupportedType},
		{"unknown query language", "json", "xpath", evaluator.ErrUnsupportedLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.documentType, tt.queryLanguage, Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New(%q, %q) error = %v, want %v", tt.documentType, tt.queryLanguage, err, tt.wantErr)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})

	if ok := e.Initialize(storeJSON); !ok {
		t.Fatal("Initialize() = false, want true")
	}

	info := e.Info()
	if !info.IsInitialized {
		t.Error("Info().IsInitialized = false after Initialize")
	}
	if info.CacheSize != 1 {
		t.Errorf("Info().CacheSize = %d, want 1", info.CacheSize)
	}
	if info.AvailablePathsCount == 0 {
		t.Error("Info().AvailablePathsCount = 0, want paths extracted")
	}
}

func TestInitializeInvalidContent(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})

	if ok := e.Initialize("{not json"); ok {
		t.Fatal("Initialize(invalid) = true, want false")
	}
	if _, err := e.ExecuteQuery("$.a"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ExecuteQuery() error = %v, want ErrNotInitialized", err)
	}
}

func TestInitializeCacheHit(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})

	e.Initialize(storeJSON)
	e.Initialize(storeJSON)

	if size := e.Info().CacheSize; size != 1 {
		t.Errorf("CacheSize = %d after re-initializing same content, want 1", size)
	}
}

func TestCacheEviction(t *testing.T) {
	const maxCacheSize = 3
	e := newTestEngine(t, "jsonpath", Options{MaxCacheSize: maxCacheSize})

	for i := 0; i < maxCacheSize+4; i++ {
		if ok := e.Initialize(fmt.Sprintf(`{"key%d": %d}`, i, i)); !ok {
			t.Fatalf("Initialize(#%d) = false", i)
		}
	}

	if size := e.Info().CacheSize; size != maxCacheSize {
		t.Errorf("CacheSize = %d, want %d", size, maxCacheSize)
	}
}

func TestRootSuggestionEquivalence(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})
	e.Initialize(storeJSON)
	ctx := context.Background()

	viaEmpty := e.GetSuggestions(ctx, "", -1)
	viaRoot := e.GetRootSuggestions(ctx)

	texts := func(suggestions []evaluator.Suggestion) []string {
		out := make([]string, 0, len(suggestions))
		for _, s := range suggestions {
			out = append(out, s.Text)
		}
		return out
	}
	if !reflect.DeepEqual(texts(viaEmpty), texts(viaRoot)) {
		t.Errorf("GetSuggestions(\"\") = %v, GetRootSuggestions() = %v", texts(viaEmpty), texts(viaRoot))
	}
}

func TestGetSuggestionsFuzzy(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})
	e.Initialize(storeJSON)

	got := e.GetSuggestions(context.Background(), "$.store.b", 9)

	found := map[string]bool{}
	for _, s := range got {
		found[s.Text] = true
		if s.ReplaceStart != 0 || s.ReplaceEnd != 9 {
			t.Errorf("replacement range = [%d, %d), want [0, 9)", s.ReplaceStart, s.ReplaceEnd)
		}
	}
	if !found["book"] || !found["bicycle"] {
		t.Errorf("GetSuggestions($.store.b) = %v, want book and bicycle", got)
	}
}

func TestGetSuggestionsUnionContext(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})
	e.Initialize(`{"a": 1, "b": 2}`)

	got := e.GetSuggestions(context.Background(), "$.a, $.b", -1)
	if len(got) == 0 {
		t.Fatal("GetSuggestions() returned no suggestions for second union branch")
	}
	for _, s := range got {
		if s.ReplaceStart != 5 || s.ReplaceEnd != 8 {
			t.Errorf("replacement range = [%d, %d), want [5, 8)", s.ReplaceStart, s.ReplaceEnd)
		}
	}
	if got[0].Text != "b" {
		t.Errorf("GetSuggestions()[0].Text = %q, want %q", got[0].Text, "b")
	}
}

func TestExecuteQuery(t *testing.T) {
	t.Run("jsonpath", func(t *testing.T) {
		e := newTestEngine(t, "jsonpath", Options{})
		e.Initialize(storeJSON)

		got, err := e.ExecuteQuery("$.store.bicycle.color")
		if err != nil {
			t.Fatalf("ExecuteQuery() error = %v", err)
		}
		if !reflect.DeepEqual(got, []any{"red"}) {
			t.Errorf("ExecuteQuery() = %v, want [red]", got)
		}
	})

	t.Run("yq", func(t *testing.T) {
		e := newTestEngine(t, "yq", Options{})
		e.Initialize(storeJSON)

		got, err := e.ExecuteQuery(".store.book[-1].title")
		if err != nil {
			t.Fatalf("ExecuteQuery() error = %v", err)
		}
		if !reflect.DeepEqual(got, []any{"The Lord of the Rings"}) {
			t.Errorf("ExecuteQuery() = %v, want [The Lord of the Rings]", got)
		}
	})
}

func TestValidateQuery(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})

	if _, err := e.ValidateQuery("$.a"); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("ValidateQuery() before Initialize error = %v, want ErrNotInitialized", err)
	}

	e.Initialize(storeJSON)
	result, err := e.ValidateQuery("$.store.book")
	if err != nil {
		t.Fatalf("ValidateQuery() error = %v", err)
	}
	if !result.Valid {
		t.Errorf("ValidateQuery($.store.book).Valid = false, want true")
	}
}

func TestReset(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})
	e.Initialize(storeJSON)

	e.Reset()

	info := e.Info()
	if info.IsInitialized || info.CacheSize != 0 || info.AvailablePathsCount != 0 {
		t.Errorf("Info() after Reset = %+v, want uninitialized empty engine", info)
	}
	if got := e.GetSuggestions(context.Background(), "$.store.b", -1); len(got) != 0 {
		t.Errorf("GetSuggestions() after Reset = %v, want empty", got)
	}
}

func TestInfo(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})

	info := e.Info()
	if info.EngineID == "" {
		t.Error("Info().EngineID is empty")
	}
	if info.DocumentType != "json" || info.QueryLanguage != "jsonpath" {
		t.Errorf("Info() kinds = %q/%q, want json/jsonpath", info.DocumentType, info.QueryLanguage)
	}
	if len(info.SupportedFeatures) == 0 {
		t.Error("Info().SupportedFeatures is empty")
	}
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("json", "jsonpath", `{"a": 1}`)
	if b := cacheKey("json", "jsonpath", `{"a": 1}`); a != b {
		t.Errorf("cacheKey not deterministic: %d != %d", a, b)
	}
	if b := cacheKey("json", "jsonpath", `{"a": 2}`); a == b {
		t.Error("cacheKey collides for different content")
	}
	if b := cacheKey("yaml", "jsonpath", `{"a": 1}`); a == b {
		t.Error("cacheKey collides for different document types")
	}
}

func TestParseQueryContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		cursor     int
		wantExpr   string
		wantStart  int
		wantEnd    int
		wantCursor int
	}{
		{"whole query", "$.a.b", -1, "$.a.b", 0, 5, 5},
		{"first branch", "$.a, $.b", 2, "$.a", 0, 3, 2},
		{"second branch", "$.a, $.b", 7, "$.b", 5, 8, 7},
		{"cursor past end clamps", "$.a", 99, "$.a", 0, 3, 3},
		{"empty query", "", -1, "", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseQueryContext(tt.query, tt.cursor)
			if got.CurrentExpression != tt.wantExpr {
				t.Errorf("CurrentExpression = %q, want %q", got.CurrentExpression, tt.wantExpr)
			}
			if got.ExpressionStart != tt.wantStart || got.ExpressionEnd != tt.wantEnd {
				t.Errorf("range = [%d, %d), want [%d, %d)", got.ExpressionStart, got.ExpressionEnd, tt.wantStart, tt.wantEnd)
			}
			if got.CursorPosition != tt.wantCursor {
				t.Errorf("CursorPosition = %d, want %d", got.CursorPosition, tt.wantCursor)
			}
		})
	}
}

func TestThrottle(t *testing.T) {
	e := newTestEngine(t, "jsonpath", Options{})
	if e.Throttle() == nil {
		t.Fatal("Throttle() = nil")
	}
	if !e.Throttle().Allow() {
		t.Error("first Allow() = false, want true")
	}
}
