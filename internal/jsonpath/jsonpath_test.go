package jsonpath

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/jacoelho/pathq/internal/evaluator"
)

const storeJSON = `{
	"store": {
		"book": [
			{"author": "Nigel Rees", "title": "Sayings of the Century", "price": 8.95},
			{"author": "Evelyn Waugh", "title": "Sword of Honour", "price": 12.99},
			{"author": "Herman Melville", "title": "Moby Dick", "price": 8.99},
			{"author": "J. R. R. Tolkien", "title": "The Lord of the Rings", "price": 22.99}
		],
		"bicycle": {"color": "red", "price": 19.95}
	}
}`

func storeDocument(t *testing.T) any {
	t.Helper()
	var document any
	if err := json.Unmarshal([]byte(storeJSON), &document); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	return document
}

func suggestionTexts(suggestions []evaluator.Suggestion) []string {
	texts := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		texts = append(texts, s.Text)
	}
	return texts
}

func containsText(suggestions []evaluator.Suggestion, text string) bool {
	for _, s := range suggestions {
		if s.Text == text {
			return true
		}
	}
	return false
}

func TestEvaluate(t *testing.T) {
	document := storeDocument(t)

	tests := []struct {
		name  string
		query string
		want  []any
	}{
		{"property chain", "$.store.bicycle.color", []any{"red"}},
		{"array index", "$.store.book[0].author", []any{"Nigel Rees"}},
		{"wildcard", "$.store.book[*].author", []any{"Nigel Rees", "Evelyn Waugh", "Herman Melville", "J. R. R. Tolkien"}},
	}

	engines := map[string]*Evaluator{
		"external": New(),
		"fallback": New(WithFallbackEngine()),
	}

	for engineName, e := range engines {
		for _, tt := range tests {
			t.Run(engineName+"/"+tt.name, func(t *testing.T) {
				got, err := e.Evaluate(document, tt.query)
				if err != nil {
					t.Fatalf("Evaluate() error = %v", err)
				}
				if !reflect.DeepEqual(got, tt.want) {
					t.Errorf("Evaluate() = %v, want %v", got, tt.want)
				}
			})
		}
	}
}

func TestEvaluateUnion(t *testing.T) {
	e := New()
	document := map[string]any{"a": []any{1.0}, "b": []any{2.0}}

	got, err := e.Evaluate(document, "$.a[0],$.b[0]")
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !reflect.DeepEqual(got, []any{1.0, 2.0}) {
		t.Errorf("Evaluate(union) = %v, want [1 2]", got)
	}
}

func TestEvaluateUnionShortCircuits(t *testing.T) {
	e := New(WithFallbackEngine())
	document := storeDocument(t)

	if _, err := e.Evaluate(document, "$.store, $.[broken"); err == nil {
		t.Error("Evaluate() error = nil, want first failing sub-expression to short-circuit")
	}
}

func TestEvaluateErrors(t *testing.T) {
	e := New()

	_, err := e.Evaluate(map[string]any{}, "")
	if !errors.Is(err, evaluator.ErrEvaluate) {
		t.Errorf("Evaluate(empty) error = %v, want ErrEvaluate", err)
	}
}

func TestFallbackCapabilityGap(t *testing.T) {
	e := New(WithFallbackEngine())
	document := storeDocument(t)

	// Filters, slices and recursive descent are deliberately out of the
	// fallback walker's reach.
	for _, query := range []string{
		"$..author",
		"$.store.book[0:2]",
		"$.store.book[?(@.price > 10)]",
	} {
		if _, err := e.Evaluate(document, query); err == nil {
			t.Errorf("Evaluate(%q) error = nil, want unsupported", query)
		}
	}
}

func TestValidateQuery(t *testing.T) {
	e := New()

	tests := []struct {
		name      string
		query     string
		wantValid bool
	}{
		{"simple", "$.store.book", true},
		{"union", "$.a, $.b", true},
		{"recursive descent rejected", "$..author", false},
		{"missing root", "store.book", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ValidateQuery(tt.query)
			if got.Valid != tt.wantValid {
				t.Errorf("ValidateQuery(%q).Valid = %v, want %v (error %q)", tt.query, got.Valid, tt.wantValid, got.Error)
			}
			if !tt.wantValid && got.Error == "" {
				t.Error("invalid result carries no error message")
			}
		})
	}
}

func TestScoreBounds(t *testing.T) {
	inputs := []string{"", "a", "auth", "author", "xyz", "uthor", "aethor", "tile"}
	candidates := []string{"author", "title", "price", "a", "authorization"}

	for _, input := range inputs {
		for _, candidate := range candidates {
			score := Score(input, candidate)
			if score < 0 || score > 100 {
				t.Errorf("Score(%q, %q) = %d, out of [0,100]", input, candidate, score)
			}
		}
	}
}

func TestScoreTiers(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		candidate string
		want      int
	}{
		{"exact", "author", "author", 100},
		{"exact case-insensitive", "Author", "author", 100},
		{"prefix", "auth", "author", 90},
		{"no match", "xyz", "author", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.input, tt.candidate); got != tt.want {
				t.Errorf("Score(%q, %q) = %d, want %d", tt.input, tt.candidate, got, tt.want)
			}
		})
	}
}

func TestScoreSubsequence(t *testing.T) {
	// A close subsequence scores above the discard threshold but below
	// the prefix tier.
	score := Score("uthor", "author")
	if score <= fuzzyThreshold || score >= 90 {
		t.Errorf("Score(uthor, author) = %d, want in (%d, 90)", score, fuzzyThreshold)
	}
}

func TestSuggestRootObject(t *testing.T) {
	e := New()
	document := storeDocument(t)

	for _, partial := range []string{"", "$"} {
		got, err := e.Suggest(context.Background(), document, partial, evaluator.Context{}, nil)
		if err != nil {
			t.Fatalf("Suggest(%q) error = %v", partial, err)
		}
		texts := suggestionTexts(got)
		if !reflect.DeepEqual(texts, []string{"$.store", "$..*"}) {
			t.Errorf("Suggest(%q) = %v, want [$.store $..*]", partial, texts)
		}
	}
}

func TestSuggestRootArray(t *testing.T) {
	e := New()
	document := []any{1.0, 2.0, 3.0}

	got, _ := e.Suggest(context.Background(), document, "$", evaluator.Context{}, nil)
	texts := suggestionTexts(got)
	want := []string{"$[0]", "$[*]", "$[(@.length-1)]", "$[1]"}
	if !reflect.DeepEqual(texts, want) {
		t.Errorf("Suggest($) = %v, want %v", texts, want)
	}
}

func TestSuggestTrailingDot(t *testing.T) {
	e := New()
	document := storeDocument(t)

	got, _ := e.Suggest(context.Background(), document, "$.store.", evaluator.Context{}, nil)
	texts := suggestionTexts(got)
	if !reflect.DeepEqual(texts, []string{"book", "bicycle"}) {
		t.Errorf("Suggest($.store.) = %v, want [book bicycle]", texts)
	}

	for _, s := range got {
		if s.Text == "book" && s.InsertText != "$.store.book" {
			t.Errorf("InsertText = %q, want $.store.book", s.InsertText)
		}
	}
}

func TestSuggestTrailingDotOnArray(t *testing.T) {
	e := New()
	document := storeDocument(t)

	got, _ := e.Suggest(context.Background(), document, "$.store.book.", evaluator.Context{}, nil)
	if !containsText(got, "[0]") || !containsText(got, "[*]") {
		t.Errorf("Suggest($.store.book.) = %v, want index suggestions", suggestionTexts(got))
	}
}

func TestSuggestTrailingBracket(t *testing.T) {
	e := New()
	document := storeDocument(t)

	got, _ := e.Suggest(context.Background(), document, "$.store.book[", evaluator.Context{}, nil)
	texts := suggestionTexts(got)

	for _, want := range []string{"[0]", "[*]", "[(@.length-1)]", "[0:2]"} {
		if !containsText(got, want) {
			t.Errorf("Suggest($.store.book[) = %v, missing %q", texts, want)
		}
	}

	// Sampled filters are seeded from the first element: author is a
	// string, price a number.
	var sawExistence, sawEquality bool
	for _, s := range got {
		if s.Text == "?(@.author)" {
			sawExistence = true
		}
		if s.Text == "?(@.author == 'Nigel Rees')" {
			sawEquality = true
		}
	}
	if !sawExistence && !sawEquality {
		t.Errorf("Suggest($.store.book[) = %v, missing sampled filters", texts)
	}
}

func TestSuggestFuzzyPartialProperty(t *testing.T) {
	e := New()
	document := storeDocument(t)

	// Scenario: typing a prefix of sibling keys.
	got, _ := e.Suggest(context.Background(), document, "$.store.b", evaluator.Context{}, nil)
	if !containsText(got, "book") || !containsText(got, "bicycle") {
		t.Errorf("Suggest($.store.b) = %v, want book and bicycle", suggestionTexts(got))
	}

	// Scenario: fuzzy subsequence match on a deeper path.
	got, _ = e.Suggest(context.Background(), document, "$.store.book[0].auth", evaluator.Context{}, nil)
	if !containsText(got, "author") {
		t.Errorf("Suggest($.store.book[0].auth) = %v, want author", suggestionTexts(got))
	}
}

func TestSuggestPipeFunctions(t *testing.T) {
	e := New()
	document := storeDocument(t)

	got, _ := e.Suggest(context.Background(), document, "$.store.book[*].author | u", evaluator.Context{}, nil)
	if !containsText(got, "uniq") {
		t.Errorf("Suggest(| u) = %v, want uniq", suggestionTexts(got))
	}
	if containsText(got, "keys") {
		t.Errorf("Suggest(| u) = %v, keys should be filtered out", suggestionTexts(got))
	}

	disabled := New(WithoutPipeFunctions())
	if got, _ := disabled.Suggest(context.Background(), document, "$.x | ", evaluator.Context{}, nil); len(got) != 0 {
		t.Errorf("Suggest with pipes disabled = %v, want empty", suggestionTexts(got))
	}
}

func TestSuggestSelectKeys(t *testing.T) {
	e := New()
	document := storeDocument(t)

	got, _ := e.Suggest(context.Background(), document, "$.store.book[*] | select(au", evaluator.Context{}, nil)
	if !containsText(got, "author") {
		t.Errorf("Suggest(select() = %v, want author", suggestionTexts(got))
	}
}

func TestSuggestFilterTemplates(t *testing.T) {
	e := New()
	document := storeDocument(t)

	got, _ := e.Suggest(context.Background(), document, "$.store.book[?", evaluator.Context{}, nil)
	if !containsText(got, "?(@.property)") {
		t.Errorf("Suggest([?) = %v, want filter templates", suggestionTexts(got))
	}
	for _, s := range got {
		if s.Text == "?(@.property)" && s.InsertText != "$.store.book[?(@.property)]" {
			t.Errorf("InsertText = %q, want full bracketed expression", s.InsertText)
		}
	}
}

type stubHistory struct {
	tool    string
	partial string
	out     []evaluator.Suggestion
	err     error
}

func (s *stubHistory) Suggest(_ context.Context, tool, partial string) ([]evaluator.Suggestion, error) {
	s.tool = tool
	s.partial = partial
	return s.out, s.err
}

func TestSuggestCompareDelegatesToHistory(t *testing.T) {
	history := &stubHistory{out: []evaluator.Suggestion{{Text: "run-42"}}}
	e := New(WithHistorySource(history))

	got, _ := e.Suggest(context.Background(), map[string]any{}, "$.x | compare(", evaluator.Context{Tool: "diff"}, nil)
	if !containsText(got, "run-42") {
		t.Errorf("Suggest(compare() = %v, want history result", suggestionTexts(got))
	}
	if history.tool != "diff" {
		t.Errorf("history tool = %q, want diff", history.tool)
	}
}

func TestSuggestCompareFailSoft(t *testing.T) {
	history := &stubHistory{err: errors.New("network down")}
	e := New(WithHistorySource(history))

	got, err := e.Suggest(context.Background(), map[string]any{}, "$.x | compare(", evaluator.Context{}, nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Suggest() = (%v, %v), want fail-soft empty", got, err)
	}

	// No source configured at all.
	plain := New()
	if got, _ := plain.Suggest(context.Background(), map[string]any{}, "compare(", evaluator.Context{}, nil); len(got) != 0 {
		t.Errorf("Suggest without history source = %v, want empty", got)
	}
}

func TestSuggestUnmatchedInput(t *testing.T) {
	e := New()

	got, err := e.Suggest(context.Background(), storeDocument(t), "]][[", evaluator.Context{}, nil)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Suggest(garbage) = %v, want empty", suggestionTexts(got))
	}
}
