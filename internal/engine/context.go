package engine

import (
	"strings"

	"github.com/jacoelho/pathq/internal/evaluator"
)

// cacheKey hashes the document identity into a 32-bit key. The hash is
// the classic polynomial rolling hash over code points with wrapping
// 32-bit arithmetic, so distinct documents of the same type collide
// only rarely and equal content always maps to the same slot.
func cacheKey(documentType, queryLanguage, content string) int32 {
	var h int32
	for _, r := range documentType + ":" + queryLanguage + ":" + content {
		h = h*31 + int32(r)
	}
	return h
}

// parseQueryContext locates the comma-delimited sub-expression that
// contains the cursor. A negative cursor means end of input. The
// current expression excludes its leading whitespace so replacement
// offsets splice cleanly.
func parseQueryContext(queryInput string, cursor int) evaluator.Context {
	if cursor < 0 || cursor > len(queryInput) {
		cursor = len(queryInput)
	}

	start := 0
	if idx := strings.LastIndexByte(queryInput[:cursor], ','); idx >= 0 {
		start = idx + 1
	}
	end := len(queryInput)
	if idx := strings.IndexByte(queryInput[cursor:], ','); idx >= 0 {
		end = cursor + idx
	}

	for start < end && (queryInput[start] == ' ' || queryInput[start] == '\t') {
		start++
	}

	return evaluator.Context{
		FullQuery:         queryInput,
		CurrentExpression: queryInput[start:end],
		CursorPosition:    cursor,
		ExpressionStart:   start,
		ExpressionEnd:     end,
		BeforeExpression:  queryInput[:start],
		AfterExpression:   queryInput[end:],
	}
}
