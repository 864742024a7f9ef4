package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jacoelho/pathq/internal/config"
	"github.com/jacoelho/pathq/internal/engine"
	"github.com/jacoelho/pathq/internal/evaluator"
	"github.com/jacoelho/pathq/internal/exit"
	"github.com/jacoelho/pathq/internal/jsonpath"
	"github.com/jacoelho/pathq/internal/logger"
	"github.com/jacoelho/pathq/internal/pipefn"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, exitResult := config.Parse(os.Args)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}

	if err := logger.Initialize(cfg.Debug); err != nil {
		exit.Errorf("Error: failed to initialize logging: %v\n", err).Print()
		return 1
	}

	content, err := readDocument(cfg.DocumentFile)
	if err != nil {
		exit.Errorf("Error: %v\n", err).Print()
		return 1
	}

	e, err := engine.New(cfg.DocumentType, cfg.QueryLanguage, engine.Options{
		MaxCacheSize:   cfg.CacheSize,
		MaxDepth:       cfg.MaxDepth,
		Debounce:       cfg.Debounce,
		MaxSuggestions: cfg.Limit,
		Fallback:       cfg.Fallback,
	})
	if err != nil {
		exit.Errorf("Error: %v\n", err).Print()
		return 1
	}

	if !e.Initialize(content) {
		exit.Errorf("Error: failed to parse %s document\n", cfg.DocumentType).Print()
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch {
	case cfg.Validate:
		return runValidate(e, cfg)
	case cfg.Suggest && strings.TrimSpace(cfg.Query) == "":
		return runInteractive(ctx, e, cfg)
	case cfg.Suggest:
		return runSuggest(ctx, e, cfg)
	default:
		return runExecute(e, cfg)
	}
}

func readDocument(file string) (string, error) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

func runValidate(e *engine.Engine, cfg *config.Config) int {
	result, err := e.ValidateQuery(cfg.Query)
	if err != nil {
		exit.Errorf("Error: %v\n", err).Print()
		return 1
	}

	if cfg.JSONOutput {
		printJSON(result)
	} else if result.Valid {
		fmt.Println("valid")
	} else {
		fmt.Printf("invalid: %s\n", result.Error)
	}

	if !result.Valid {
		return 1
	}
	return 0
}

// runExecute evaluates the query. For JSONPath, trailing pipe stages are
// split off and applied as result transforms; yq handles pipes inside
// the language itself.
func runExecute(e *engine.Engine, cfg *config.Config) int {
	query := cfg.Query
	var stages []string

	if cfg.QueryLanguage == jsonpath.Language {
		parts := strings.Split(query, "|")
		if len(parts) > 1 {
			query = strings.TrimSpace(parts[0])
			for _, stage := range parts[1:] {
				stages = append(stages, strings.TrimSpace(stage))
			}
		}
	}

	results, err := e.ExecuteQuery(query)
	if err != nil {
		exit.Errorf("Error: %v\n", err).Print()
		return 1
	}

	if len(stages) > 0 {
		results, err = pipefn.ApplyPipeline(results, stages)
		if err != nil {
			exit.Errorf("Error: %v\n", err).Print()
			return 1
		}
	}

	if cfg.JSONOutput {
		printJSON(results)
		return 0
	}
	for _, result := range results {
		fmt.Println(formatValue(result))
	}
	return 0
}

func runSuggest(ctx context.Context, e *engine.Engine, cfg *config.Config) int {
	printSuggestions(e.GetSuggestions(ctx, cfg.Query, cfg.Cursor), cfg.JSONOutput)
	return 0
}

// runInteractive reads partial queries line by line and prints
// suggestions for each, rate limited by the engine debounce.
func runInteractive(ctx context.Context, e *engine.Engine, cfg *config.Config) int {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := e.Throttle().Wait(ctx); err != nil {
			return 0
		}
		printSuggestions(e.GetSuggestions(ctx, scanner.Text(), -1), cfg.JSONOutput)
	}
	if err := scanner.Err(); err != nil {
		exit.Errorf("Error: failed to read input: %v\n", err).Print()
		return 1
	}
	return 0
}

func printSuggestions(suggestions []evaluator.Suggestion, jsonOutput bool) {
	if jsonOutput {
		printJSON(suggestions)
		return
	}
	for _, s := range suggestions {
		if s.SampleValue != "" {
			fmt.Printf("%s\t%s\t%s\n", s.DisplayText, s.Type, s.SampleValue)
			continue
		}
		fmt.Printf("%s\t%s\n", s.DisplayText, s.Type)
	}
}

func printJSON(value any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		logger.Logger.Errorw("failed to encode output", "error", err)
	}
}

func formatValue(value any) string {
	switch value.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", value)
	}
}
