// Package llmjson decodes JSON out of LLM responses. Providers return
// JSON wrapped in prose, code fences, or with small syntax defects; the
// decoder runs an ordered fallback ladder so a malformed response
// degrades to the zero value instead of failing the conversation:
//
//  1. direct parse
//  2. heuristic repair (strip fences, quote bare keys, single→double
//     quotes, drop trailing commas), then parse
//  3. ask the same provider to repair its own output, then parse
//  4. give up: leave the target at its zero value
package llmjson

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/doclens-ai/doclens-cli/internal/core/domain"
	"github.com/doclens-ai/doclens-cli/internal/core/ports/driven"
	"github.com/doclens-ai/doclens-cli/internal/logger"
)

// defaultRepairPrompt is used when no PromptStore is configured.
const defaultRepairPrompt = `The following text was supposed to be valid JSON but is malformed.
Return ONLY the corrected JSON, with no explanation and no code fences.

%s`

// Decoder runs the repair ladder. The chat provider and prompt store
// are optional; without a provider the ladder stops after the heuristic
// step.
type Decoder struct {
	chat    driven.ChatProvider
	prompts driven.PromptStore
}

// NewDecoder creates a decoder. chat may be nil to disable the
// model-assisted repair step.
func NewDecoder(chat driven.ChatProvider, prompts driven.PromptStore) *Decoder {
	return &Decoder{chat: chat, prompts: prompts}
}

// Decode unmarshals raw into v, repairing as needed. Returns true when
// any ladder step produced a parseable result. On false, v is left
// untouched so callers see their zero/default value.
func (d *Decoder) Decode(ctx context.Context, raw string, v any) bool {
	// Step 1: direct parse.
	if json.Unmarshal([]byte(strings.TrimSpace(raw)), v) == nil {
		return true
	}

	// Step 2: heuristic repair.
	repaired := Repair(raw)
	if json.Unmarshal([]byte(repaired), v) == nil {
		logger.Debug("llmjson: heuristic repair succeeded")
		return true
	}

	// Step 3: model-assisted repair.
	if d.chat == nil {
		logger.Warn("llmjson: heuristic repair failed, no provider for model repair")
		return false
	}
	fixed, err := d.modelRepair(ctx, raw)
	if err != nil {
		logger.Warn("llmjson: model repair failed: %v", err)
		return false
	}
	if json.Unmarshal([]byte(strings.TrimSpace(fixed)), v) == nil {
		logger.Debug("llmjson: model repair succeeded")
		return true
	}
	if json.Unmarshal([]byte(Repair(fixed)), v) == nil {
		logger.Debug("llmjson: model repair + heuristic succeeded")
		return true
	}

	// Step 4: give up. Caller keeps the zero value.
	logger.Warn("llmjson: all repair steps failed")
	return false
}

// modelRepair asks the provider to fix its own malformed output.
func (d *Decoder) modelRepair(ctx context.Context, raw string) (string, error) {
	prompt := defaultRepairPrompt
	if d.prompts != nil {
		if p, err := d.prompts.Load(driven.PromptJSONRepair); err == nil && p != "" {
			prompt = p
		}
	}

	messages := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: strings.Replace(prompt, "%s", raw, 1)},
	}
	return d.chat.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   2048,
		Temperature: 0,
	})
}

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	singleQuoteRe   = regexp.MustCompile(`'([^']*)'`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// Repair applies the heuristic fixes for common LLM JSON defects. The
// result is not guaranteed to parse; callers must check.
func Repair(s string) string {
	s = strings.TrimSpace(s)

	// Unwrap code fences, or strip stray backticks.
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.Trim(s, "`")

	// Cut leading/trailing prose around the outermost JSON value.
	s = extractJSON(s)

	// Quote bare object keys: {key: 1} -> {"key": 1}.
	s = bareKeyRe.ReplaceAllString(s, `$1"$2"$3`)

	// Single-quoted strings to double-quoted.
	s = singleQuoteRe.ReplaceAllString(s, `"$1"`)

	// Drop trailing commas before a closing bracket.
	s = trailingCommaRe.ReplaceAllString(s, "$1")

	return strings.TrimSpace(s)
}

// extractJSON returns the substring from the first '{' or '[' to the
// matching end of the input, when the input has prose around the JSON.
func extractJSON(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndexByte(s, '}')
	} else {
		end = strings.LastIndexByte(s, ']')
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}
