// internal/app/header.go
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"interaction_log_bot/internal/domain/ai"
)

// HeaderMarker is the literal first line that opens a new-customer header
// block.
const HeaderMarker = "#new"

// headerKeys is the fixed five-key whitelist. Each key must appear exactly
// once, in any order, after the marker line.
var headerKeys = []string{"date", "name", "phone", "page", "follower"}

// HeaderData is a validated identity header.
type HeaderData struct {
	Date     time.Time
	Name     string
	Phone    string
	Page     string
	Follower string
}

const headerSystemPrompt = `You validate a rigid customer identity header block from a chat message.

The block starts with the line "#new" followed by exactly five "KEY: value" lines using the keys date, name, phone, page, follower. The date must be an ISO calendar date (YYYY-MM-DD).

Rules:
- Output JSON only. No prose.
- If the block is valid, output {"valid": true, "data": {"date": "...", "name": "...", "phone": "...", "page": "...", "follower": "..."}}.
- If the block is invalid, output {"valid": false, "error": "short description"}.
- Never infer, correct, or fill in missing values.`

// LooksLikeHeader reports whether the first non-empty line is the header
// marker. Only such messages are treated as entry-flow headers; everything
// else is free text for the ingestion pipeline.
func LooksLikeHeader(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return strings.EqualFold(line, HeaderMarker)
	}
	return false
}

// ParseHeader validates a header block against the line grammar. It is
// the authority of last resort: an AI-assisted result is only accepted if
// it passes the same field validation this parser uses. Malformed input
// returns a descriptive error, never a panic.
func ParseHeader(text string) (*HeaderData, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 || !strings.EqualFold(lines[0], HeaderMarker) {
		return nil, fmt.Errorf("header must start with the %s marker line", HeaderMarker)
	}

	fields := make(map[string]string, len(headerKeys))
	for _, line := range lines[1:] {
		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("line %q is not in KEY: value form", line)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if !isHeaderKey(key) {
			return nil, fmt.Errorf("unknown header key %q", key)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate header key %q", key)
		}
		fields[key] = value
	}

	return validateHeaderFields(fields)
}

// validateHeaderFields is the single required-field validator shared by
// the line-grammar parser and the AI-assisted path.
func validateHeaderFields(fields map[string]string) (*HeaderData, error) {
	for _, key := range headerKeys {
		value, ok := fields[key]
		if !ok {
			return nil, fmt.Errorf("missing header key %q", key)
		}
		if value == "" {
			return nil, fmt.Errorf("header key %q has an empty value", key)
		}
	}
	for key := range fields {
		if !isHeaderKey(key) {
			return nil, fmt.Errorf("unknown header key %q", key)
		}
	}

	date, err := time.Parse("2006-01-02", fields["date"])
	if err != nil {
		return nil, fmt.Errorf("date %q is not an ISO calendar date (YYYY-MM-DD)", fields["date"])
	}

	return &HeaderData{
		Date:     date,
		Name:     fields["name"],
		Phone:    fields["phone"],
		Page:     fields["page"],
		Follower: fields["follower"],
	}, nil
}

func isHeaderKey(key string) bool {
	for _, k := range headerKeys {
		if k == key {
			return true
		}
	}
	return false
}

// HeaderValidator validates header blocks, optionally trying the AI path
// first with the same timeout/retry discipline as the normalizer.
type HeaderValidator struct {
	ai           ai.Client // nil disables the AI path
	defaultModel string
	timeout      time.Duration
	logger       *logrus.Entry
}

func NewHeaderValidator(client ai.Client, defaultModel string, timeout time.Duration, logger *logrus.Entry) *HeaderValidator {
	return &HeaderValidator{
		ai:           client,
		defaultModel: defaultModel,
		timeout:      timeout,
		logger:       logger,
	}
}

// Validate returns structured header data or a validation error. The AI
// result, when available, must independently pass validateHeaderFields;
// otherwise the deterministic parser decides.
func (v *HeaderValidator) Validate(ctx context.Context, text string) (*HeaderData, error) {
	if v.ai != nil {
		if data, ok := v.tryAI(ctx, text); ok {
			return data, nil
		}
	}
	return ParseHeader(text)
}

type rawHeaderResponse struct {
	Valid bool              `json:"valid"`
	Data  map[string]string `json:"data"`
	Error string            `json:"error"`
}

func (v *HeaderValidator) tryAI(ctx context.Context, text string) (*HeaderData, bool) {
	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	raw, err := v.ai.Complete(callCtx, v.defaultModel, headerSystemPrompt, text)
	if err != nil {
		v.logger.WithError(err).Debug("AI header validation failed, using line grammar")
		return nil, false
	}

	payload, ok := extractJSON(raw)
	if !ok {
		return nil, false
	}

	var resp rawHeaderResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil || !resp.Valid || resp.Data == nil {
		return nil, false
	}

	fields := make(map[string]string, len(resp.Data))
	for key, value := range resp.Data {
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	data, err := validateHeaderFields(fields)
	if err != nil {
		v.logger.WithError(err).Debug("AI header result failed field validation, using line grammar")
		return nil, false
	}
	return data, true
}
