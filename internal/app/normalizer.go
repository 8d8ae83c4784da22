// internal/app/normalizer.go
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"interaction_log_bot/internal/domain/ai"
	"interaction_log_bot/internal/domain/event"
	"interaction_log_bot/internal/domain/reason"
)

// SourceModelFallback marks events produced by the deterministic
// extraction tier rather than an AI model.
const SourceModelFallback = "fallback"

const extractionSystemPrompt = `You convert one chat message from a sales staff member into structured customer interaction records.

Rules:
- Output JSON only. No prose, no explanations.
- Output a JSON array with exactly one object per distinct customer mentioned in the message.
- If the message is not about a customer interaction, output exactly {"ignored": true}.
- Never infer, correct, or merge information. Record only what the message states.
- Unknown fields are null. Do not guess.

Each array object has this shape:
{"date": "YYYY-MM-DD or null",
 "customer": {"name": "string or null", "phone": "string or null"},
 "page": "string or null",
 "follower": "string or null",
 "status": "string or null",
 "reason": "single letter A-J or null",
 "note": "string or null",
 "is_update": true only if the message explicitly refers to an already-known customer, otherwise false}`

// NormalizeResult is the outcome of normalizing one raw message.
// Ignored and a non-empty Events slice are mutually exclusive.
type NormalizeResult struct {
	Events  []*event.InteractionEvent
	Ignored bool
}

// Normalizer turns arbitrary chat text into zero or more interaction
// events. The AI path is primary; a deterministic regex tier backs it.
// No failure inside this component ever reaches the caller as an error;
// the worst case is an ignored message.
type Normalizer struct {
	ai           ai.Client // nil when no API key is configured
	defaultModel string
	timeout      time.Duration
	logger       *logrus.Entry
	now          func() time.Time
}

func NewNormalizer(client ai.Client, defaultModel string, timeout time.Duration, logger *logrus.Entry) *Normalizer {
	return &Normalizer{
		ai:           client,
		defaultModel: defaultModel,
		timeout:      timeout,
		logger:       logger,
		now:          time.Now,
	}
}

// Normalize processes one message. modelHint optionally overrides the
// configured model for the AI path.
func (n *Normalizer) Normalize(ctx context.Context, text, messageID, modelHint string) NormalizeResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return NormalizeResult{Ignored: true}
	}

	// Vague chatter without any concrete signal never reaches the AI path.
	if isVagueChatter(trimmed) && !hasSignal(trimmed) {
		return NormalizeResult{Ignored: true}
	}

	if n.ai != nil {
		if res, ok := n.tryAI(ctx, trimmed, messageID, modelHint); ok {
			return res
		}
	}

	return n.fallbackExtract(trimmed, messageID)
}

// tryAI runs the primary extraction tier. ok=false means the tier is
// exhausted and the deterministic fallback takes over.
func (n *Normalizer) tryAI(ctx context.Context, text, messageID, modelHint string) (NormalizeResult, bool) {
	model := modelHint
	if model == "" {
		model = n.defaultModel
	}

	raw, err := n.complete(ctx, model, text)
	if errors.Is(err, ai.ErrModelNotFound) && model != n.defaultModel {
		// Retry exactly once against the configured default model.
		n.logger.WithField("model", model).Warn("Model not recognized, retrying with default model")
		raw, err = n.complete(ctx, n.defaultModel, text)
		model = n.defaultModel
	}
	if err != nil {
		n.logger.WithError(err).WithField("message_id", messageID).Warn("AI extraction failed, falling back")
		return NormalizeResult{}, false
	}

	payload, ok := extractJSON(raw)
	if !ok {
		n.logger.WithField("message_id", messageID).Warn("AI response contained no extractable JSON, falling back")
		return NormalizeResult{}, false
	}

	return n.decodeExtraction(payload, messageID, model)
}

func (n *Normalizer) complete(ctx context.Context, model, text string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	return n.ai.Complete(callCtx, model, extractionSystemPrompt, text)
}

// rawExtraction mirrors the AI output shape. Every field is decoded
// leniently: a value of the wrong type becomes null rather than failing
// the whole payload.
type rawExtraction struct {
	Ignored  bool            `json:"ignored"`
	Date     json.RawMessage `json:"date"`
	Customer *struct {
		Name  json.RawMessage `json:"name"`
		Phone json.RawMessage `json:"phone"`
	} `json:"customer"`
	// Legacy flat fields, still emitted by older prompt revisions.
	Name     json.RawMessage `json:"name"`
	Phone    json.RawMessage `json:"phone"`
	Page     json.RawMessage `json:"page"`
	Follower json.RawMessage `json:"follower"`
	Status   json.RawMessage `json:"status"`
	Reason   json.RawMessage `json:"reason"`
	Note     json.RawMessage `json:"note"`
	IsUpdate json.RawMessage `json:"is_update"`
}

// decodeExtraction coerces a parsed AI payload into canonical events.
// ok=false means the payload was unusable and the fallback tier runs.
func (n *Normalizer) decodeExtraction(payload, messageID, model string) (NormalizeResult, bool) {
	var raws []rawExtraction

	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
			n.logger.WithError(err).Warn("AI array payload did not decode, falling back")
			return NormalizeResult{}, false
		}
	} else {
		var single rawExtraction
		if err := json.Unmarshal([]byte(trimmed), &single); err != nil {
			n.logger.WithError(err).Warn("AI object payload did not decode, falling back")
			return NormalizeResult{}, false
		}
		if single.Ignored {
			return NormalizeResult{Ignored: true}, true
		}
		raws = []rawExtraction{single}
	}

	var events []*event.InteractionEvent
	for _, r := range raws {
		if r.Ignored {
			continue
		}
		events = append(events, n.coerceEvent(r, messageID, model))
	}
	if len(events) == 0 {
		return NormalizeResult{Ignored: true}, true
	}
	return NormalizeResult{Events: events}, true
}

func (n *Normalizer) coerceEvent(r rawExtraction, messageID, model string) *event.InteractionEvent {
	ev := &event.InteractionEvent{
		SourceMessageID: messageID,
		SourceModel:     model,
	}

	if r.Customer != nil {
		ev.Name = coerceString(r.Customer.Name)
		ev.Phone = coerceString(r.Customer.Phone)
	} else {
		// Reconstruct the nested customer structure from legacy flat fields.
		ev.Name = coerceString(r.Name)
		ev.Phone = coerceString(r.Phone)
	}

	ev.Page = coerceString(r.Page)
	ev.Follower = coerceString(r.Follower)
	ev.StatusText = coerceString(r.Status)
	ev.Note = coerceString(r.Note)

	if rc := coerceString(r.Reason); rc.Valid {
		code := reason.Code(strings.ToUpper(strings.TrimSpace(rc.String)))
		if reason.Valid(code) {
			ev.ReasonCode = event.NullStr(string(code))
		}
	}

	ev.Date = n.today()
	if ds := coerceString(r.Date); ds.Valid {
		if d, err := time.Parse("2006-01-02", ds.String); err == nil {
			ev.Date = d
		}
	}

	var isUpdate bool
	if len(r.IsUpdate) > 0 && json.Unmarshal(r.IsUpdate, &isUpdate) == nil {
		ev.IsUpdate = isUpdate
	}

	return ev
}

func (n *Normalizer) today() time.Time {
	now := n.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// coerceString decodes a JSON value as a string; any other type, null, or
// an empty string yields an invalid NullString.
func coerceString(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return sql.NullString{}
	}
	s = strings.TrimSpace(s)
	return event.NullStr(s)
}

// --- pre-filter ---

// vagueChatter lists small-talk phrases that carry no interaction data.
var vagueChatter = map[string]struct{}{
	"busy day":      {},
	"quiet today":   {},
	"slow day":      {},
	"nothing new":   {},
	"nothing today": {},
	"no updates":    {},
	"all good":      {},
	"good morning":  {},
	"good night":    {},
	"ok":            {},
	"thanks":        {},
}

var platformKeywords = []string{"instagram", "facebook", "whatsapp", "tiktok", "telegram", "messenger"}

var (
	phoneRunRe  = regexp.MustCompile(`\d{8,}`)
	nameTokenRe = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
)

func isVagueChatter(trimmed string) bool {
	_, ok := vagueChatter[strings.ToLower(trimmed)]
	return ok
}

// hasSignal reports whether the text carries anything concrete: a long
// digit run, a name-shaped token, or a platform keyword.
func hasSignal(text string) bool {
	if phoneRunRe.MatchString(text) {
		return true
	}
	if nameTokenRe.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range platformKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// --- deterministic fallback tier ---

var (
	fullNameRe   = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)?\b`)
	followedByRe = regexp.MustCompile(`(?i)followed by (\w+)`)
	followingRe  = regexp.MustCompile(`(?i)(\w+) following`)
)

// statusLexicon is checked in order, so longer phrases win over their
// substrings ("not interested" before "interested").
var statusLexicon = []string{
	"not interested",
	"interested",
	"no answer",
	"no reply",
	"follow up",
	"closed",
	"pending",
	"called",
	"messaged",
}

// fallbackExtract is the deterministic tier: it produces exactly one
// event, and only when a name or phone was found.
func (n *Normalizer) fallbackExtract(text, messageID string) NormalizeResult {
	ev := &event.InteractionEvent{
		Date:            n.today(),
		SourceMessageID: messageID,
		SourceModel:     SourceModelFallback,
	}

	if m := phoneRunRe.FindString(text); m != "" {
		ev.Phone = event.NullStr(m)
	}
	if m := fullNameRe.FindString(text); m != "" {
		ev.Name = event.NullStr(m)
	}

	lower := strings.ToLower(text)
	for _, kw := range platformKeywords {
		if strings.Contains(lower, kw) {
			ev.Page = event.NullStr(kw)
			break
		}
	}

	if m := followedByRe.FindStringSubmatch(text); len(m) == 2 {
		ev.Follower = event.NullStr(m[1])
	} else if m := followingRe.FindStringSubmatch(text); len(m) == 2 {
		ev.Follower = event.NullStr(m[1])
	}

	for _, status := range statusLexicon {
		if strings.Contains(lower, status) {
			ev.StatusText = event.NullStr(status)
			break
		}
	}

	if !ev.Name.Valid && !ev.Phone.Valid {
		return NormalizeResult{Ignored: true}
	}
	return NormalizeResult{Events: []*event.InteractionEvent{ev}}
}

// --- JSON extraction from AI responses ---

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSON pulls a JSON payload out of a raw model response: fenced
// blocks first, then the first balanced {...} or [...] substring.
func extractJSON(raw string) (string, bool) {
	if m := fenceRe.FindStringSubmatch(raw); len(m) == 2 {
		inner := strings.TrimSpace(m[1])
		if inner != "" {
			return inner, true
		}
	}
	return balancedJSON(raw)
}

// balancedJSON scans for the first balanced object or array, respecting
// string literals and escapes.
func balancedJSON(raw string) (string, bool) {
	start := -1
	var opener, closer byte
	for i := 0; i < len(raw); i++ {
		if raw[i] == '{' || raw[i] == '[' {
			start = i
			opener = raw[i]
			if opener == '{' {
				closer = '}'
			} else {
				closer = ']'
			}
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
