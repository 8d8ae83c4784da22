// internal/domain/reason/reason.go
package reason

import (
	"strings"
	"unicode"
)

// Code identifies one follow-up reason from the closed vocabulary.
type Code string

const (
	CodeA Code = "A"
	CodeB Code = "B"
	CodeC Code = "C"
	CodeD Code = "D"
	CodeE Code = "E"
	CodeF Code = "F"
	CodeG Code = "G"
	CodeH Code = "H"
	CodeI Code = "I"
	CodeJ Code = "J"
)

// Reason is one (code, label) pair. The code is the sole persisted
// identifier; the label is display-only and frozen. Rewording a label
// requires a vocabulary version change.
type Reason struct {
	Code  Code
	Label string
}

// registry holds the ten canonical reasons in stable display order.
// Codes are never synthesized, reordered, or reinterpreted from free text.
var registry = []Reason{
	{CodeA, "Not interested"},
	{CodeB, "Price too high"},
	{CodeC, "No answer"},
	{CodeD, "Requested more information"},
	{CodeE, "Will decide later"},
	{CodeF, "Purchased elsewhere"},
	{CodeG, "Wrong or invalid number"},
	{CodeH, "Asked to call back"},
	{CodeI, "Complaint about service"},
	{CodeJ, "Other"},
}

// All returns the canonical reasons in stable order.
func All() []Reason {
	out := make([]Reason, len(registry))
	copy(out, registry)
	return out
}

// LabelFor returns the display label for a code.
func LabelFor(c Code) (string, bool) {
	for _, r := range registry {
		if r.Code == c {
			return r.Label, true
		}
	}
	return "", false
}

// Valid reports whether c belongs to the closed vocabulary.
func Valid(c Code) bool {
	_, ok := LabelFor(c)
	return ok
}

// PromptText builds the ten-line reason menu sent to the user.
func PromptText() string {
	var b strings.Builder
	b.WriteString("Select the follow-up reason:\n\n")
	for _, r := range registry {
		b.WriteString(string(r.Code))
		b.WriteString(" - ")
		b.WriteString(r.Label)
		b.WriteString("\n")
	}
	b.WriteString("\nReply with a single letter (A-J) or the full \"CODE - label\" line.")
	return b.String()
}

// Parse resolves a user reply to exactly one canonical code. Accepted
// forms are a bare letter A-J (either case) or the exact "CODE - label"
// string. Anything else, including several codes in one reply or empty
// input, is a no-match, not an error.
func Parse(input string) (Code, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", false
	}

	runes := []rune(s)
	if len(runes) == 1 && unicode.IsLetter(runes[0]) {
		c := Code(strings.ToUpper(s))
		if Valid(c) {
			return c, true
		}
		return "", false
	}

	for _, r := range registry {
		if s == string(r.Code)+" - "+r.Label {
			return r.Code, true
		}
	}
	return "", false
}
