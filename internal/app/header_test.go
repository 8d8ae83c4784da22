package app

import (
	"context"
	"testing"
)

const validHeader = `#new
date: 2025-01-15
name: Dana Cohen
phone: 0501234567
page: instagram
follower: ads`

func TestParseHeaderValid(t *testing.T) {
	data, err := ParseHeader(validHeader)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if data.Name != "Dana Cohen" || data.Phone != "0501234567" {
		t.Errorf("unexpected data: %+v", data)
	}
	if data.Date.Format("2006-01-02") != "2025-01-15" {
		t.Errorf("date = %s, want 2025-01-15", data.Date.Format("2006-01-02"))
	}
}

func TestParseHeaderFieldOrderDoesNotMatter(t *testing.T) {
	reordered := `#new
follower: ads
phone: 0501234567
date: 2025-01-15
page: instagram
name: Dana Cohen`
	data, err := ParseHeader(reordered)
	if err != nil {
		t.Fatalf("ParseHeader failed on reordered block: %v", err)
	}
	if data.Follower != "ads" {
		t.Errorf("follower = %q, want %q", data.Follower, "ads")
	}
}

func TestParseHeaderRejections(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"missing marker", "date: 2025-01-15\nname: Dana\nphone: 1\npage: p\nfollower: f"},
		{"missing key", "#new\ndate: 2025-01-15\nname: Dana\nphone: 1\npage: p"},
		{"duplicate key", "#new\ndate: 2025-01-15\nname: Dana\nname: Lev\nphone: 1\npage: p\nfollower: f"},
		{"unknown key", "#new\ndate: 2025-01-15\nname: Dana\nphone: 1\npage: p\nfollower: f\ncity: TLV"},
		{"non-ISO date", "#new\ndate: 15/01/2025\nname: Dana\nphone: 1\npage: p\nfollower: f"},
		{"empty value", "#new\ndate: 2025-01-15\nname:\nphone: 1\npage: p\nfollower: f"},
		{"line without colon", "#new\ndate: 2025-01-15\nname Dana\nphone: 1\npage: p\nfollower: f"},
		{"empty input", ""},
	}
	for _, tc := range cases {
		if _, err := ParseHeader(tc.input); err == nil {
			t.Errorf("%s: ParseHeader accepted invalid input", tc.name)
		}
	}
}

func TestLooksLikeHeader(t *testing.T) {
	if !LooksLikeHeader(validHeader) {
		t.Error("valid header block not recognized")
	}
	if !LooksLikeHeader("\n  #NEW\ndate: 2025-01-15") {
		t.Error("marker should be case-insensitive and skip leading blank lines")
	}
	if LooksLikeHeader("met Dana on instagram today") {
		t.Error("free text misidentified as header")
	}
}

func TestHeaderValidatorAIResultMustPassValidation(t *testing.T) {
	// The AI returns valid:true but with a missing phone; the result must
	// be rejected and the line grammar must decide.
	client := &fakeAIClient{responses: []fakeAIResponse{
		{text: `{"valid": true, "data": {"date": "2025-01-15", "name": "Dana", "page": "p", "follower": "f"}}`},
	}}
	v := NewHeaderValidator(client, "test-model", testTimeout, testLogger())

	data, err := v.Validate(context.Background(), validHeader)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if data.Phone != "0501234567" {
		t.Errorf("phone = %q, want value from deterministic parser", data.Phone)
	}
}

func TestHeaderValidatorAIFailureFallsThrough(t *testing.T) {
	client := &fakeAIClient{responses: []fakeAIResponse{
		{err: context.DeadlineExceeded},
	}}
	v := NewHeaderValidator(client, "test-model", testTimeout, testLogger())

	if _, err := v.Validate(context.Background(), validHeader); err != nil {
		t.Fatalf("Validate failed despite valid deterministic header: %v", err)
	}

	if _, err := v.Validate(context.Background(), "#new\nnot a header"); err == nil {
		t.Error("Validate accepted an invalid block")
	}
}

func TestHeaderValidatorAcceptsValidAIResult(t *testing.T) {
	client := &fakeAIClient{responses: []fakeAIResponse{
		{text: `{"valid": true, "data": {"date": "2025-01-15", "name": "Dana", "phone": "0501234567", "page": "p", "follower": "f"}}`},
	}}
	v := NewHeaderValidator(client, "test-model", testTimeout, testLogger())

	data, err := v.Validate(context.Background(), validHeader)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if data.Name != "Dana" {
		t.Errorf("name = %q, want AI-provided value", data.Name)
	}
}
