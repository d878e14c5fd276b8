package pii

import (
	"strings"
	"testing"
)

func TestTokenize_Email(t *testing.T) {
	text := "Contact me at john.doe@example.com or jane@corp.io for details"

	result := Tokenize(text)

	if !result.HasPII {
		t.Fatal("expected HasPII to be true")
	}
	if strings.Contains(result.TokenizedText, "john.doe@example.com") {
		t.Error("email leaked into tokenized text")
	}
	if !strings.Contains(result.TokenizedText, "[EMAIL_0]") || !strings.Contains(result.TokenizedText, "[EMAIL_1]") {
		t.Errorf("expected two email tokens, got: %s", result.TokenizedText)
	}
	if entry := result.Map["[EMAIL_0]"]; entry.Type != TypeEmail || entry.OriginalValue != "john.doe@example.com" {
		t.Errorf("unexpected map entry for [EMAIL_0]: %+v", entry)
	}
}

func TestTokenize_Phone(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"parenthesized", "call (555) 123-4567 today", "(555) 123-4567"},
		{"dotted", "reach us on 415.555.0199", "415.555.0199"},
		{"country code with extension", "dial +1 415-555-0199 ext 23 now", "+1 415-555-0199 ext 23"},
		{"bare digits", "fax 2125550123 please", "2125550123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Tokenize(tc.text)
			if !result.HasPII {
				t.Fatalf("expected phone to be detected in %q", tc.text)
			}
			entry, ok := result.Map["[PHONE_0]"]
			if !ok {
				t.Fatalf("no [PHONE_0] token in map, text: %s", result.TokenizedText)
			}
			if entry.OriginalValue != tc.want {
				t.Errorf("expected %q, got %q", tc.want, entry.OriginalValue)
			}
		})
	}
}

func TestTokenize_LabeledName(t *testing.T) {
	result := Tokenize("client name: John Smith needs a follow-up")

	entry, ok := result.Map["[NAME_0]"]
	if !ok {
		t.Fatalf("no [NAME_0] token, text: %s", result.TokenizedText)
	}
	if entry.OriginalValue != "John Smith" {
		t.Errorf("expected John Smith, got %q", entry.OriginalValue)
	}
	// The label itself stays in the text so the LLM keeps its context.
	if !strings.Contains(result.TokenizedText, "client name: [NAME_0]") {
		t.Errorf("label lost: %s", result.TokenizedText)
	}
}

func TestTokenize_UnlabeledNameIgnored(t *testing.T) {
	// Capitalized words without a labeling context word are not treated as PII.
	result := Tokenize("Generate the Quarterly Revenue Report for Acme Corp")

	for token, entry := range result.Map {
		if entry.Type == TypeName {
			t.Errorf("unexpected name token %s for %q", token, entry.OriginalValue)
		}
	}
}

func TestTokenize_Address(t *testing.T) {
	result := Tokenize("ship the order to 4520 North Ocean Boulevard before Friday")

	entry, ok := result.Map["[ADDRESS_0]"]
	if !ok {
		t.Fatalf("no [ADDRESS_0] token, text: %s", result.TokenizedText)
	}
	if entry.OriginalValue != "4520 North Ocean Boulevard" {
		t.Errorf("unexpected address: %q", entry.OriginalValue)
	}
}

func TestTokenize_NoPII(t *testing.T) {
	result := Tokenize("summarize open deals for the last quarter")

	if result.HasPII {
		t.Error("expected HasPII to be false")
	}
	if len(result.Map) != 0 {
		t.Errorf("expected empty map, got %d entries", len(result.Map))
	}
	if result.TokenizedText != "summarize open deals for the last quarter" {
		t.Error("text without PII must pass through unchanged")
	}
}

func TestTokenize_CountersAreCallLocal(t *testing.T) {
	first := Tokenize("mail a@b.com")
	second := Tokenize("mail c@d.com")

	// Both calls must start numbering from zero; a shared counter would leak
	// state between concurrent requests.
	if _, ok := first.Map["[EMAIL_0]"]; !ok {
		t.Error("first call did not start at EMAIL_0")
	}
	if _, ok := second.Map["[EMAIL_0]"]; !ok {
		t.Error("second call did not start at EMAIL_0")
	}
}

func TestTokenize_RoundTrip(t *testing.T) {
	texts := []string{
		"Contact client name: Mary Jane Watson at mj@dailybugle.com or (212) 555-0123",
		"Invoice for 880 Fifth Avenue, phone 646.555.0188 ext. 4, email billing@acme.io",
		"Email a@b.co and c@d.co, then call +1 (415) 555-0199",
		"no pii here at all",
	}

	for _, text := range texts {
		result := Tokenize(text)
		restored := RestoreText(result.TokenizedText, result.Map)
		if restored != text {
			t.Errorf("round trip mismatch:\n  original: %q\n  restored: %q", text, restored)
		}
	}
}
