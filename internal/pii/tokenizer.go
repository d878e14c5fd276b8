// Package pii provides local, deterministic detection and masking of
// personally identifiable information. Nothing in this package performs
// network calls; the tokenized text is the only form that may be forwarded
// to an external language-model service.
package pii

import (
	"fmt"
	"regexp"
)

// TokenType classifies a detected PII value.
type TokenType string

const (
	TypeEmail   TokenType = "EMAIL"
	TypePhone   TokenType = "PHONE"
	TypeName    TokenType = "NAME"
	TypeAddress TokenType = "ADDRESS"
)

// Entry records the original value behind one placeholder.
type Entry struct {
	Type          TokenType
	OriginalValue string
}

// Result is the output of Tokenize. Map is keyed by the full bracketed
// placeholder (e.g. "[EMAIL_0]") as it appears in TokenizedText. The map is
// ephemeral: it must never be persisted or logged.
type Result struct {
	TokenizedText string
	Map           map[string]Entry
	HasPII        bool
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// NANP-style phone numbers with optional country code, punctuation and
	// extension.
	phonePattern = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?[2-9]\d{2}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}(?:\s*(?:x|ext\.?|extension)\s*\d{1,5})?`)

	// Street addresses: leading number, one or more capitalized words, and a
	// street-type suffix.
	addressPattern = regexp.MustCompile(`\b\d{1,6}(?:\s+[A-Z][A-Za-z]*){1,5}\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Circle|Cir|Way|Place|Pl|Parkway|Pkwy|Terrace|Ter|Highway|Hwy)\b`)

	// Personal names only count as PII when they follow a labeling context
	// word; bare capitalized words are far too noisy. Group 1 is the label,
	// group 2 the name (two or more capitalized words).
	labeledNamePattern = regexp.MustCompile(`((?i:\b(?:client name|customer name|contact name|full name|name|contact|attn)\s*[:\-]\s*))([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+)`)
)

// tokenizer holds the per-call counters. It is deliberately a value created
// inside Tokenize, never shared between calls, so concurrent requests cannot
// collide on token numbers.
type tokenizer struct {
	counters map[TokenType]int
	entries  map[string]Entry
}

func (tk *tokenizer) place(typ TokenType, original string) string {
	n := tk.counters[typ]
	tk.counters[typ] = n + 1
	token := fmt.Sprintf("[%s_%d]", typ, n)
	tk.entries[token] = Entry{Type: typ, OriginalValue: original}
	return token
}

// Tokenize detects PII in text and replaces each occurrence with a typed,
// uniquely numbered placeholder. Detection order matters: emails first so
// their digits cannot be claimed by the phone detector, then phones,
// addresses, and labeled names.
func Tokenize(text string) Result {
	tk := &tokenizer{
		counters: make(map[TokenType]int),
		entries:  make(map[string]Entry),
	}

	out := emailPattern.ReplaceAllStringFunc(text, func(m string) string {
		return tk.place(TypeEmail, m)
	})

	out = phonePattern.ReplaceAllStringFunc(out, func(m string) string {
		return tk.place(TypePhone, m)
	})

	out = addressPattern.ReplaceAllStringFunc(out, func(m string) string {
		return tk.place(TypeAddress, m)
	})

	out = labeledNamePattern.ReplaceAllStringFunc(out, func(m string) string {
		groups := labeledNamePattern.FindStringSubmatch(m)
		if groups == nil {
			return m
		}
		return groups[1] + tk.place(TypeName, groups[2])
	})

	return Result{
		TokenizedText: out,
		Map:           tk.entries,
		HasPII:        len(tk.entries) > 0,
	}
}
