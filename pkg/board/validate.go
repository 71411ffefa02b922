package board

import (
	"fmt"
	"unicode/utf8"
)

const diagnosticFormat = "The message is longer than the %d character limit. Please shorten and re-send."

// Verdict is the outcome of checking a message against the char limit.
type Verdict struct {
	Accepted   bool
	Diagnostic string
}

// Diagnostic returns the rejection text for limit.
func Diagnostic(limit int) string {
	return fmt.Sprintf(diagnosticFormat, limit)
}

// Validate counts characters, not bytes.
func (b *Board) Validate(text string) Verdict {
	if utf8.RuneCountInString(text) <= b.charLimit {
		return Verdict{Accepted: true}
	}
	return Verdict{Diagnostic: Diagnostic(b.charLimit)}
}
