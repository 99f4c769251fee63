package ingest

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// Detector guesses the ISO 639-1 language code of a text.
type Detector interface {
	Detect(text string) string
}

// StaticDetector always reports the same language.
type StaticDetector string

// Detect implements Detector.
func (s StaticDetector) Detect(string) string { return string(s) }

// WhatlangDetector detects languages with whatlanggo. Unreliable guesses
// and empty texts yield the fallback code.
type WhatlangDetector struct {
	Fallback string
}

// Detect implements Detector.
func (d WhatlangDetector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return d.Fallback
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return d.Fallback
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return d.Fallback
	}
	return code
}
