package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	cityPipeline = Pipeline{
		TrimAndNormalize,
		strings.ToUpper,
	}
	messagePipeline = Pipeline{
		stripControlKeepLines,
		strings.TrimSpace,
	}
	textPipeline = Pipeline{
		stripControl,
		strings.TrimSpace,
	}
)

// TrimAndNormalize trims s and collapses every run of whitespace into a single
// space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func SanitizeCity(city string) string {
	return cityPipeline.Apply(city)
}

func SanitizeMessage(message string) string {
	return messagePipeline.Apply(message)
}

func SanitizeText(text string) string {
	return textPipeline.Apply(text)
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func stripControlKeepLines(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
