// Package hashtag classifies free text into the supported country taxonomy
// by extracting and normalizing hashtags. Pure functions, no I/O.
package hashtag

import (
	"regexp"
	"strings"
)

// Countries is the canonical taxonomy, in display order.
var Countries = []string{
	"Австрия", "Армения", "Бахрейн", "Великобритания", "Вьетнам", "Германия", "Гондурас",
	"Греция", "Грузия", "Доминикана", "Египет", "Индия", "Индонезия", "Исландия", "Испания",
}

// synonyms maps common latin-script spellings to canonical names.
var synonyms = map[string]string{
	"spain":        "Испания",
	"greece":       "Греция",
	"austria":      "Австрия",
	"germany":      "Германия",
	"armenia":      "Армения",
	"bahrain":      "Бахрейн",
	"uk":           "Великобритания",
	"greatbritain": "Великобритания",
	"vietnam":      "Вьетнам",
	"honduras":     "Гондурас",
	"georgia":      "Грузия",
	"dominicana":   "Доминикана",
	"egypt":        "Египет",
	"india":        "Индия",
	"indonesia":    "Индонезия",
	"iceland":      "Исландия",
}

// canonical indexes the taxonomy by lower-cased name.
var canonical = func() map[string]string {
	m := make(map[string]string, len(Countries))
	for _, c := range Countries {
		m[strings.ToLower(c)] = c
	}
	return m
}()

var tagRe = regexp.MustCompile(`#([A-Za-zА-Яа-яЁё0-9_]+)`)

// Classify extracts all hashtags from text and maps them onto the country
// taxonomy. Unrecognized tags are discarded. The result preserves
// first-occurrence order and contains no duplicates.
func Classify(text string) []string {
	matches := tagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, m := range matches {
		name, ok := Normalize(m[1])
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Normalize maps one raw tag (without '#') onto a canonical country name.
// Lookup order: synonym table first, then exact lower-cased taxonomy match.
func Normalize(tag string) (string, bool) {
	low := strings.ToLower(strings.TrimSpace(tag))
	if c, ok := synonyms[low]; ok {
		return c, true
	}
	if c, ok := canonical[low]; ok {
		return c, true
	}
	return "", false
}
