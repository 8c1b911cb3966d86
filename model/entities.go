package model

import (
	"regexp"
	"sort"
	"strings"
)

var (
	datePattern = regexp.MustCompile(`\b(\d{1,2}\s+[A-Za-z]{3,9}\s+\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4})\b`)
	orgPattern  = regexp.MustCompile(`\b([A-Z][A-Za-z&.\- ]+\s+(?:Inc|LLC|Ltd|Limited|LLP|PLC|Corp|Company))\b`)
	namePattern = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){0,2})\b`)
)

const maxEntitiesPerKind = 50

// ExtractEntities pulls names, dates and organizations out of text with
// regex heuristics. The result is decorative; retrieval never depends on it.
func ExtractEntities(text string) map[string][]string {
	dates := dedupSorted(datePattern.FindAllString(text, -1))
	orgs := dedupSorted(orgPattern.FindAllString(text, -1))

	var names []string
	for _, m := range namePattern.FindAllString(text, -1) {
		s := strings.TrimSpace(m)
		if len(s) > 2 && strings.ToLower(s) != "the" && strings.ToLower(s) != "and" {
			names = append(names, s)
		}
	}
	names = dedupSorted(names)

	return map[string][]string{
		"names":         capList(names, maxEntitiesPerKind),
		"dates":         capList(dates, maxEntitiesPerKind),
		"organizations": capList(orgs, maxEntitiesPerKind),
	}
}

func dedupSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func capList(in []string, n int) []string {
	if len(in) > n {
		return in[:n]
	}
	return in
}
