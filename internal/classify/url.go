// Package classify extracts URLs from chat text, canonicalizes them into
// domain keys, and decides whether to disclose stored intelligence about
// them.
package classify

import (
	"regexp"
	"strings"
)

// urlPattern matches tokens that look like links: an http/https scheme or a
// bare "?" prefix, running to the next whitespace.
var urlPattern = regexp.MustCompile(`(?i)(?:\?|https?://)\S+`)

// trailingPunct is the single optional punctuation character allowed between
// a URL and the whitespace (or end of text) that terminates it.
const trailingPunct = ",.!?:)"

// ExtractURLs scans free text and returns the raw URL substrings in order of
// appearance. Duplicates are possible; the result is empty when nothing
// matches. It never fails, whatever the input.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 && strings.ContainsRune(trailingPunct, rune(m[len(m)-1])) {
			m = m[:len(m)-1]
		}
		if m == "" || m == "?" {
			continue
		}
		urls = append(urls, m)
	}
	return urls
}

var (
	schemePrefix = regexp.MustCompile(`^(?:\?|https?://)?(?:www\.)?`)
	pathSuffix   = regexp.MustCompile(`/.*$`)
)

// Normalize lowercases a raw URL and reduces it to a bare domain key:
// scheme (or "?" marker) and "www." stripped, everything from the first "/"
// dropped. Best-effort canonicalization, not RFC URL parsing; malformed
// input degrades but never fails. Idempotent.
func Normalize(url string) string {
	out := strings.ToLower(url)
	out = schemePrefix.ReplaceAllString(out, "")
	out = pathSuffix.ReplaceAllString(out, "")
	return out
}

// Dedupe removes exact-duplicate domain keys, keeping first-occurrence order.
func Dedupe(domains []string) []string {
	if len(domains) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Domains runs the extract, normalize, dedupe pipeline over free text.
func Domains(text string) []string {
	raw := ExtractURLs(text)
	if len(raw) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(raw))
	for _, u := range raw {
		if d := Normalize(u); d != "" {
			normalized = append(normalized, d)
		}
	}
	return Dedupe(normalized)
}
