package classify

import (
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/sitesentry/sitesentry/internal/store"
)

// Separator joins individual disclosure blocks in one reply.
const Separator = "\n=========\n"

// SiteLookup is the read side of the knowledge base the scanner consults.
type SiteLookup interface {
	Site(domain string) (store.SiteRecord, bool)
}

// Scanner decides, per domain, whether to reveal stored intelligence.
// Known domains surface more often than unknown ones so flagged links stand
// out without the bot replying to every message that carries a link.
type Scanner struct {
	sites         SiteLookup
	knownChance   float64
	unknownChance float64
	randFloat     func() float64
	logger        *slog.Logger
}

// NewScanner creates a Scanner with the given disclosure probabilities.
func NewScanner(log *slog.Logger, sites SiteLookup, knownChance, unknownChance float64) *Scanner {
	return &Scanner{
		sites:         sites,
		knownChance:   knownChance,
		unknownChance: unknownChance,
		randFloat:     rand.Float64,
		logger:        log.With(slog.String("component", "scanner")),
	}
}

// Disclose looks up the domain and formats its record. Without force the
// result is gated by the disclosure probability: knownChance when a record
// exists, unknownChance otherwise. Returns ok=false when the gate holds the
// disclosure back.
func (s *Scanner) Disclose(domain string, force bool) (string, bool) {
	chance := s.unknownChance
	rec, known := s.sites.Site(domain)
	if known {
		chance = s.knownChance
	}

	if !force && s.randFloat() >= chance {
		return "", false
	}

	display := rec.Domain
	if display == "" {
		display = domain
	}
	owner := rec.Owner
	if owner == "" {
		owner = "Unknown"
	}

	var b strings.Builder
	b.WriteString("DOMAIN: ")
	b.WriteString(display)
	b.WriteString("\nOWNER: ")
	b.WriteString(owner)
	if len(rec.Notes) > 0 {
		b.WriteString("\nNOTES: ")
		b.WriteString(strings.Join(rec.Notes, "\n "))
	}
	return b.String(), true
}

// Report runs the full pipeline over free text: extract, normalize, dedupe,
// disclose each surviving domain, and join the disclosures. Returns ok=false
// when no URL was found or every disclosure was suppressed.
func (s *Scanner) Report(text string, force bool) (string, bool) {
	domains := Domains(text)
	if len(domains) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(domains))
	for _, d := range domains {
		if info, ok := s.Disclose(d, force); ok {
			parts = append(parts, info)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, Separator), true
}
