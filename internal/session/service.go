// Package session owns the bot's mutable state: the verified-trip trust
// store and the per-domain knowledge base. All reads and writes go through
// one mutex so concurrent handlers can never interleave a read-modify-write
// on the notes list or the verified set.
package session

import (
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/sitesentry/sitesentry/internal/store"
)

// reservedDomainKeys are map keys that older JavaScript deployments of the
// bot could be tricked into aliasing through the object prototype chain.
// Go maps have no such chain, but a storage file shared with those
// deployments must never grow a record under these names.
var reservedDomainKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// ReservedDomainKey reports whether domain is refused as a knowledge-base key.
func ReservedDomainKey(domain string) bool {
	_, ok := reservedDomainKeys[domain]
	return ok
}

// Service is the process-wide session aggregate.
type Service struct {
	ownerTrip  string
	tripLength int
	logger     *slog.Logger

	mu       sync.Mutex
	verified []string
	sites    map[string]store.SiteRecord
}

// NewService builds the session from configuration and the loaded snapshot.
func NewService(log *slog.Logger, ownerTrip string, tripLength int, snap store.Snapshot) *Service {
	sites := make(map[string]store.SiteRecord, len(snap.URLs))
	for k, v := range snap.URLs {
		if ReservedDomainKey(k) {
			log.Warn("dropping reserved domain key from storage", slog.String("domain", k))
			continue
		}
		sites[k] = v.Clone()
	}
	return &Service{
		ownerTrip:  ownerTrip,
		tripLength: tripLength,
		logger:     log.With(slog.String("service", "session")),
		verified:   append([]string(nil), snap.VerifiedTrips...),
		sites:      sites,
	}
}

// IsTrip reports whether s looks like a trip: a string whose trimmed length
// equals the configured trip length.
func (s *Service) IsTrip(trip string) bool {
	return len(strings.TrimSpace(trip)) == s.tripLength
}

// IsVerified reports whether trip is trusted. With strict=false the verified
// set counts; the owner trip always counts, whether or not it is in the set.
func (s *Service) IsVerified(trip string, strict bool) bool {
	if trip == "" {
		return false
	}
	if trip == s.ownerTrip {
		return true
	}
	if strict {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.verified, trip)
}

// IsOwner reports whether trip is the configured owner trip.
func (s *Service) IsOwner(trip string) bool {
	return s.IsVerified(trip, true)
}

// AddVerified appends trip to the verified set. Returns false if it was
// already present.
func (s *Service) AddVerified(trip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.verified, trip) {
		return false
	}
	s.verified = append(s.verified, trip)
	return true
}

// RemoveVerified removes trip from the verified set. Returns false if it was
// not present.
func (s *Service) RemoveVerified(trip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.Index(s.verified, trip)
	if idx < 0 {
		return false
	}
	s.verified = slices.Delete(s.verified, idx, idx+1)
	return true
}

// Verified returns a copy of the verified set in insertion order.
func (s *Service) Verified() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.verified...)
}

// Site returns a copy of the record for domain, if one exists.
func (s *Service) Site(domain string) (store.SiteRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sites[domain]
	if !ok {
		return store.SiteRecord{}, false
	}
	return rec.Clone(), true
}

// Sites returns a copy of the whole knowledge base.
func (s *Service) Sites() map[string]store.SiteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]store.SiteRecord, len(s.sites))
	for k, v := range s.sites {
		out[k] = v.Clone()
	}
	return out
}

// UpdateSite fetches or creates the record for domain and applies fn to it
// under the session lock. If fn returns an error the stored record is left
// untouched. Records are created on first write and never deleted, matching
// the storage format's lifecycle.
func (s *Service) UpdateSite(domain string, fn func(rec *store.SiteRecord) error) error {
	if ReservedDomainKey(domain) {
		return ErrReservedDomain
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.sites[domain].Clone()
	if err := fn(&rec); err != nil {
		return err
	}
	s.sites[domain] = rec
	return nil
}

// Snapshot exports a deep copy of the current state for persistence.
func (s *Service) Snapshot() store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := store.Snapshot{
		URLs:          make(map[string]store.SiteRecord, len(s.sites)),
		VerifiedTrips: append([]string(nil), s.verified...),
	}
	for k, v := range s.sites {
		snap.URLs[k] = v.Clone()
	}
	return snap
}

// Counts returns the number of stored sites and verified trips, for the ops
// status endpoint.
func (s *Service) Counts() (sites, verified int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sites), len(s.verified)
}
