package store

// SiteRecord is the stored intelligence about a normalized domain.
// Fields round-trip as absent when unset, matching the storage files
// written by earlier versions of the bot.
type SiteRecord struct {
	Domain string   `json:"domain,omitempty"`
	Owner  string   `json:"owner,omitempty"`
	Notes  []string `json:"notes,omitempty"`
}

// Clone returns a deep copy of the record. An empty-but-present notes list
// stays present: it is distinct from an absent one.
func (r SiteRecord) Clone() SiteRecord {
	out := r
	if r.Notes != nil {
		out.Notes = make([]string, len(r.Notes))
		copy(out.Notes, r.Notes)
	}
	return out
}

// Snapshot is the full persisted state: the domain knowledge base plus the
// verified-trip list.
type Snapshot struct {
	URLs          map[string]SiteRecord `json:"urls"`
	VerifiedTrips []string              `json:"verifiedTrips"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		URLs:          make(map[string]SiteRecord, len(s.URLs)),
		VerifiedTrips: append([]string(nil), s.VerifiedTrips...),
	}
	for k, v := range s.URLs {
		out.URLs[k] = v.Clone()
	}
	return out
}
