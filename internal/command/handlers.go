package command

import (
	"errors"
	"strings"

	"github.com/sitesentry/sitesentry/internal/session"
	"github.com/sitesentry/sitesentry/internal/store"
)

// Fixed user-facing reply strings. Validation failures and refusals are
// ordinary replies, not errors.
const (
	replyNoPermission   = "Sorry, but you don't have permission to do that."
	replyNotATrip       = "That does not look like a trip to me."
	replyNeedTrip       = "You must give me an actual trip!"
	replyTripExists     = "That trip is already in the verified list."
	replyTripAdded      = "Added that trip to the verified list!"
	replyTripMissing    = "Sorry, (well, not sorry since you wanted to remove it anyway) but that trip does not exist in the list."
	replyTripRemoved    = "Removed that trip from the verified list"
	replyListRefused    = "No can do buckaroo, I don't kiss and tell."
	replyVerifiedYes    = "Yes, you are. Please use me babe <3"
	replyVerifiedNo     = "No, you are not good enough for me."
	replyNeedSites      = "You must supply site(s)."
	replyNeedURL        = "You must supply a site url."
	replyNeedProp       = "You must supply a property that you are editing."
	replyReservedKey    = "I'm sorry, but I can't let you do that. Some keys are off limits."
	replyBadProp        = "You must supply a valid property (notes|owner)."
	replyNeedAction     = "You must supply an action."
	replyBadNotesAction = "That is not a valid action to use on notes. (remove|add|unset)"
	replyBadOwnerAction = "That is not a valid action to use on owner. (set|unset)"
	replyNeedEdit       = "You must give me a string for the property you are editing."
	replySucceeded      = "Succeeded."
)

// Trust is the identity/authorization surface commands check before mutating
// anything.
type Trust interface {
	IsTrip(trip string) bool
	IsVerified(trip string, strict bool) bool
	IsOwner(trip string) bool
	AddVerified(trip string) bool
	RemoveVerified(trip string) bool
	Verified() []string
}

// SiteEditor mutates knowledge-base records with own-key semantics.
type SiteEditor interface {
	UpdateSite(domain string, fn func(rec *store.SiteRecord) error) error
}

// SiteReporter formats disclosure reports for URLs found in text.
type SiteReporter interface {
	Report(text string, force bool) (string, bool)
}

// Commands is the fixed command set of the bot.
type Commands struct {
	trigger  string
	trust    Trust
	sites    SiteEditor
	reporter SiteReporter
	registry *Registry
}

// NewCommands builds the command set and registers every command into a
// fresh registry.
func NewCommands(trigger string, trust Trust, sites SiteEditor, reporter SiteReporter) *Commands {
	c := &Commands{
		trigger:  strings.ToLower(trigger),
		trust:    trust,
		sites:    sites,
		reporter: reporter,
		registry: NewRegistry(),
	}
	c.registry.MustRegister("help", c.Help)
	c.registry.MustRegister("addverify", c.AddVerify)
	c.registry.MustRegister("removeverify", c.RemoveVerify)
	c.registry.MustRegister("listverified", c.ListVerified)
	c.registry.MustRegister("amiverified", c.AmIVerified)
	c.registry.MustRegister("getsiteinfo", c.GetSiteInfo)
	c.registry.MustRegister("customizesite", c.CustomizeSite)
	return c
}

// Registry returns the closed registry holding every command.
func (c *Commands) Registry() *Registry {
	return c.registry
}

// Help lists all registered command names, trigger-prefixed and sorted.
func (c *Commands) Help(Request) Result {
	names := c.registry.Names()
	for i, name := range names {
		names[i] = c.trigger + name
	}
	return Reply("Commands:\n" + strings.Join(names, ", "))
}

// AddVerify appends a trip to the verified set. Owner only.
func (c *Commands) AddVerify(req Request) Result {
	if !c.trust.IsOwner(req.Trip) {
		return Reply(replyNoPermission)
	}
	if !req.HasArg(1) {
		return Reply(replyNeedTrip)
	}
	trip := req.Arg(1)
	if !c.trust.IsTrip(trip) {
		return Reply(replyNotATrip)
	}
	if !c.trust.AddVerified(strings.TrimSpace(trip)) {
		return Reply(replyTripExists)
	}
	return Reply(replyTripAdded)
}

// RemoveVerify removes a trip from the verified set. Owner only.
func (c *Commands) RemoveVerify(req Request) Result {
	if !c.trust.IsOwner(req.Trip) {
		return Reply(replyNoPermission)
	}
	if !req.HasArg(1) {
		return Reply(replyNeedTrip)
	}
	trip := req.Arg(1)
	if !c.trust.IsTrip(trip) {
		return Reply(replyNotATrip)
	}
	if !c.trust.RemoveVerified(strings.TrimSpace(trip)) {
		return Reply(replyTripMissing)
	}
	return Reply(replyTripRemoved)
}

// ListVerified returns the verified set, owner only.
func (c *Commands) ListVerified(req Request) Result {
	if !c.trust.IsOwner(req.Trip) {
		return Reply(replyListRefused)
	}
	return Reply(strings.Join(c.trust.Verified(), ", "))
}

// AmIVerified reports the caller's own standing.
func (c *Commands) AmIVerified(req Request) Result {
	if c.trust.IsVerified(req.Trip, false) {
		return Reply(replyVerifiedYes)
	}
	return Reply(replyVerifiedNo)
}

// GetSiteInfo discloses stored intelligence for every URL in the arguments,
// bypassing the probability gate.
func (c *Commands) GetSiteInfo(req Request) Result {
	text := strings.Join(req.Params[1:], " ")
	report, ok := c.reporter.Report(text, true)
	if !ok {
		return Reply(replyNeedSites)
	}
	return Reply("# INFO:\n" + report)
}

// User-visible customizesite mutation failures, carried out of the update
// callback as errors whose text is the reply.
var (
	errNoNotes      = errors.New("There is no notes, so we can not remove that note.")
	errNoteNotFound = errors.New("There is no note with that exact text. Please type it exactly.")
	errNotesUnset   = errors.New("You can't unset nothing komrade! No nothing? That sounds horrifying.")
)

// CustomizeSite edits a domain record. Verified callers only. Every
// validation step is terminal on failure and runs before any mutation.
func (c *Commands) CustomizeSite(req Request) Result {
	if !c.trust.IsVerified(req.Trip, false) {
		return Reply(replyNoPermission)
	}

	if !req.HasArg(1) {
		return Reply(replyNeedURL)
	}
	url := strings.ToLower(req.Arg(1))

	if !req.HasArg(2) {
		return Reply(replyNeedProp)
	}

	if session.ReservedDomainKey(url) {
		return Reply(replyReservedKey)
	}

	prop := strings.ToLower(strings.TrimSpace(req.Arg(2)))
	if prop == "note" {
		prop = "notes"
	}
	if prop != "notes" && prop != "owner" {
		return Reply(replyBadProp)
	}

	if !req.HasArg(3) {
		return Reply(replyNeedAction)
	}
	action := strings.ToLower(req.Arg(3))

	// The action sets are intentionally asymmetric: notes never support
	// "set" and owner never supports "add"/"remove".
	if prop == "notes" && action != "remove" && action != "add" && action != "unset" {
		return Reply(replyBadNotesAction)
	}
	if prop == "owner" && action != "set" && action != "unset" {
		return Reply(replyBadOwnerAction)
	}

	edit := strings.Join(req.Params[min(4, len(req.Params)):], " ")
	if edit == "" && action != "unset" {
		return Reply(replyNeedEdit)
	}

	err := c.sites.UpdateSite(url, func(rec *store.SiteRecord) error {
		switch {
		case prop == "notes" && action == "add":
			if rec.Notes == nil {
				rec.Notes = []string{}
			}
			rec.Notes = append(rec.Notes, edit)
		case prop == "notes" && action == "remove":
			if rec.Notes == nil {
				return errNoNotes
			}
			idx := -1
			for i, note := range rec.Notes {
				if note == edit {
					idx = i
					break
				}
			}
			if idx < 0 {
				return errNoteNotFound
			}
			rec.Notes = append(rec.Notes[:idx], rec.Notes[idx+1:]...)
		case prop == "notes" && action == "unset":
			if rec.Notes == nil {
				return errNotesUnset
			}
			rec.Notes = nil
		case prop == "owner" && action == "set":
			rec.Owner = edit
		case prop == "owner" && action == "unset":
			rec.Owner = ""
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, session.ErrReservedDomain) {
			return Reply(replyReservedKey)
		}
		return Reply(err.Error())
	}
	return Reply(replySucceeded)
}
