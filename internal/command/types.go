// Package command parses trigger-prefixed chat messages, authorizes them
// against the session trust tiers, and executes the matching handler.
package command

// Request is the payload handed to a command handler. Params[0] is the
// command name with the trigger stripped; arguments follow.
type Request struct {
	RawText string
	Params  []string
	Nick    string
	Trip    string
	IsAdmin bool
	IsMod   bool
}

// Arg returns the 1-based argument token at i, or "" when absent.
func (r Request) Arg(i int) string {
	if i < 0 || i >= len(r.Params) {
		return ""
	}
	return r.Params[i]
}

// HasArg reports whether the 1-based argument token at i is present.
func (r Request) HasArg(i int) bool {
	return i >= 0 && i < len(r.Params)
}

// Result is what a handler produces: nothing, a chat reply, or a raw
// protocol payload passed through to the transport verbatim.
type Result struct {
	reply   string
	payload any
	hasText bool
}

// None is the empty result: the handler stays silent.
var None = Result{}

// Reply wraps text as a chat-send result.
func Reply(text string) Result {
	return Result{reply: text, hasText: true}
}

// Passthrough wraps an arbitrary protocol object to be sent verbatim.
func Passthrough(v any) Result {
	return Result{payload: v}
}

// Text returns the chat reply, if the result carries one.
func (r Result) Text() (string, bool) {
	return r.reply, r.hasText
}

// Payload returns the raw protocol object, if the result carries one.
func (r Result) Payload() (any, bool) {
	return r.payload, r.payload != nil
}

// Handler executes one command.
type Handler func(req Request) Result
