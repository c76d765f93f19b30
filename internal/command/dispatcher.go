package command

import (
	"log/slog"
	"strings"
)

// Dispatcher recognizes trigger-prefixed messages and runs their handlers.
type Dispatcher struct {
	trigger  string
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher for the given trigger string.
func NewDispatcher(log *slog.Logger, trigger string, registry *Registry) *Dispatcher {
	return &Dispatcher{
		trigger:  strings.ToLower(trigger),
		registry: registry,
		logger:   log.With(slog.String("component", "dispatcher")),
	}
}

// Dispatch inspects a chat message. The second return value reports whether
// the message was recognized as a command invocation (its first token starts
// with the trigger); when true the message must not also be URL-scanned,
// even if the command name is unknown.
//
// Unknown names yield no reply. A panicking handler is recovered here,
// logged, and likewise yields no reply; one bad invocation must never take
// the session down.
func (d *Dispatcher) Dispatch(text, nick, trip string, admin, mod bool) (Result, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return None, false
	}

	// Lowercase before matching, in case the trigger is text.
	first := strings.ToLower(fields[0])
	if !strings.HasPrefix(first, d.trigger) {
		return None, false
	}

	name := first[len(d.trigger):]
	handler, ok := d.registry.Get(name)
	if !ok {
		d.logger.Debug("unknown command ignored", slog.String("name", name))
		return None, true
	}

	params := append([]string{name}, fields[1:]...)
	req := Request{
		RawText: text,
		Params:  params,
		Nick:    nick,
		Trip:    trip,
		IsAdmin: admin,
		IsMod:   mod || admin,
	}

	return d.run(name, handler, req), true
}

func (d *Dispatcher) run(name string, handler Handler, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("command handler panicked",
				slog.String("name", name),
				slog.String("nick", req.Nick),
				slog.Any("panic", r),
			)
			res = None
		}
	}()
	return handler(req)
}
