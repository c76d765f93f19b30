// Package bot routes inbound chat events to the command dispatcher or the
// passive URL scanner and drives the keep-alive/persistence cycle.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sitesentry/sitesentry/internal/classify"
	"github.com/sitesentry/sitesentry/internal/command"
	"github.com/sitesentry/sitesentry/internal/hackchat"
	"github.com/sitesentry/sitesentry/internal/session"
	"github.com/sitesentry/sitesentry/internal/store"
)

// scanHeader prefixes a passive-scan reply.
const scanHeader = "# MALICIOUS LINK(S) DETECTED\n"

// Sender delivers outbound protocol frames.
type Sender interface {
	Send(v any)
}

// Saver flushes the session snapshot, best effort.
type Saver interface {
	SaveAsync(snap store.Snapshot)
}

// Stats are the counters exposed on the ops status endpoint.
type Stats struct {
	MessagesSeen int64     `json:"messages_seen"`
	CommandsRun  int64     `json:"commands_run"`
	Disclosures  int64     `json:"disclosures"`
	StartedAt    time.Time `json:"started_at"`
}

// Service is the inbound event router.
type Service struct {
	nick         string
	saveInterval time.Duration
	dispatcher   *command.Dispatcher
	scanner      *classify.Scanner
	session      *session.Service
	sender       Sender
	saver        Saver
	logger       *slog.Logger

	messagesSeen atomic.Int64
	commandsRun  atomic.Int64
	disclosures  atomic.Int64
	startedAt    time.Time

	keepAliveOnce sync.Once
	cron          *cron.Cron
}

// NewService wires the router.
func NewService(
	log *slog.Logger,
	nick string,
	saveInterval time.Duration,
	dispatcher *command.Dispatcher,
	scanner *classify.Scanner,
	sess *session.Service,
	sender Sender,
	saver Saver,
) *Service {
	return &Service{
		nick:         nick,
		saveInterval: saveInterval,
		dispatcher:   dispatcher,
		scanner:      scanner,
		session:      sess,
		sender:       sender,
		saver:        saver,
		logger:       log.With(slog.String("service", "bot")),
		startedAt:    time.Now(),
	}
}

// HandleEvent processes one inbound event to completion. Chat messages are
// either a command invocation or a URL scan, never both. The onlineSet
// session-ready signal starts the keep-alive cycle.
func (s *Service) HandleEvent(ctx context.Context, ev hackchat.Event) {
	switch ev.Cmd {
	case "chat":
		s.handleChat(ev)
	case "onlineSet":
		s.logger.Info("logged in", slog.String("nick", s.nick))
		s.startKeepAlive()
	}
}

func (s *Service) handleChat(ev hackchat.Event) {
	if ev.Nick == "" || ev.Nick == s.nick || ev.Text == "" {
		return
	}
	s.messagesSeen.Add(1)

	res, isCommand := s.dispatcher.Dispatch(ev.Text, ev.Nick, ev.Trip, ev.Admin, ev.Mod)
	if isCommand {
		s.commandsRun.Add(1)
		if text, ok := res.Text(); ok {
			s.sender.Send(hackchat.NewChatMessage(text))
		} else if payload, ok := res.Payload(); ok {
			s.sender.Send(payload)
		}
		return
	}

	report, ok := s.scanner.Report(ev.Text, false)
	if !ok {
		return
	}
	s.disclosures.Add(1)
	s.sender.Send(hackchat.NewChatMessage(scanHeader + report))
}

// startKeepAlive starts the periodic ping and storage flush. Runs once even
// if the server replays onlineSet across reconnects.
func (s *Service) startKeepAlive() {
	s.keepAliveOnce.Do(func() {
		s.cron = cron.New()
		schedule := fmt.Sprintf("@every %ds", int(s.saveInterval.Seconds()))
		_, err := s.cron.AddFunc(schedule, func() {
			s.sender.Send(hackchat.NewPingMessage())
			s.saver.SaveAsync(s.session.Snapshot())
		})
		if err != nil {
			s.logger.Error("keep-alive schedule failed", slog.Any("error", err))
			return
		}
		s.cron.Start()
		s.logger.Info("keep-alive started", slog.Duration("interval", s.saveInterval))
	})
}

// Stop halts the keep-alive cycle and flushes the store one last time.
func (s *Service) Stop(ctx context.Context) {
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
		}
	}
	s.saver.SaveAsync(s.session.Snapshot())
}

// Stats returns a copy of the runtime counters.
func (s *Service) Stats() Stats {
	return Stats{
		MessagesSeen: s.messagesSeen.Load(),
		CommandsRun:  s.commandsRun.Load(),
		Disclosures:  s.disclosures.Load(),
		StartedAt:    s.startedAt,
	}
}
