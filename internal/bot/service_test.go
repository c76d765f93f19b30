package bot_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesentry/sitesentry/internal/bot"
	"github.com/sitesentry/sitesentry/internal/classify"
	"github.com/sitesentry/sitesentry/internal/command"
	"github.com/sitesentry/sitesentry/internal/hackchat"
	"github.com/sitesentry/sitesentry/internal/session"
	"github.com/sitesentry/sitesentry/internal/store"
)

type fakeSender struct {
	mu    sync.Mutex
	sends []any
}

func (f *fakeSender) Send(v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, v)
}

func (f *fakeSender) all() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.sends...)
}

type fakeSaver struct {
	mu    sync.Mutex
	saves int
}

func (f *fakeSaver) SaveAsync(store.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
}

// newTestBot builds a Service over real core components: knownChance controls
// whether passive disclosures always or never fire.
func newTestBot(t *testing.T, knownChance float64, snap store.Snapshot) (*bot.Service, *fakeSender, *fakeSaver) {
	t.Helper()
	log := slog.Default()
	sess := session.NewService(log, "OWNER1", 6, snap)
	scanner := classify.NewScanner(log, sess, knownChance, knownChance)
	commands := command.NewCommands("!", sess, sess, scanner)
	dispatcher := command.NewDispatcher(log, "!", commands.Registry())
	sender := &fakeSender{}
	saver := &fakeSaver{}
	svc := bot.NewService(log, "SiteSentry", time.Second, dispatcher, scanner, sess, sender, saver)
	return svc, sender, saver
}

func chatEvent(nick, text string) hackchat.Event {
	return hackchat.Event{Cmd: "chat", Nick: nick, Text: text}
}

func TestHandleChatCommandReply(t *testing.T) {
	t.Parallel()
	svc, sender, _ := newTestBot(t, 1.0, store.Snapshot{})

	svc.HandleEvent(context.Background(), chatEvent("alice", "!amiverified"))

	sends := sender.all()
	require.Len(t, sends, 1)
	msg, ok := sends[0].(hackchat.ChatMessage)
	require.True(t, ok)
	assert.Equal(t, "No, you are not good enough for me.", msg.Text)

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.MessagesSeen)
	assert.Equal(t, int64(1), stats.CommandsRun)
	assert.Equal(t, int64(0), stats.Disclosures)
}

func TestHandleChatPassiveScan(t *testing.T) {
	t.Parallel()
	svc, sender, _ := newTestBot(t, 1.0, store.Snapshot{
		URLs: map[string]store.SiteRecord{
			"evil.com": {Owner: "Mallory"},
		},
	})

	svc.HandleEvent(context.Background(), chatEvent("alice", "look at http://evil.com/login"))

	sends := sender.all()
	require.Len(t, sends, 1)
	msg := sends[0].(hackchat.ChatMessage)
	assert.Equal(t, "# MALICIOUS LINK(S) DETECTED\nDOMAIN: evil.com\nOWNER: Mallory", msg.Text)
	assert.Equal(t, int64(1), svc.Stats().Disclosures)
}

func TestHandleChatSuppressedScanStaysSilent(t *testing.T) {
	t.Parallel()
	svc, sender, _ := newTestBot(t, 0.0, store.Snapshot{})

	svc.HandleEvent(context.Background(), chatEvent("alice", "look at http://evil.com"))

	assert.Empty(t, sender.all())
}

func TestHandleChatIgnoresSelfAndEmpty(t *testing.T) {
	t.Parallel()
	svc, sender, _ := newTestBot(t, 1.0, store.Snapshot{})

	svc.HandleEvent(context.Background(), chatEvent("SiteSentry", "http://evil.com"))
	svc.HandleEvent(context.Background(), chatEvent("", "http://evil.com"))
	svc.HandleEvent(context.Background(), chatEvent("alice", ""))

	assert.Empty(t, sender.all())
	assert.Equal(t, int64(0), svc.Stats().MessagesSeen)
}

func TestCommandAndScanAreExclusive(t *testing.T) {
	t.Parallel()
	svc, sender, _ := newTestBot(t, 1.0, store.Snapshot{})

	// An unknown command carrying a URL must not fall through to the scanner.
	svc.HandleEvent(context.Background(), chatEvent("alice", "!nosuchcommand http://evil.com"))

	assert.Empty(t, sender.all())
	assert.Equal(t, int64(1), svc.Stats().CommandsRun)
}

func TestOnlineSetStartsKeepAliveOnce(t *testing.T) {
	t.Parallel()
	svc, _, saver := newTestBot(t, 1.0, store.Snapshot{})

	svc.HandleEvent(context.Background(), hackchat.Event{Cmd: "onlineSet"})
	svc.HandleEvent(context.Background(), hackchat.Event{Cmd: "onlineSet"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	svc.Stop(ctx)

	// Stop always flushes once more.
	saver.mu.Lock()
	defer saver.mu.Unlock()
	assert.GreaterOrEqual(t, saver.saves, 1)
}
