package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/sitesentry/sitesentry/internal/bot"
	"github.com/sitesentry/sitesentry/internal/classify"
	"github.com/sitesentry/sitesentry/internal/command"
	"github.com/sitesentry/sitesentry/internal/config"
	"github.com/sitesentry/sitesentry/internal/hackchat"
	"github.com/sitesentry/sitesentry/internal/handlers"
	"github.com/sitesentry/sitesentry/internal/logger"
	"github.com/sitesentry/sitesentry/internal/server"
	"github.com/sitesentry/sitesentry/internal/session"
	"github.com/sitesentry/sitesentry/internal/store"
	"github.com/sitesentry/sitesentry/internal/version"
)

func main() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if strings.TrimSpace(defaultConfig) == "" {
		defaultConfig = config.DefaultConfigPath
	}

	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config.toml")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("sitesentry %s\n", version.GetInfo())
		return
	}

	fx.New(
		fx.Provide(
			func() (config.Config, error) {
				cfg, err := config.Load(configPath)
				if err != nil {
					return config.Config{}, fmt.Errorf("load config: %w", err)
				}
				return cfg, nil
			},
			provideLogger,
			provideStore,
			provideSession,
			provideScanner,
			provideDispatcher,
			provideClient,
			provideBot,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideStatusHandler),
			provideServer,
		),
		fx.Invoke(
			startClient,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideStore(log *slog.Logger, cfg config.Config) *store.FileStore {
	return store.NewFileStore(log, cfg.Storage.Path)
}

// provideSession loads the persisted snapshot. A missing or corrupt store is
// fatal: the bot must not run without its knowledge base.
func provideSession(log *slog.Logger, cfg config.Config, fileStore *store.FileStore) (*session.Service, error) {
	snap, err := fileStore.Load()
	if err != nil {
		return nil, fmt.Errorf("load storage: %w", err)
	}
	return session.NewService(log, cfg.Bot.OwnerTrip, cfg.Bot.TripLength, snap), nil
}

func provideScanner(log *slog.Logger, cfg config.Config, sess *session.Service) *classify.Scanner {
	return classify.NewScanner(log, sess, cfg.Disclosure.KnownChance, cfg.Disclosure.UnknownChance)
}

func provideDispatcher(log *slog.Logger, cfg config.Config, sess *session.Service, scanner *classify.Scanner) *command.Dispatcher {
	commands := command.NewCommands(cfg.Bot.Trigger, sess, sess, scanner)
	return command.NewDispatcher(log, cfg.Bot.Trigger, commands.Registry())
}

func provideClient(log *slog.Logger, cfg config.Config) *hackchat.Client {
	return hackchat.NewClient(log, hackchat.Options{
		URL:           cfg.Bot.WebsocketURL,
		Channel:       cfg.Bot.Channel,
		Nick:          cfg.Bot.Nick,
		Password:      cfg.Bot.Password,
		SendPerSecond: cfg.Server.SendPerSecond,
		SendBurst:     cfg.Server.SendBurst,
	})
}

func provideBot(
	log *slog.Logger,
	cfg config.Config,
	dispatcher *command.Dispatcher,
	scanner *classify.Scanner,
	sess *session.Service,
	client *hackchat.Client,
	fileStore *store.FileStore,
) *bot.Service {
	interval := time.Duration(cfg.Storage.SaveIntervalSeconds) * time.Second
	return bot.NewService(log, cfg.Bot.Nick, interval, dispatcher, scanner, sess, client, fileStore)
}

func provideStatusHandler(log *slog.Logger, sess *session.Service, botService *bot.Service, client *hackchat.Client) *handlers.StatusHandler {
	return handlers.NewStatusHandler(log, sess, botService, client)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

// provideServer returns nil when no ops address is configured; the bot runs
// without an HTTP surface then.
func provideServer(params serverParams) *server.Server {
	addr := strings.TrimSpace(params.Config.Server.Addr)
	if addr == "" {
		return nil
	}
	return server.NewServer(params.Logger, addr, params.ServerHandlers...)
}

func startClient(lc fx.Lifecycle, log *slog.Logger, client *hackchat.Client, botService *bot.Service, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting sitesentry %s\n", version.GetInfo())

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			client.SetHandler(botService)
			go func() {
				err := client.Run(runCtx)
				if err != nil && !errors.Is(err, context.Canceled) {
					log.Error("transport failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			botService.Stop(ctx)
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	if srv == nil {
		log.Info("ops server disabled, no server.addr configured")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
