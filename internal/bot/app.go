// Package bot wires the verification gate together: it loads languages,
// opens the ledger, connects the Discord session and runs until it receives
// a termination signal.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/verifybot/internal/bot/config"
	"github.com/dmitrijs2005/verifybot/internal/bot/discord"
	"github.com/dmitrijs2005/verifybot/internal/bot/embeds"
	"github.com/dmitrijs2005/verifybot/internal/bot/ledger"
	"github.com/dmitrijs2005/verifybot/internal/bot/verification"
	"github.com/dmitrijs2005/verifybot/internal/i18n"
	"github.com/dmitrijs2005/verifybot/internal/logging"
)

// StatsInterval is how often gateway latency and counters are logged.
const StatsInterval = 10 * time.Minute

// gatewaySession is the lifecycle part of *discordgo.Session.
type gatewaySession interface {
	Open() error
	Close() error
	HeartbeatLatency() time.Duration
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	closers []io.Closer

	session *discordgo.Session
	gateway gatewaySession
	ledger  ledger.Repository
	service *verification.Service
	router  *discord.Router

	checkToken func(ctx context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logFile, err := logging.NewFileLogger(c.LogFile, logging.ParseLevel(c.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	app := &App{config: c, logger: logger, closers: []io.Closer{logFile}}

	catalog, err := i18n.LoadDir(c.LanguagesDir, c.Settings.DefaultLanguage, logger)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	repo, err := ledger.Open(ctx, c, logger)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("ledger init error: %w", err)
	}
	app.ledger = repo
	app.closers = append([]io.Closer{repo}, app.closers...)

	s, err := discord.NewSession(c.Token)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	app.session = s
	app.gateway = s
	app.checkToken = func(ctx context.Context) error {
		u, err := discord.CheckToken(ctx, s)
		if err == nil {
			logger.Info(ctx, "token accepted", "user", u.String())
		}
		return err
	}

	app.service = verification.NewService(c, discord.NewSessionGateway(s), repo, embeds.NewBuilder(catalog, c), logger)
	app.router = discord.NewRouter(app.service, logger)
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run connects to the gateway and blocks until ctx is cancelled or a
// termination signal arrives. The ledger and log file are closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close(context.Background())

	app.logger.Info(ctx, "Starting bot...")
	app.initSignalHandler(cancelFunc)

	if err := app.checkToken(ctx); err != nil {
		return err
	}

	if app.session != nil {
		unregister := app.router.Register(app.session)
		defer unregister()
	}
	if err := app.gateway.Open(); err != nil {
		return fmt.Errorf("open gateway session: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info(ctx, "Shutting down...")
		return app.gateway.Close()
	})
	g.Go(func() error {
		app.reportStats(gctx, StatsInterval)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (app *App) reportStats(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			app.logger.Debug(ctx, "stats",
				"heartbeat_latency", app.gateway.HeartbeatLatency().String(),
				"analytics", app.service.Analytics())
		}
	}
}

func (app *App) close(ctx context.Context) {
	for _, c := range app.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			app.logger.Warn(ctx, "close failed", "error", err)
		}
	}
	app.closers = nil
}
