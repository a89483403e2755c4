// Package goferseo serves XML sitemaps, a merged robots.txt and crawler
// blocking for a site whose content lives in a SQLite database.
//
// The sitemap, robots, crawlers and ping packages do the work; App wires
// them to the store, the content bus and an Echo server.
package goferseo

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/goferseo/cache"
	"github.com/eringen/goferseo/content"
	"github.com/eringen/goferseo/crawlers"
	"github.com/eringen/goferseo/ping"
	"github.com/eringen/goferseo/robots"
	"github.com/eringen/goferseo/sitemap"
)

// App is the central goferseo application. It wires together the store,
// the content bus, the sitemap dispatcher, the robots builder, the crawler
// gatekeeper and the ping notifier.
type App struct {
	Config     SiteConfig
	Echo       *echo.Echo
	Store      *Store
	Bus        *content.Bus
	Dispatcher *sitemap.Dispatcher
	Robots     *robots.Builder
	Gatekeeper *crawlers.Gatekeeper
	BlockLog   *crawlers.BlockLog
	Notifier   *ping.Notifier
	Logger     *slog.Logger

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	resolver     crawlers.Resolver
	pingOpts     []ping.Option
	hostRobots   robots.HostFunc
}

// New creates a new App with the given configuration. Nothing is opened
// until Init or Start.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Bus:    content.NewBus(),
	}
	a.Echo.HideBanner = true
	a.Logger, _ = NewLogger(os.Stderr, cfg.LogLevel)

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// WithLogger replaces the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// Init opens the store and builds every component, middleware and route.
// It is called by Start; tests call it directly and drive a.Echo.
func (a *App) Init() error {
	if a.Config.AdminPassword == "" || a.Config.SessionSecret == "" {
		return ErrMissingSecret
	}
	if a.Config.Normalize() {
		a.Logger.Warn("configuration values out of range were reset to defaults")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("goferseo: init store: %w", err)
	}
	a.Store = store

	if err := a.initSitemap(); err != nil {
		store.Close()
		return err
	}
	a.initRobots()
	a.initCrawlers()
	a.initPing()

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) initSitemap() error {
	cfg := a.Config.Sitemap
	renderer, err := sitemap.NewRenderer(sitemap.SiteInfo{
		URL:         a.Config.URL,
		Name:        a.Config.Name,
		Description: a.Config.Description,
		Language:    a.Config.Language,
	}, cfg.Frequencies())
	if err != nil {
		return fmt.Errorf("goferseo: init renderer: %w", err)
	}

	var (
		providerOpts []sitemap.ProviderOption
		dispatchOpts = []sitemap.DispatcherOption{
			sitemap.WithDocumentCache(cache.NewMemory[*sitemap.Response]()),
			sitemap.WithLogger(a.Logger),
		}
	)
	if cfg.Images {
		urls := sitemap.NewURLCache(a.Store, sitemap.AttachmentURLTTL)
		images := sitemap.NewImageExtractor(a.Store, urls, a.Config.UploadsDir, uploadsPath, a.Logger,
			sitemap.WithMinImageSize(cfg.MinImageSize))
		providerOpts = append(providerOpts, sitemap.WithImages(images))
		dispatchOpts = append(dispatchOpts, sitemap.WithImagePersistence(images))
	}
	providers, err := sitemap.BuildProviders(a.Store, cfg, providerOpts...)
	if err != nil {
		return fmt.Errorf("goferseo: init providers: %w", err)
	}
	a.Dispatcher = sitemap.NewDispatcher(cfg, renderer, providers, dispatchOpts...)
	a.Bus.Subscribe(a.Dispatcher)
	return nil
}

func (a *App) initRobots() {
	host := a.hostRobots
	if host == nil {
		host = robots.HostFile(a.Config.Robots.HostFile)
	}
	a.Robots = robots.NewBuilder(a.Config.Robots, host, cache.NewMemory[string](), a.Config.SitemapURLs()...)
}

func (a *App) initCrawlers() {
	resolver := a.resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	a.BlockLog = crawlers.NewBlockLog(a.Store, a.Config.Crawlers.LogCap)
	a.Gatekeeper = crawlers.NewGatekeeper(a.Config.Crawlers, resolver, a.BlockLog, a.Logger)
}

func (a *App) initPing() {
	opts := append([]ping.Option{
		ping.WithLogger(a.Logger),
		ping.WithKindFilter(a.Config.Sitemap.PostTypeEnabled),
	}, a.pingOpts...)
	a.Notifier = ping.NewNotifier(a.Config.Ping, a.Config.SitemapURL(sitemap.FamilyStandard), opts...)
	a.Bus.Subscribe(a.Notifier)
}

// Start initializes the application and runs the server until it stops.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Info("listening", "addr", a.Config.Addr, "url", a.Config.URL)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	if a.Config.UploadsDir != "" {
		e.Static("/uploads", a.Config.UploadsDir)
	}
	e.GET("/robots.txt", a.handleRobots)

	// Admin routes
	public := e.Group("/admin", a.csrfMiddleware())
	public.GET("/csrf", handleAdminCSRF)
	public.POST("/login", a.handleAdminLogin)
	public.POST("/logout", handleAdminLogout)
	admin := public.Group("", requireAdmin)
	admin.POST("/posts/:id/status", a.handleAdminTransition)
	admin.POST("/attachments", a.handleAdminUpload)
	admin.GET("/robots", a.handleAdminRobots)
	admin.DELETE("/robots/cache", a.handleAdminRobotsFlush)
	admin.GET("/blocklog", a.handleAdminBlockLog)
	admin.DELETE("/blocklog", a.handleAdminBlockLogClear)
}

// TransitionPost moves a post to status and publishes the transition to
// every subscriber: the sitemap cache and the ping notifier.
func (a *App) TransitionPost(ctx context.Context, id int64, status content.Status) (content.Transitioned, error) {
	ev, err := a.Store.SetPostStatus(ctx, id, status)
	if err != nil {
		return ev, err
	}
	a.Logger.Info("content transitioned", "id", ev.ID, "kind", ev.Kind, "from", ev.OldStatus, "to", ev.NewStatus)
	a.Bus.Publish(ctx, ev)
	return ev, nil
}

// Close waits for in-flight pings and closes the store.
func (a *App) Close() error {
	if a.Notifier != nil {
		a.Notifier.Wait()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("goferseo: required environment variable %s is not set", key)
	}
	return v
}
