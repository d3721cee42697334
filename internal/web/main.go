package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	fiberlogger "github.com/StorefrontAdmin/StorefrontAdmin/internal/logger/adapter/fiber"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/actions"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/api/contact"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/api/webhook"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/auditlog"
	oidchandler "github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/auth/oidc"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/dashboard"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/login"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/logout"
	edgeauth "github.com/StorefrontAdmin/StorefrontAdmin/internal/web/middleware/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/middleware/requestid"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// ErrNilEnv is returned by New when the handler environment is incomplete.
var ErrNilEnv = errors.New("web: " + handler.ErrNilEnvFatalLogMsg)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	env          *handler.Env
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.env.Config.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.env.Config.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// SetFastShutdown skips the load balancer drain period on shutdown.
func (s *Service) SetFastShutdown(fast bool) {
	s.fastShutDown = fast
}

// Alive reports whether /checkalive answers 200.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// CheckAlive handles the load balancer health check.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}

func newTemplateEngine(devMode bool) *html.Engine {
	engine := html.NewFileSystem(http.FS(templatesFS()), ".gohtml")

	// in dev mode, use local filesystem for templates
	if devMode {
		engine = html.New("./internal/web/templates", ".gohtml")
		engine.Reload(true)

		log.Warn().Msg("dev mode enabled: using local filesystem for templates")
	}

	engine.AddFunc("add", func(a, b int) int {
		return a + b
	})
	engine.AddFunc("deref", func(v *int64) int64 {
		if v == nil {
			return 0
		}

		return *v
	})

	return engine
}

// accessFields logs the first forwarded hop and the signed in user with every request.
func accessFields(c *fiber.Ctx, e *zerolog.Event) {
	acc := session.Get(c)
	e.Str("clientIP", acc.IP())

	if u := acc.Identity(); u != nil {
		e.Str("username", u.Username)
	}
}

// Handlers returns the route handlers in registration order.
func Handlers() []handler.Service {
	return []handler.Service{
		&login.Service{},
		&oidchandler.Service{},
		&logout.Service{},
		&dashboard.Service{},
		&actions.Service{},
		&auditlog.Service{},
		&contact.Service{},
		&webhook.Service{},
	}
}

// New creates the web service and registers all routes.
func New(env *handler.Env) (*Service, error) {
	if env == nil || env.Config == nil {
		return nil, ErrNilEnv
	}

	cfg := env.Config

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "StorefrontAdmin",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          newTemplateEngine(cfg.DevMode),
		},
	)

	service := &Service{App: app, env: env}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(requestid.Middleware)
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:            cfg.Log,
		CacheControlError: fiberlogger.ConfigDefault.CacheControlError,
		CheckAliveURI:     CheckAlivePath,
		RequestIDLocal:    requestid.LocalsKey,
		Fields:            accessFields,
	}))
	app.Use(session.Middleware(env.Codec))
	app.Use(edgeauth.New(edgeauth.Config{Codec: env.Codec, Secure: env.SecureCookies()}))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	for _, h := range Handlers() {
		if err := h.Init(app, env); err != nil {
			return nil, err
		}
	}

	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(handler.AdminPath)
	})

	return service, nil
}
