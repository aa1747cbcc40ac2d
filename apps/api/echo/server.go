package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/educa/core"
	"github.com/trezcool/educa/core/course"
	"github.com/trezcool/educa/core/user"
)

type Server struct {
	app      *echo.Echo
	conf     *core.Config
	errors   chan error
	shutdown chan os.Signal
}

// NewServer returns the API server. Interrupt & terminate signals are
// forwarded to ShutdownSignal.
func NewServer(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	usrSvc *user.Service,
	crsSvc *course.Service,
) *Server {
	s := &Server{
		app:      echo.New(),
		conf:     conf,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if !conf.TestMode {
		signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	}

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(logger, translator, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", home)
	if prefix := strings.TrimSuffix(conf.Media.URL, "/"); strings.HasPrefix(prefix, "/") && conf.Media.Root != "" {
		s.app.Static(prefix, conf.Media.Root)
	}

	g := s.app.Group("/api")
	auth := authenticator{conf: conf, users: usrSvc}
	jwt := middleware.JWTWithConfig(jwtConfig(conf))
	authed := []echo.MiddlewareFunc{jwt, userMiddleware(auth)}

	registerUserAPI(g, authed, auth, validate)
	registerCourseAPI(g, authed, crsSvc, validate)
	registerModuleAPI(g, authed, crsSvc, validate)
	registerContentAPI(g, authed, crsSvc, validate, conf.Media.MaxUploadSize)

	return s
}

// Start listens on the configured address. Its error is sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Educa API!")
}
