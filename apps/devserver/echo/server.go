package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/masomo-portal/core"
	mockstore "github.com/trezcool/masomo-portal/storage/mock"
)

type (
	Options struct {
		Address        string
		Debug          bool
		DisableReqLogs bool
		Stores         *mockstore.Stores
		Logger         core.Logger
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

// NewServer returns the development API serving the mock stores over the REST contract.
func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = s.opts.Debug

	s.app.GET("/health", health)

	stores := s.opts.Stores
	auth := authMiddleware(stores.Auth)

	registerAuthAPI(s.app.Group("/auth"), auth, stores.Auth)
	registerNewsAPI(s.app.Group("/news", auth), stores.News)
	registerNoticeAPI(s.app.Group("/notices", auth), stores.Notices)
	registerEventAPI(s.app.Group("/calendar/events", auth), stores.Calendar)
	registerUserAPI(s.app.Group("/users", auth), stores.Users)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return ok(ctx, http.StatusOK, echo.Map{"status": "ok"})
}
