package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/prepdesk/backend/core"
	"github.com/prepdesk/backend/core/collab"
	"github.com/prepdesk/backend/core/section"
	"github.com/prepdesk/backend/core/testconfig"
	"github.com/prepdesk/backend/core/user"
	"github.com/prepdesk/backend/core/visibility"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		UserSvc        user.Service
		SectionSvc     section.Service
		ConfigSvc      testconfig.Service
		VisibilitySvc  visibility.Service
		CollabSvc      collab.Service
		Logger         core.Logger
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerSectionAPI(v1, jwt, s.opts.SectionSvc)
	registerTestConfigAPI(v1, jwt, s.opts.ConfigSvc)
	registerVisibilityAPI(v1, jwt, s.opts.VisibilitySvc)
	registerCollabAPI(v1, jwt, s.opts.CollabSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) signalShutdown() {
	go func() { _ = s.Stop(context.Background()) }()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}
