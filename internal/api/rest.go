package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/netgram/netgram/internal/api/movies"
	"github.com/netgram/netgram/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = logger.Get("API")

const localFrontendOrigin = "http://localhost:3000"

type (
	RestConfig struct {
		Host           string   `yaml:"host" env:"API_HOST" env-default:"0.0.0.0"`
		Port           int      `yaml:"port" env:"API_PORT" env-default:"8000"`
		FrontendURL    string   `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:","`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// dataStore represents a union of all the controller store requirements
	dataStore interface {
		movies.Store
	}

	healthDto struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. It's sole responsibility
	// is to create the routes NetGram exposes, and to apply the middleware (CORS, logging,
	// panic recovery) the frontend relies on.
	RestGateway struct {
		config          *RestConfig
		ec              *echo.Echo
		movieController controller
	}
)

func (config *RestConfig) addr() string {
	return fmt.Sprintf("%s:%d", config.Host, config.Port)
}

// origins returns the origins allowed to make cross-origin requests, which always
// includes a locally running frontend.
func (config *RestConfig) origins() []string {
	origins := []string{}
	seen := map[string]struct{}{}
	for _, origin := range append([]string{config.FrontendURL, localFrontendOrigin}, config.AllowedOrigins...) {
		if _, ok := seen[origin]; ok || origin == "" {
			continue
		}

		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}

	return origins
}

// NewRestGateway constructs the Echo router and populates it with all the
// routes defined by the various controllers. Each controller requires access
// to a data store, which is provided as an argument.
func NewRestGateway(config *RestConfig, store dataStore) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	validate := validator.New()
	gateway := &RestGateway{
		config:          config,
		ec:              ec,
		movieController: movies.New(validate, store),
	}

	ec.Pre(middleware.RemoveTrailingSlash())
	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     config.origins(),
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowCredentials: true,
	}))

	ec.GET("/", func(ec echo.Context) error {
		return ec.JSON(http.StatusOK, healthDto{Status: "healthy", Message: "NetGram API is running"})
	})
	ec.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	gateway.movieController.SetRoutes(ec.Group(""))

	return gateway
}

// ServeHTTP allows the gateway to be used directly as a http.Handler,
// without binding to a port.
func (gateway *RestGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	gateway.ec.ServeHTTP(w, r)
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	defer ctxCancel(nil)
	wg := &sync.WaitGroup{}

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Emit(logger.NEW, "Listening on %s\n", gateway.config.addr())
		if err := gateway.ec.Start(gateway.config.addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ctxCancel(err)
		}
	}()

	// Start thread to listen for context cancellation
	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}
