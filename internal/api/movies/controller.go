package movies

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/pkg/logger"
)

var log = logger.Get("MovieAPI")

type (
	Store interface {
		ListMovies(ctx context.Context, opts catalog.ListOptions) ([]*catalog.Record, error)
		GetMovieByMessageID(ctx context.Context, messageID int64) (*catalog.Record, error)
		SearchMovies(ctx context.Context, query string, offset int, limit int) ([]*catalog.Record, error)
		ListGenres(ctx context.Context) ([]string, error)
	}

	Controller struct {
		store    Store
		validate *validator.Validate
	}
)

func New(validate *validator.Validate, store Store) *Controller {
	return &Controller{store: store, validate: validate}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/movies", controller.list)
	eg.GET("/movies/:id", controller.get)
	eg.GET("/popular", controller.popular)
	eg.GET("/recent", controller.recent)
	eg.GET("/search", controller.search)
	eg.GET("/filter", controller.filter)
	eg.GET("/genres", controller.genres)
}

// list returns a page of the catalog, newest first.
func (controller *Controller) list(ec echo.Context) error {
	return controller.listPage(ec, catalog.Filter{}, catalog.OrderNewest)
}

// recent is identical to list, and exists as the frontend
// uses it for the 'recently added' row.
func (controller *Controller) recent(ec echo.Context) error {
	return controller.listPage(ec, catalog.Filter{}, catalog.OrderNewest)
}

// popular returns a page of the catalog containing only
// rated movies, highest rating first.
func (controller *Controller) popular(ec echo.Context) error {
	return controller.listPage(ec, catalog.Filter{RatedOnly: true}, catalog.OrderRating)
}

func (controller *Controller) listPage(ec echo.Context, filter catalog.Filter, order catalog.Order) error {
	request := newPageRequest()
	if err := controller.bind(ec, &request); err != nil {
		return err
	}

	records, err := controller.store.ListMovies(ec.Request().Context(), catalog.ListOptions{
		Filter: filter,
		Order:  order,
		Offset: request.offset(),
		Limit:  request.Limit,
	})
	if err != nil {
		return internalError("failed to list movies", err)
	}

	return ec.JSON(http.StatusOK, PageDto{
		Movies:  NewDtos(records),
		Page:    request.Page,
		Limit:   request.Limit,
		HasMore: len(records) == request.Limit,
	})
}

func (controller *Controller) get(ec echo.Context) error {
	messageID, err := strconv.ParseInt(ec.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Movie ID is not a valid integer")
	}

	record, err := controller.store.GetMovieByMessageID(ec.Request().Context(), messageID)
	if err != nil {
		if errors.Is(err, catalog.ErrMovieNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Movie not found")
		}

		return internalError(fmt.Sprintf("failed to get movie %d", messageID), err)
	}

	return ec.JSON(http.StatusOK, NewDto(record))
}

// search finds movies whose title contains the query, ignoring case.
func (controller *Controller) search(ec echo.Context) error {
	page := newPageRequest()
	request := searchRequest{Page: page.Page, Limit: page.Limit}
	if err := controller.bind(ec, &request); err != nil {
		return err
	}

	page = pageRequest{Page: request.Page, Limit: request.Limit}
	records, err := controller.store.SearchMovies(ec.Request().Context(), request.Query, page.offset(), page.Limit)
	if err != nil {
		return internalError("failed to search movies", err)
	}

	return ec.JSON(http.StatusOK, SearchPageDto{
		Movies:  NewDtos(records),
		Query:   request.Query,
		Page:    page.Page,
		Limit:   page.Limit,
		HasMore: len(records) == page.Limit,
	})
}

// filter returns a page of movies matching all of the provided filters, where
// genre must match exactly, and language/quality match ignoring case.
func (controller *Controller) filter(ec echo.Context) error {
	page := newPageRequest()
	request := filterRequest{Page: page.Page, Limit: page.Limit}
	if err := controller.bind(ec, &request); err != nil {
		return err
	}

	page = pageRequest{Page: request.Page, Limit: request.Limit}
	records, err := controller.store.ListMovies(ec.Request().Context(), catalog.ListOptions{
		Filter: catalog.Filter{Genre: request.Genre, Language: request.Language, Quality: request.Quality},
		Order:  catalog.OrderNewest,
		Offset: page.offset(),
		Limit:  page.Limit,
	})
	if err != nil {
		return internalError("failed to filter movies", err)
	}

	return ec.JSON(http.StatusOK, FilterPageDto{
		Movies: NewDtos(records),
		Filters: FiltersDto{
			Genre:    optional(request.Genre),
			Language: optional(request.Language),
			Quality:  optional(request.Quality),
		},
		Page:    page.Page,
		Limit:   page.Limit,
		HasMore: len(records) == page.Limit,
	})
}

func (controller *Controller) genres(ec echo.Context) error {
	genres, err := controller.store.ListGenres(ec.Request().Context())
	if err != nil {
		return internalError("failed to list genres", err)
	}
	if genres == nil {
		genres = []string{}
	}

	return ec.JSON(http.StatusOK, GenresDto{Genres: genres})
}

// bind populates the request struct from the query parameters, and then
// validates it. Fields absent from the query retain their existing value.
func (controller *Controller) bind(ec echo.Context, request any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(ec, request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	if err := controller.validate.Struct(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid query parameters: %s", err.Error()))
	}

	return nil
}

// internalError logs the cause of a failure and returns a generic
// error, so that internal details are not exposed to API clients.
func internalError(message string, err error) error {
	log.Errorf("%s: %v\n", message, err)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}
