package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/goccy/go-json"
	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/internal/media"
	"github.com/netgram/netgram/pkg/logger"
)

const (
	tmdbSearchMovieTemplate = "%s/search/movie?query=%s&api_key=%s"
	tmdbGetMovieTemplate    = "%s/movie/%d?api_key=%s"
)

var (
	ErrEnrichmentDisabled = errors.New("enrichment is disabled as no TMDB API key is configured")

	log = logger.Get("TMDB")
)

type (
	Config struct {
		ApiKey       string        `yaml:"api_key" env:"TMDB_API_KEY"`
		BaseURL      string        `yaml:"base_url" env:"ENRICHMENT_API_URL" env-default:"https://api.themoviedb.org/3"`
		ImageBaseURL string        `yaml:"image_base_url" env:"ENRICHMENT_IMAGE_URL" env-default:"https://image.tmdb.org/t/p/w500"`
		CacheSizeMB  int           `yaml:"cache_mb" env:"ENRICHMENT_CACHE_MB" env-default:"8"`
		CacheTTL     time.Duration `yaml:"cache_ttl" env:"ENRICHMENT_CACHE_TTL" env-default:"24h"`
	}

	SearchResult struct {
		Results      []SearchResultItem `json:"results"`
		TotalPages   int                `json:"total_pages"`
		TotalResults int                `json:"total_results"`
	}

	SearchResultItem struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		ReleaseDate string `json:"release_date"`
	}

	Genre struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Movie struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		Overview    string  `json:"overview"`
		PosterPath  string  `json:"poster_path"`
		VoteAverage float64 `json:"vote_average"`
		VoteCount   int     `json:"vote_count"`
		Genres      []Genre `json:"genres"`
	}

	// enricher looks up rating, genre, plot and poster information
	// for parsed media using the TMDB API.
	// See https://developer.themoviedb.org/reference/intro/getting-started for
	// information on the TMDB API.
	enricher struct {
		config Config
		client *http.Client
		cache  *lookupCache
	}
)

func NewEnricher(config Config) *enricher {
	return &enricher{
		config: config,
		client: &http.Client{},
		cache:  newLookupCache(config.CacheSizeMB, config.CacheTTL),
	}
}

// Lookup searches TMDB for the parsed media and returns its enrichment
// data. Any failure (including the context expiring) is reported as
// a NotEnriched result rather than an error.
func (enricher *enricher) Lookup(ctx context.Context, parsed media.ParsedMetadata) catalog.EnrichmentResult {
	if enricher.config.ApiKey == "" {
		return catalog.NotEnriched(ErrEnrichmentDisabled)
	}

	key := cacheKey(parsed)
	if data, ok := enricher.cache.get(key); ok {
		log.Debugf("Cache hit for %q\n", key)
		return catalog.Enriched(data)
	}

	result, err := enricher.SearchForMovie(ctx, parsed)
	if err != nil {
		return catalog.NotEnriched(err)
	}

	movie, err := enricher.GetMovie(ctx, result.ID)
	if err != nil {
		return catalog.NotEnriched(err)
	}

	data := enricher.movieToEnrichment(movie)
	enricher.cache.set(key, data)
	return catalog.Enriched(data)
}

// SearchForMovie will search the TMDB API for a match using the
// provided parsed metadata. An error will be raised if:
//   - A query to TMDB fails
//   - A search returns zero results
func (enricher *enricher) SearchForMovie(ctx context.Context, parsed media.ParsedMetadata) (*SearchResultItem, error) {
	path := fmt.Sprintf(tmdbSearchMovieTemplate, enricher.baseURL(), url.QueryEscape(parsed.Title), url.QueryEscape(enricher.config.ApiKey))
	var searchResult SearchResult
	if err := enricher.httpGetJsonResponse(ctx, path, &searchResult); err != nil {
		return nil, err
	}

	return pickSearchResult(searchResult.Results, parsed)
}

// GetMovie will query the TMDB API for the movie with the provided ID. This ID
// must be a valid TMDB ID, or else an error will be returned.
func (enricher *enricher) GetMovie(ctx context.Context, movieID int64) (*Movie, error) {
	path := fmt.Sprintf(tmdbGetMovieTemplate, enricher.baseURL(), movieID, url.QueryEscape(enricher.config.ApiKey))
	var movie Movie
	if err := enricher.httpGetJsonResponse(ctx, path, &movie); err != nil {
		return nil, err
	}

	return &movie, nil
}

func (enricher *enricher) movieToEnrichment(movie *Movie) catalog.Enrichment {
	data := catalog.Enrichment{
		Plot:   movie.Overview,
		Genres: make([]string, 0, len(movie.Genres)),
	}

	// TMDB reports an average of zero for titles nobody has voted on yet,
	// which is not the same as a rating of zero.
	if movie.VoteCount > 0 {
		rating := movie.VoteAverage
		data.Rating = &rating
	}
	for _, genre := range movie.Genres {
		data.Genres = append(data.Genres, genre.Name)
	}
	if movie.PosterPath != "" {
		data.Poster = strings.TrimSuffix(enricher.config.ImageBaseURL, "/") + movie.PosterPath
	}

	return data
}

func (enricher *enricher) baseURL() string {
	return strings.TrimSuffix(enricher.config.BaseURL, "/")
}

// pickSearchResult whittles the search results down to a single result. If the
// parsed metadata has a year then results released in that year are preferred, and
// the closest title (by case-insensitive Hamming similarity) wins. Ties are
// resolved in favour of TMDB's own ordering.
func pickSearchResult(results []SearchResultItem, parsed media.ParsedMetadata) (*SearchResultItem, error) {
	if len(results) == 0 {
		return nil, &NoResultError{}
	}

	if parsed.Year != 0 {
		sameYear := make([]SearchResultItem, 0, len(results))
		for _, v := range results {
			if releaseYear(v.ReleaseDate) == parsed.Year {
				sameYear = append(sameYear, v)
			}
		}
		if len(sameYear) > 0 {
			results = sameYear
		}
	}

	metric := &metrics.Hamming{CaseSensitive: false}
	best, bestScore := 0, -1.0
	for i, res := range results {
		if score := strutil.Similarity(res.Title, parsed.Title, metric); score > bestScore {
			best, bestScore = i, score
		}
	}

	return &results[best], nil
}

// releaseYear extracts the year from a TMDB date (YYYY-MM-DD). Missing
// or malformed dates return 0.
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}

	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}

	return year
}

func (enricher *enricher) httpGetJsonResponse(ctx context.Context, urlPath string, targetInterface any) error {
	redacted := redactQuery(urlPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to construct GET(%s): %s", redacted, withoutURL(err).Error())}
	}

	resp, err := enricher.client.Do(req)
	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to perform GET(%s) to TMDB: %s", redacted, withoutURL(err).Error())}
	}

	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var tmdbError tmdbError
		if err := json.Unmarshal(respBody, &tmdbError); err != nil {
			return &FailedRequestError{httpCode: resp.StatusCode, message: "non-OK response could not be unmarshalled", tmdbCode: -1}
		}

		return &FailedRequestError{httpCode: resp.StatusCode, message: tmdbError.StatusMessage, tmdbCode: tmdbError.StatusCode}
	}

	if err != nil {
		return &UnknownRequestError{fmt.Sprintf("failed to read response body: %s", err.Error())}
	}

	if err := json.Unmarshal(respBody, targetInterface); err != nil {
		return &UnknownRequestError{fmt.Sprintf("response JSON could not be unmarshalled: %s", err.Error())}
	}

	return nil
}

// redactQuery strips the query string (which contains the API key) from
// URLs before they're included in error messages.
func redactQuery(rawURL string) string {
	if idx := strings.Index(rawURL, "?"); idx >= 0 {
		return rawURL[:idx]
	}

	return rawURL
}

// withoutURL unwraps url.Error, whose message embeds the full request
// URL (API key included), leaving only the underlying cause.
func withoutURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}

	return err
}
