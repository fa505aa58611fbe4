package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/netgram/netgram/internal/catalog"
	"github.com/stretchr/testify/assert"
)

type emptyStore struct{}

func (emptyStore) ListMovies(context.Context, catalog.ListOptions) ([]*catalog.Record, error) {
	return []*catalog.Record{}, nil
}

func (emptyStore) GetMovieByMessageID(context.Context, int64) (*catalog.Record, error) {
	return nil, catalog.ErrMovieNotFound
}

func (emptyStore) SearchMovies(context.Context, string, int, int) ([]*catalog.Record, error) {
	return []*catalog.Record{}, nil
}

func (emptyStore) ListGenres(context.Context) ([]string, error) { return []string{}, nil }

func newTestGateway() *RestGateway {
	return NewRestGateway(&RestConfig{
		Host:           "127.0.0.1",
		Port:           0,
		FrontendURL:    "https://netgram.example",
		AllowedOrigins: []string{"https://admin.netgram.example"},
	}, emptyStore{})
}

func request(gateway *RestGateway, method string, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	gateway.ServeHTTP(rec, req)
	return rec
}

func Test_HealthCheck(t *testing.T) {
	rec := request(newTestGateway(), http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","message":"NetGram API is running"}`, rec.Body.String())
}

func Test_Metrics(t *testing.T) {
	rec := request(newTestGateway(), http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func Test_TrailingSlashIsIgnored(t *testing.T) {
	gateway := newTestGateway()

	assert.Equal(t, http.StatusOK, request(gateway, http.MethodGet, "/movies/", nil).Code)
	assert.Equal(t, http.StatusOK, request(gateway, http.MethodGet, "/movies", nil).Code)
}

func Test_CORS(t *testing.T) {
	gateway := newTestGateway()
	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://netgram.example", true},
		{"http://localhost:3000", true},
		{"https://admin.netgram.example", true},
		{"https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			rec := request(gateway, http.MethodGet, "/movies", map[string]string{"Origin": tt.origin})

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func Test_CORS_PreflightWithCredentials(t *testing.T) {
	rec := request(newTestGateway(), http.MethodOptions, "/movies", map[string]string{
		"Origin":                         "https://netgram.example",
		"Access-Control-Request-Method":  http.MethodGet,
		"Access-Control-Request-Headers": "Content-Type, Authorization",
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://netgram.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET,HEAD,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
}

func Test_Origins_AreDeduplicated(t *testing.T) {
	config := &RestConfig{FrontendURL: "http://localhost:3000", AllowedOrigins: []string{"", "https://a.example", "https://a.example"}}

	assert.Equal(t, []string{"http://localhost:3000", "https://a.example"}, config.origins())
}
