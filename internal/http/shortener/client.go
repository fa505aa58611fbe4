package shortener

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/netgram/netgram/pkg/logger"
)

var log = logger.Get("Shortener")

type (
	Config struct {
		Endpoint string        `yaml:"endpoint" env:"SHORTENER_API"`
		Timeout  time.Duration `yaml:"timeout" env:"SHORTENER_TIMEOUT" env-default:"5s"`
	}

	shortenRequest struct {
		URL string `json:"url"`
	}

	shortenResponse struct {
		ShortURL string `json:"short_url"`
	}

	// Client shortens URLs using a generic JSON shortening endpoint. Shortening is
	// best-effort: any failure results in the original URL being returned.
	Client struct {
		config Config
		client *http.Client
	}
)

func New(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &Client{config: config, client: &http.Client{Timeout: config.Timeout}}
}

// Shorten returns the shortened form of the URL provided, or the URL itself if
// no shortener is configured or the shortener could not be reached.
func (c *Client) Shorten(ctx context.Context, url string) string {
	if c.config.Endpoint == "" {
		return url
	}

	short, err := c.shorten(ctx, url)
	if err != nil {
		log.Warnf("Failed to shorten %s, using original URL: %v\n", url, err)
		return url
	}
	if short == "" {
		return url
	}

	return short
}

func (c *Client) shorten(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(shortenRequest{URL: url})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &UnexpectedStatusError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var decoded shortenResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", err
	}

	return decoded.ShortURL, nil
}
