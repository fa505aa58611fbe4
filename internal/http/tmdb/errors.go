package tmdb

import "fmt"

type (
	tmdbError struct {
		StatusCode    int    `json:"status_code"`
		StatusMessage string `json:"status_message"`
	}
	FailedRequestError struct {
		httpCode int
		tmdbCode int
		message  string
	}
	NoResultError       struct{}
	UnknownRequestError struct{ reason string }
)

func (err *UnknownRequestError) Error() string {
	return fmt.Sprintf("unknown error occurred while communicating with TMDB: %s", err.reason)
}
func (err *FailedRequestError) Error() string {
	return fmt.Sprintf("Request failure (HTTP %d): %s", err.httpCode, err.message)
}
func (err *FailedRequestError) StatusCode() int { return err.httpCode }
func (err *NoResultError) Error() string       { return "no results returned from TMDB" }
