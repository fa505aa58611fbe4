package shortener

import "fmt"

type UnexpectedStatusError struct{ StatusCode int }

func (err *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("shortener responded with HTTP %d", err.StatusCode)
}
