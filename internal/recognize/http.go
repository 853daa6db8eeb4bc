package recognize

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 2 * time.Minute
	maxErrorBody       = 512
)

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// statusError describes a non-2xx response, keeping a bounded slice of the body.
func statusError(service string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%s http %d: %s", service, resp.StatusCode, strings.TrimSpace(string(body)))
}
