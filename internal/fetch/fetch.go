// Package fetch retrieves code samples referenced by GitHub links. Fetch
// failures are input errors: they terminate a session before any pipeline
// work begins.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dshills/codehealth/internal/fault"
)

// allowedHosts is the set of hosts code may be fetched from.
var allowedHosts = map[string]bool{
	"github.com":                true,
	"raw.githubusercontent.com": true,
}

// maxBodyBytes bounds the fetched sample size.
const maxBodyBytes = 1 << 20 // 1 MB

// Client fetches raw file content from GitHub.
type Client struct {
	httpClient *http.Client
}

// New returns a Client with a bounded request timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// RawURL rewrites a github.com blob link to its raw.githubusercontent.com
// equivalent. Links already pointing at the raw host are returned unchanged.
// Links outside the allowed hosts are rejected as input errors.
func RawURL(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", &fault.InputError{Reason: "unparseable github link", Err: err}
	}
	if !allowedHosts[u.Hostname()] {
		return "", &fault.InputError{
			Reason: fmt.Sprintf("host %q is not an allowed code source", u.Hostname()),
		}
	}
	if u.Hostname() == "raw.githubusercontent.com" {
		return link, nil
	}
	raw := strings.Replace(link, "github.com", "raw.githubusercontent.com", 1)
	raw = strings.Replace(raw, "/blob/", "/", 1)
	return raw, nil
}

// Fetch retrieves the file content behind a GitHub link. All failures are
// classified as InputError.
func (c *Client) Fetch(ctx context.Context, link string) (string, error) {
	raw, err := RawURL(link)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", &fault.InputError{Reason: "build fetch request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &fault.InputError{Reason: "fetch github link", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &fault.InputError{
			Reason: fmt.Sprintf("fetch github link: status %d (file missing or not public)", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &fault.InputError{Reason: "read fetched body", Err: err}
	}
	if len(body) == 0 {
		return "", &fault.InputError{Reason: "fetched file is empty"}
	}
	return string(body), nil
}
