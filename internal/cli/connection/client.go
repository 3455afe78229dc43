package connection

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/zumicash/zumi-go/internal/infra/buildinfo"
)

// socketBaseURL is the placeholder host used for requests over a Unix socket.
const socketBaseURL = "http://zumi.local"

// Options configures a Client.
type Options struct {
	// Server is the base URL. A bare host:port gets http://.
	Server string

	// APIKey is sent as X-API-Key when set.
	APIKey string

	// Socket routes every request over this Unix socket instead of Server.
	Socket string

	Timeout time.Duration

	// Insecure skips TLS verification.
	Insecure bool
}

// APIError is an error response from zumi-server.
type APIError struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"error"`
	RequestID string `json:"request_id"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Client issues JSON requests to zumi-server.
type Client struct {
	http    *resty.Client
	baseURL string
}

// New creates a client from opts.
func New(opts Options) *Client {
	rc := resty.New().
		SetHeader("User-Agent", "zumi-cli/"+buildinfo.Get().Version).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.APIKey != "" {
		rc.SetHeader("X-API-Key", opts.APIKey)
	}

	base := normalizeServer(opts.Server)
	if opts.Socket != "" {
		path := opts.Socket
		rc.SetTransport(&http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		})
		base = socketBaseURL
	} else if opts.Insecure {
		rc.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	rc.SetBaseURL(base)

	return &Client{http: rc, baseURL: base}
}

// BaseURL returns the URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes a 2xx body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	return c.do(req, http.MethodGet, path, out)
}

// Post issues a POST with a JSON body and decodes a 2xx body into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.do(req, http.MethodPost, path, out)
}

func (c *Client) do(req *resty.Request, method, path string, out any) error {
	apiErr := &APIError{}
	req.SetError(apiErr)
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return nil
}

func normalizeServer(server string) string {
	if server == "" {
		return ""
	}
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	return strings.TrimRight(server, "/")
}
