package platform

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://its-peanuts-ai.onrender.com"
	userAgent = "spigell/peanuts-cli"
	// AI endpoints routinely take tens of seconds.
	defaultTimeout = 90 * time.Second
)

// TokenSource provides the bearer token for protected calls.
// An empty token means the call is made anonymously.
type TokenSource interface {
	Token() string
}

type Client struct {
	tokens     TokenSource
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, tokens TokenSource) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		tokens: tokens,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// WithTimeout replaces the http timeout. Non-positive values keep the default.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.HTTPClient.Timeout = timeout
	}
	return c
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.APIURL, "/") + path
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return strings.TrimSpace(c.tokens.Token())
}
