// Package skribbleapi talks to the skribble API: it fetches specification
// documents and reports run status back to the postback target.
//
// Status reporting is fire-and-forget. A postback failure is logged and
// swallowed; the run's outcome has already been decided by the time the
// notification goes out, and there is nobody left to escalate to.
package skribbleapi

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/cmwn/skramble/pkg/errors"
	"github.com/cmwn/skramble/pkg/httputil"
	"github.com/cmwn/skramble/pkg/skribble"
)

// Run status values posted to the postback target.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Config carries the client's collaborators.
type Config struct {
	Auth       *httputil.BasicAuth
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client fetches skribble documents and posts status notifications.
type Client struct {
	http   *http.Client
	auth   *httputil.BasicAuth
	logger *log.Logger
}

// New creates a skribble API client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httputil.NewClient(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{http: httpClient, auth: cfg.Auth, logger: logger}
}

// FetchDocument retrieves and parses the skribble specification. A transport
// failure, non-200 status, empty body, or unparseable document is fatal for
// the run.
func (c *Client) FetchDocument(ctx context.Context, url string) (*skribble.Document, error) {
	if url == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "missing skribble url")
	}
	c.logger.Info("fetching skribble data", "url", url)

	body, _, err := httputil.GetBytes(ctx, c.http, url, c.auth)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRemoteFetch, err, "fetching skribble from %s", url)
	}
	doc, err := skribble.ParseDocument(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRemoteFetch, err, "parsing skribble from %s", url)
	}
	return doc, nil
}

// ReportSuccess posts a success status to the postback target.
func (c *Client) ReportSuccess(ctx context.Context, postback string) {
	c.Report(ctx, postback, StatusSuccess)
}

// ReportError posts an error status to the postback target.
func (c *Client) ReportError(ctx context.Context, postback string) {
	c.Report(ctx, postback, StatusError)
}

// Report posts a status to the postback target. The API answers 201 on
// acceptance; anything else is logged and dropped.
func (c *Client) Report(ctx context.Context, postback, status string) {
	c.logger.Debug("reporting status", "status", status, "postback", postback)

	code, err := httputil.PostJSON(ctx, c.http, postback, c.auth, map[string]string{"status": status})
	if err != nil {
		c.logger.Error("error reporting status", "postback", postback, "err", err)
		return
	}
	if code != http.StatusCreated {
		c.logger.Error("incorrect response code reporting status", "code", code, "postback", postback)
		return
	}
	c.logger.Debug("reported status", "status", status, "postback", postback)
}
