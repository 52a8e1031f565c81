// Package client talks to the session API of a LEAP provider.
package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"syscall"
	"time"

	"github.com/leapcode/leapsrp/internal/cli/config"
	cliTLS "github.com/leapcode/leapsrp/internal/cli/tls"
	"github.com/leapcode/leapsrp/internal/logging"
	"github.com/leapcode/leapsrp/pkg/protocol"
)

const (
	defaultTimeout  = 30 * time.Second
	contentTypeJSON = "application/json"
	maxResponseSize = 1 << 20
)

// Client is an HTTP client for the LEAP session API. It implements
// login.Exchanger. Each call is a single request; retrying is up to the
// login orchestrator. Cookies set by the provider are kept from SRPInit to
// SRPVerify, and every SRPInit starts with an empty jar. A Client runs one
// login at a time.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *logging.Logger
	redactor   *logging.Redactor
}

// NewClient creates a client for the provider configured in cfg.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if err := cfg.RequireAPIURL(); err != nil {
		return nil, err
	}

	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	return New(cfg.APIURL, &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}, logger)
}

// New creates a client for the API at apiURL using httpClient.
func New(apiURL string, httpClient *http.Client, logger *logging.Logger) (*Client, error) {
	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", apiURL, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	// Copied so the jar stays private to this client.
	hc := *httpClient
	c := &Client{
		baseURL:    base,
		httpClient: &hc,
		logger:     logger,
		redactor:   logging.NewRedactor(),
	}
	c.resetCookies()
	return c, nil
}

// resetCookies drops every cookie of a previous exchange.
func (c *Client) resetCookies() {
	jar, _ := cookiejar.New(nil) // never fails without options
	c.httpClient.Jar = jar
}

// SRPInit sends the client ephemeral: POST sessions.json?login=U&A=hex.
// A rejected login yields an empty response.
//
//nolint:gocritic // A is capitalized per RFC 5054 SRP-6a specification
func (c *Client) SRPInit(ctx context.Context, username, A string) (*protocol.SRPInitResponse, error) {
	query := url.Values{}
	query.Set(protocol.ParamLogin, username)
	query.Set(protocol.ParamA, A)

	c.resetCookies()
	req, err := c.newRequest(ctx, http.MethodPost, query, "sessions.json")
	if err != nil {
		return nil, err
	}

	var resp protocol.SRPInitResponse
	if _, err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SRPVerify sends the client proof: PUT sessions/U.json?client_auth=hex,
// along with the cookies of SRPInit. The first cookie the jar holds for the
// request afterwards is the session token.
//
//nolint:gocritic // M1 is capitalized per RFC 5054 SRP-6a specification
func (c *Client) SRPVerify(ctx context.Context, username, M1 string) (*protocol.SRPVerifyResponse, error) {
	query := url.Values{}
	query.Set(protocol.ParamClientAuth, M1)

	req, err := c.newRequest(ctx, http.MethodPut, query, "sessions", username+".json")
	if err != nil {
		return nil, err
	}

	var resp protocol.SRPVerifyResponse
	httpResp, err := c.do(req, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Empty() {
		return &resp, nil
	}

	cookies := c.httpClient.Jar.Cookies(req.URL)
	if len(cookies) == 0 {
		cookies = httpResp.Cookies()
	}
	if len(cookies) > 0 {
		resp.SessionTokenCarrier = cookies[0].Name
		resp.SessionToken = cookies[0].Value
	}
	return &resp, nil
}

// Logout ends the session: DELETE logout?authenticity_token=token with the
// session cookie attached.
func (c *Client) Logout(ctx context.Context, carrier, token string) error {
	query := url.Values{}
	query.Set(protocol.ParamAuthenticityToken, token)

	req, err := c.newRequest(ctx, http.MethodDelete, query, "logout")
	if err != nil {
		return err
	}
	c.resetCookies()
	if carrier != "" {
		req.AddCookie(&http.Cookie{Name: carrier, Value: token})
	}

	var apiErrs protocol.APIErrors
	if _, err := c.do(req, &apiErrs); err != nil {
		return err
	}
	if len(apiErrs.Errors) > 0 {
		return protocol.NewSessionInvalidError("provider did not accept the session token")
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, query url.Values, elem ...string) (*http.Request, error) {
	u := c.baseURL.JoinPath(elem...)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, protocol.NewInvalidRequestError(err.Error()).Wrap(err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	return req, nil
}

// do executes req and decodes the JSON body into response. A body with an
// "errors" key leaves response zero, whatever the status code.
func (c *Client) do(req *http.Request, response any) (*http.Response, error) {
	c.logger.Debug("sending request", map[string]any{
		"method": req.Method,
		"url":    c.redactor.RedactURL(req.URL.String()),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyError(req.Context(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, protocol.NewTransportFailureError("failed to read response body: "+err.Error(), true).Wrap(err)
	}

	c.logger.Debug("received response", map[string]any{
		"method": req.Method,
		"status": resp.StatusCode,
	})

	if rejected, err := hasAPIErrors(body); err == nil && rejected {
		if apiErrs, ok := response.(*protocol.APIErrors); ok {
			_ = json.Unmarshal(body, apiErrs)
		}
		c.logger.Debug("provider rejected request", map[string]any{"status": resp.StatusCode})
		return resp, nil
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return nil, protocol.NewRateLimitExceededError(retryAfter)
	case resp.StatusCode >= 500:
		return nil, protocol.NewTransportFailureError(fmt.Sprintf("server error (HTTP %d)", resp.StatusCode), true)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, protocol.NewSessionInvalidError(fmt.Sprintf("HTTP %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, protocol.NewTransportFailureError(fmt.Sprintf("request failed (HTTP %d)", resp.StatusCode), false)
	}

	if len(body) == 0 || resp.StatusCode == http.StatusNoContent {
		return resp, nil
	}
	if err := json.Unmarshal(body, response); err != nil {
		return nil, protocol.NewProtocolViolationError("response is not valid JSON").Wrap(err)
	}
	return resp, nil
}

// hasAPIErrors reports whether body is a JSON object with an "errors" key.
func hasAPIErrors(body []byte) (bool, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return false, err
	}
	_, ok := obj["errors"]
	return ok, nil
}

// classifyError converts a failed round trip into a login error. Nothing is
// retryable once ctx is done.
func classifyError(ctx context.Context, err error) error {
	switch {
	case isTLSError(err):
		return protocol.NewTLSError(err.Error()).Wrap(err)
	case ctx.Err() != nil:
		return protocol.NewTransportFailureError(err.Error(), false).Wrap(err)
	default:
		return protocol.NewTransportFailureError(err.Error(), isRetryable(err)).Wrap(err)
	}
}

// isRetryable checks if an error is transient and should be retried.
func isRetryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && (dnsErr.IsTemporary || dnsErr.IsTimeout) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

func isTLSError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		alertErr    tls.AlertError
		recordErr   tls.RecordHeaderError
		authorityEr x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &authorityEr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr) ||
		errors.Is(err, cliTLS.ErrFingerprintMismatch) ||
		errors.Is(err, cliTLS.ErrCertificateRejected)
}
