package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/leapcode/leapsrp/internal/logging"
	"github.com/leapcode/leapsrp/pkg/protocol"
	"github.com/leapcode/leapsrp/pkg/srp"
)

// DefaultPendingTTL bounds the time between the two login exchanges.
const DefaultPendingTTL = 2 * time.Minute

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithSessionCookie sets the name of the session cookie.
func WithSessionCookie(name string) ProviderOption {
	return func(p *Provider) {
		p.cookieName = name
	}
}

// WithRateLimiter replaces the default lockout policy.
func WithRateLimiter(rl *RateLimiter) ProviderOption {
	return func(p *Provider) {
		p.rateLimiter = rl
	}
}

// WithServerOptions applies opts to every Server the provider creates.
func WithServerOptions(opts ...ServerOption) ProviderOption {
	return func(p *Provider) {
		p.serverOpts = opts
	}
}

// WithSessionTTL sets the lifetime of the sessions handed out as cookies.
func WithSessionTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		p.sessionTTL = ttl
	}
}

// WithPendingTTL sets how long a login may sit between the two exchanges.
func WithPendingTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		p.pendingTTL = ttl
	}
}

// WithLogger sets the provider logger.
func WithLogger(logger *logging.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Provider serves the LEAP session API:
//
//	POST   /sessions.json?login=U&A=hex
//	PUT    /sessions/U.json?client_auth=hex
//	DELETE /logout?authenticity_token=token
//
// Rejections are sent as {"errors": {...}} bodies.
type Provider struct {
	params      *srp.Parameters
	directory   *Directory
	pending     *SRPStore
	sessions    *SessionManager
	rateLimiter *RateLimiter
	serverOpts  []ServerOption
	sessionTTL  time.Duration
	pendingTTL  time.Duration
	cookieName  string
	logger      *logging.Logger
	mux         *http.ServeMux
}

// NewProvider creates a provider authenticating users in directory.
func NewProvider(params *srp.Parameters, directory *Directory, opts ...ProviderOption) (*Provider, error) {
	secret, err := GenerateSessionSecret()
	if err != nil {
		return nil, err
	}

	p := &Provider{
		params:      params,
		directory:   directory,
		rateLimiter: NewRateLimiter(DefaultMaxFailures, DefaultLockout),
		sessionTTL:  DefaultSessionTTL,
		pendingTTL:  DefaultPendingTTL,
		cookieName:  DefaultSessionCookie,
		logger:      logging.NewNop(),
		mux:         http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pending = NewSRPStore(p.pendingTTL)
	p.sessions = NewSessionManager(secret, p.sessionTTL)

	p.mux.HandleFunc("POST /sessions.json", p.handleInit)
	p.mux.HandleFunc("PUT /sessions/{file}", p.handleVerify)
	p.mux.HandleFunc("DELETE /logout", p.handleLogout)
	return p, nil
}

// ServeHTTP implements http.Handler.
func (p *Provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mux.ServeHTTP(w, r)
}

// Sessions exposes the session manager, e.g. to check a token in tests.
func (p *Provider) Sessions() *SessionManager {
	return p.sessions
}

func (p *Provider) handleInit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue(protocol.ParamLogin)
	hexA := r.FormValue(protocol.ParamA)
	if username == "" || hexA == "" {
		p.logAuthEvent("srp_init_invalid_request", username, "login or A missing")
		writeAPIErrors(w, http.StatusBadRequest, "base", "login and A are required")
		return
	}

	if p.locked(w, username) {
		return
	}

	record := p.directory.Lookup(username)
	if record == nil {
		p.logAuthEvent("srp_init_unknown_user", username, "no such user")
		writeAPIErrors(w, http.StatusUnprocessableEntity, "login", "does not exist")
		return
	}

	A, err := protocol.DecodeHex(hexA)
	if err != nil {
		p.logAuthEvent("srp_init_invalid_request", username, err.Error())
		writeAPIErrors(w, http.StatusBadRequest, "A", "is not a hex integer")
		return
	}

	server := NewServer(p.params, record, p.serverOpts...)
	salt, B, err := server.Init(A)
	if err != nil {
		p.logAuthEvent("srp_init_failed", username, err.Error())
		writeAPIErrors(w, http.StatusUnprocessableEntity, "A", "is invalid")
		return
	}
	p.pending.Store(username, server)

	p.logAuthEvent("srp_init_success", username, "")
	writeJSON(w, http.StatusOK, protocol.SRPInitResponse{
		Salt: protocol.EncodeHex(salt),
		B:    protocol.EncodeHex(B),
	})
}

func (p *Provider) handleVerify(w http.ResponseWriter, r *http.Request) {
	username, ok := strings.CutSuffix(r.PathValue("file"), ".json")
	if !ok || username == "" {
		http.NotFound(w, r)
		return
	}

	if p.locked(w, username) {
		return
	}

	server := p.pending.Retrieve(username)
	if server == nil {
		p.logAuthEvent("srp_verify_no_pending", username, "no pending login")
		writeAPIErrors(w, http.StatusUnprocessableEntity, "base", "no login in progress")
		return
	}
	defer server.ClearSecrets()

	M1, err := protocol.DecodeHexPadded(r.FormValue(protocol.ParamClientAuth), p.params.DigestSize())
	if err != nil {
		p.logAuthEvent("srp_verify_invalid_request", username, err.Error())
		writeAPIErrors(w, http.StatusBadRequest, "client_auth", "is not a valid proof")
		return
	}

	M2, err := server.Verify(M1)
	if err != nil {
		p.logAuthEvent("srp_verify_failed", username, err.Error())
		p.rateLimiter.RecordFailure(username)
		writeAPIErrors(w, http.StatusUnprocessableEntity, "password", "wrong password")
		return
	}
	p.rateLimiter.RecordSuccess(username)

	token, err := p.sessions.CreateSession(username)
	if err != nil {
		p.logAuthEvent("srp_verify_session_error", username, err.Error())
		writeAPIErrors(w, http.StatusInternalServerError, "base", "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
	})

	p.logAuthEvent("srp_verify_success", username, "")
	writeJSON(w, http.StatusOK, protocol.SRPVerifyResponse{
		M2: protocol.EncodeHex(M2),
		ID: username,
	})
}

func (p *Provider) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue(protocol.ParamAuthenticityToken)
	if token == "" {
		if c, err := r.Cookie(p.cookieName); err == nil {
			token = c.Value
		}
	}

	session, err := p.sessions.ValidateSession(token)
	if err != nil {
		p.logAuthEvent("logout_invalid_session", "", err.Error())
		writeAPIErrors(w, http.StatusUnauthorized, "base", "not logged in")
		return
	}
	_ = p.sessions.InvalidateSession(token)

	http.SetCookie(w, &http.Cookie{Name: p.cookieName, Value: "", Path: "/", MaxAge: -1})
	p.logAuthEvent("logout_success", session.Username, "")
	w.WriteHeader(http.StatusNoContent)
}

// locked writes a rejection and returns true while username is locked out.
func (p *Provider) locked(w http.ResponseWriter, username string) bool {
	wait, err := p.rateLimiter.CheckLimit(username)
	if !errors.Is(err, ErrAccountLocked) {
		return false
	}
	p.logAuthEvent("srp_rate_limited", username, "account locked")
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(wait.Round(time.Second)/time.Second)))
	writeAPIErrors(w, http.StatusTooManyRequests, "base", "too many failed attempts")
	return true
}

func (p *Provider) logAuthEvent(event, username, details string) {
	fields := map[string]any{"event": event, "username": username}
	if details != "" {
		fields["details"] = details
	}
	p.logger.Debug("provider auth event", fields)
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeAPIErrors(w http.ResponseWriter, statusCode int, field, message string) {
	writeJSON(w, statusCode, protocol.APIErrors{Errors: map[string]string{field: message}})
}
