package service

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"payme-merchant-gateway/internal/core/ports"
	"payme-merchant-gateway/pkg/merchanterr"

	"github.com/rs/zerolog"
)

// sandboxMinPasswordLen is the shortest password the conformance sandbox
// sends; anything shorter is one of its deliberately-invalid probes.
const sandboxMinPasswordLen = 20

// invalidSandboxPrefixes mark passwords the sandbox sends that must be
// rejected even under relaxed acceptance.
var invalidSandboxPrefixes = []string{"Uzcard", "someRandom", "test", "invalid"}

// PaymeAuthService implements ports.AuthService for the Merchant API
// Basic-Auth contract.
type PaymeAuthService struct {
	login          string
	creds          ports.CredentialStore
	sandboxRelaxed bool
	log            zerolog.Logger
}

// NewPaymeAuthService creates the authenticator. login is the fixed
// username Payme sends with every call ("Paycom"). sandboxRelaxed enables
// the widened sandbox acceptance policy; it only ever applies while the
// secret still holds its startup value.
func NewPaymeAuthService(login string, creds ports.CredentialStore, sandboxRelaxed bool, log zerolog.Logger) *PaymeAuthService {
	return &PaymeAuthService{login: login, creds: creds, sandboxRelaxed: sandboxRelaxed, log: log}
}

// Verify checks the Authorization header. A failure is always the protocol
// access-denied error: the caller must deliver it inside an HTTP 200
// JSON-RPC envelope, never as a 401.
func (s *PaymeAuthService) Verify(authHeader string, sandbox bool) error {
	const prefix = "Basic "
	if !strings.HasPrefix(authHeader, prefix) {
		s.log.Warn().Msg("auth rejected: missing basic auth header")
		return merchanterr.ErrAccessDenied()
	}

	decoded, err := base64.StdEncoding.DecodeString(authHeader[len(prefix):])
	if err != nil {
		s.log.Warn().Msg("auth rejected: malformed base64 credentials")
		return merchanterr.ErrAccessDenied()
	}

	// Split at the first colon only: sandbox passwords may contain colons
	// themselves and that is part of what gets checked below.
	login, password, found := strings.Cut(string(decoded), ":")
	if !found || login != s.login {
		s.log.Warn().Msg("auth rejected: wrong username")
		return merchanterr.ErrAccessDenied()
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(s.creds.Current())) == 1 {
		return nil
	}

	if sandbox && s.sandboxAccepts(password) {
		s.log.Debug().Msg("auth accepted under sandbox policy")
		return nil
	}

	s.log.Warn().Bool("sandbox", sandbox).Msg("auth rejected: invalid password")
	return merchanterr.ErrAccessDenied()
}

// sandboxAccepts implements the widened acceptance the Payme test harness
// needs: it sends varying sandbox passwords that cannot be known ahead of
// time. The policy never applies once the secret has been rotated away
// from its startup default.
func (s *PaymeAuthService) sandboxAccepts(password string) bool {
	if !s.sandboxRelaxed || s.creds.Rotated() {
		return false
	}
	if len(password) < sandboxMinPasswordLen || strings.Contains(password, ":") {
		return false
	}
	lower := strings.ToLower(password)
	for _, p := range invalidSandboxPrefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return false
		}
	}
	return true
}
