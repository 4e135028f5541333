package session

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/gorilla/websocket"
)

var (
	ErrNoCredentials    = errors.New("session: game code and token are required")
	ErrNotAuthenticated = errors.New("session: not authenticated")
	ErrNotConnected     = errors.New("session: not connected, reconnecting")
	ErrAuthRejected     = errors.New("session: authentication rejected")
	ErrRetriesExhausted = errors.New("session: max retries exhausted")
	ErrSessionOver      = errors.New("session: game archived")
	ErrLeft             = errors.New("session: left the game")
	ErrClosed           = errors.New("session: closed")
	ErrTransportClosed  = errors.New("session: transport closed")
)

// AuthError is reported when the peer rejects the token. It is never retried.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return ErrAuthRejected.Error()
	}
	return ErrAuthRejected.Error() + ": " + e.Reason
}

func (e *AuthError) Unwrap() error { return ErrAuthRejected }

// ServerError carries the text of an ERROR event. The session stays connected.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return "session: server error: " + e.Message }

// ClosedError describes how a transport went away.
type ClosedError struct {
	Code   int
	Reason string
	Err    error
}

func (e *ClosedError) Error() string {
	msg := fmt.Sprintf("session: transport closed with code %d", e.Code)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ClosedError) Unwrap() error { return e.Err }

// Diagnosis is the likely cause of a session that could not be recovered.
type Diagnosis int

const (
	DiagAbnormalClosure Diagnosis = iota
	DiagServerReason
	DiagTLSMismatch
	DiagUnreachable
)

func (d Diagnosis) String() string {
	switch d {
	case DiagServerReason:
		return "server-reported reason"
	case DiagTLSMismatch:
		return "TLS/scheme mismatch"
	case DiagUnreachable:
		return "server unreachable"
	default:
		return "abnormal closure"
	}
}

// ExhaustedError is reported once the reconnect attempts run out.
type ExhaustedError struct {
	Attempts  int
	Diagnosis Diagnosis
	Last      *ClosedError
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("%v after %d attempts: %v", ErrRetriesExhausted, e.Attempts, e.Diagnosis)
	if e.Last != nil {
		if e.Last.Reason != "" {
			msg += ": " + e.Last.Reason
		} else if e.Last.Err != nil {
			msg += ": " + e.Last.Err.Error()
		}
	}
	return msg
}

func (e *ExhaustedError) Unwrap() []error {
	if e.Last == nil {
		return []error{ErrRetriesExhausted}
	}
	return []error{ErrRetriesExhausted, e.Last}
}

// Diagnose guesses why the connection to endpoint kept failing.
func Diagnose(endpoint string, last *ClosedError) Diagnosis {
	if last == nil {
		return DiagAbnormalClosure
	}
	if last.Reason != "" {
		return DiagServerReason
	}

	err := last.Err
	if err == nil {
		return DiagAbnormalClosure
	}

	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &recordErr) || errors.As(err, &certErr) ||
		errors.As(err, &unknownAuth) || errors.As(err, &hostErr) {
		return DiagTLSMismatch
	}

	// A plain ws:// dial against a TLS-only listener usually fails the
	// HTTP upgrade rather than the TCP connect.
	if errors.Is(err, websocket.ErrBadHandshake) {
		if u, perr := url.Parse(endpoint); perr == nil && u.Scheme == "ws" {
			return DiagTLSMismatch
		}
		return DiagServerReason
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || (errors.As(err, &opErr) && opErr.Op == "dial") {
		return DiagUnreachable
	}
	return DiagAbnormalClosure
}
