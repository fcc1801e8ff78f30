package request

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"

	"github.com/quantfield/chaser/internal/domain"
)

// Transient reports whether err is a connectivity-level failure that is worth
// retrying unchanged: DNS resolution, connection refusal/reset, read
// timeouts, TLS handshake failures, HTTP transport errors, and venue nonce
// rejections survived by simply re-signing the next attempt.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrNonceRejected) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// Any other failure inside the HTTP transport (as opposed to a decoded
	// venue error) counts as transient.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return !errors.Is(err, domain.ErrUnauthorized)
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// RateLimited reports whether err is the venue telling us to slow down.
func RateLimited(err error) bool {
	return errors.Is(err, domain.ErrRateLimited)
}
