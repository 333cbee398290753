package result

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"
)

// ErrorCategory represents the classification of a failed check.
type ErrorCategory string

// Transport categories describe why a fetch failed.
const (
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryDNSFailure        ErrorCategory = "dns_failure"
	CategoryConnectionRefused ErrorCategory = "connection_refused"
	CategoryConnectionReset   ErrorCategory = "connection_reset"
	CategoryTLS               ErrorCategory = "tls"
	CategoryRedirectLoop      ErrorCategory = "redirect_loop"
	CategoryProtocol          ErrorCategory = "protocol"
	CategoryUnknown           ErrorCategory = "unknown"
)

// Controller categories describe why the batch gave up waiting for a result.
const (
	CategoryDeadline    ErrorCategory = "deadline_exceeded"
	CategoryInterrupted ErrorCategory = "interrupted"
	CategoryExecution   ErrorCategory = "execution_error"
)

// ErrTooManyRedirects is wrapped by fetchers that stop following a redirect chain.
var ErrTooManyRedirects = errors.New("too many redirects")

// ClassifyError determines the category of a transport error.
func ClassifyError(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	if errors.Is(err, ErrTooManyRedirects) {
		return CategoryRedirectLoop
	}

	// DNS errors can also report Timeout(), so check them first
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryDNSFailure
	}

	if isTLSError(err) {
		return CategoryTLS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return CategoryConnectionRefused
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return CategoryConnectionReset
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return CategoryProtocol
	}

	return CategoryUnknown
}

func isTLSError(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		headerErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &headerErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

// FormatCategory returns a human-readable label for an error category.
func FormatCategory(cat ErrorCategory) string {
	switch cat {
	case CategoryTimeout:
		return "Timeout"
	case CategoryDNSFailure:
		return "DNS failure"
	case CategoryConnectionRefused:
		return "Connection refused"
	case CategoryConnectionReset:
		return "Connection reset"
	case CategoryTLS:
		return "TLS error"
	case CategoryRedirectLoop:
		return "Redirect loop"
	case CategoryProtocol:
		return "Protocol error"
	case CategoryDeadline:
		return "Deadline exceeded"
	case CategoryInterrupted:
		return "Interrupted"
	case CategoryExecution:
		return "Execution error"
	default:
		return "Error"
	}
}
