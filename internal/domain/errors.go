package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures so the HTTP layer can pick a status code.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindClientAuth
	KindLicense
	KindServerConfig
	KindUpstream
	KindNotFound
	KindBadRequest
)

var (
	ErrTokenNotProvided   = errors.New("token not provided")
	ErrMissingPublicKey   = errors.New("public key not configured")
	ErrDecryption         = errors.New("failed to decrypt data")
	ErrConnectionNotFound = errors.New("no active partner connection found")
)

// Error is a classified error carrying a caller-safe message and optional diagnostics.
type Error struct {
	Kind    ErrorKind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindClientAuth:
		return http.StatusUnauthorized
	case KindLicense:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func NewClientAuthError(message string, err error) *Error {
	return &Error{Kind: KindClientAuth, Message: message, Err: err}
}

func NewLicenseError(message string) *Error {
	return &Error{Kind: KindLicense, Message: message}
}

func NewServerConfigError(err error) *Error {
	return &Error{Kind: KindServerConfig, Message: "Server configuration error", Err: err}
}

func NewUpstreamError(message string, body string, err error) *Error {
	e := &Error{Kind: KindUpstream, Message: message, Err: err}
	if body != "" {
		e.Details = body
	}
	return e
}

func NewNotFoundError(message string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: err}
}

func NewBadRequestError(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// KindOf returns the kind of a classified error, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf returns the HTTP status for any error.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status()
	}
	return http.StatusInternalServerError
}

// NewInternalError classifies an unexpected failure behind a caller-safe message.
func NewInternalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}
