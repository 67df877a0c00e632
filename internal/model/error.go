package model

import "errors"

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// ErrorKind classifies a wallet failure. The kind is safe to show to the operator.
type ErrorKind string

const (
	KindUnsupportedFormat ErrorKind = "UnsupportedFormat"
	KindInvalidPassword   ErrorKind = "InvalidPassword"
	KindInvalidRecipient  ErrorKind = "InvalidRecipient"
	KindInvalidAmount     ErrorKind = "InvalidAmount"
	KindInvalidAddress    ErrorKind = "InvalidAddress"
	KindInvalidToken      ErrorKind = "InvalidToken"
	KindNodeUnavailable   ErrorKind = "NodeUnavailable"
	KindTransferFailed    ErrorKind = "TransferFailed"
	KindNoIdentityLoaded  ErrorKind = "NoIdentityLoaded"
	KindSendCooldown      ErrorKind = "SendCooldown"
)

// Error is a typed wallet error.
// Message and Detail must never carry password or key bytes: Detail holds
// node-supplied text and is only set for KindTransferFailed.
type Error struct {
	Kind    ErrorKind
	Message string
	Detail  string
	cause   error
}

// Sentinels for errors.Is matching; comparison is by Kind only.
var (
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat, Message: "unsupported keystore format"}
	ErrInvalidPassword   = &Error{Kind: KindInvalidPassword, Message: "invalid password or corrupted keystore"}
	ErrInvalidRecipient  = &Error{Kind: KindInvalidRecipient, Message: "invalid recipient address"}
	ErrInvalidAmount     = &Error{Kind: KindInvalidAmount, Message: "invalid amount"}
	ErrInvalidAddress    = &Error{Kind: KindInvalidAddress, Message: "invalid address"}
	ErrInvalidToken      = &Error{Kind: KindInvalidToken, Message: "token contract returned unusable data"}
	ErrNodeUnavailable   = &Error{Kind: KindNodeUnavailable, Message: "node unavailable"}
	ErrTransferFailed    = &Error{Kind: KindTransferFailed, Message: "transfer failed"}
	ErrNoIdentityLoaded  = &Error{Kind: KindNoIdentityLoaded, Message: "no keystore imported"}
	ErrSendCooldown      = &Error{Kind: KindSendCooldown, Message: "send cooldown active"}
)

// NewError builds an error of the given kind with a safe message.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds an error of the given kind keeping cause for errors.As/Unwrap.
// The cause text is not part of Error() unless the kind is KindTransferFailed or
// KindNodeUnavailable, whose causes come from the node connection.
func WrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// TransferFailed builds a KindTransferFailed error with the node's rejection text attached.
func TransferFailed(message string, cause error) *Error {
	e := &Error{Kind: KindTransferFailed, Message: message, cause: cause}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	switch {
	case e.Detail != "":
		msg += ": " + e.Detail
	case e.Kind == KindNodeUnavailable && e.cause != nil:
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports kind equality so errors.Is(err, ErrInvalidAmount) matches any InvalidAmount.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind checks if err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
