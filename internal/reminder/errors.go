package reminder

import "errors"

// Kind classifies a recoverable failure in the reminder lifecycle.
type Kind string

const (
	KindNone            Kind = ""
	KindMalformedUpdate Kind = "MALFORMED_UPDATE"
	KindMalformedInput  Kind = "MALFORMED_INPUT"
	KindInvalidDatetime Kind = "INVALID_DATETIME"
	KindSendFailure     Kind = "SEND_FAILURE"
	KindUnknown         Kind = "UNKNOWN"
)

var (
	// ErrMalformedUpdate is returned for updates lacking a message, text or chat.
	ErrMalformedUpdate = errors.New("malformed update")
	// ErrMalformedInput is returned when text does not look like "dd.mm.yyyy HH:MM body".
	ErrMalformedInput = errors.New("malformed reminder input")
	// ErrInvalidDatetime is returned when the date-time token is not a real calendar value.
	ErrInvalidDatetime = errors.New("invalid reminder date-time")
	// ErrSendFailure is returned when the chat transport rejects a message.
	ErrSendFailure = errors.New("send failure")
)

// KindOf maps err to its Kind. A nil error has KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMalformedUpdate):
		return KindMalformedUpdate
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrInvalidDatetime):
		return KindInvalidDatetime
	case errors.Is(err, ErrSendFailure):
		return KindSendFailure
	default:
		return KindUnknown
	}
}
