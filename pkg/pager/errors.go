package pager

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors returned by the pager.
var (
	// ErrUnknownStrategy is returned when a strategy value or name is not recognized.
	ErrUnknownStrategy = errors.New("unknown cache strategy")

	// ErrUnknownPhase is returned when a phase value is not recognized.
	ErrUnknownPhase = errors.New("unknown page phase")

	// ErrAlreadyInitialized is returned when LoadInitial is called twice on a session.
	ErrAlreadyInitialized = errors.New("initial page already requested for this session")

	// ErrSessionClosed is returned by futures whose session ended before they were answered.
	ErrSessionClosed = errors.New("pager session closed")

	// ErrAlreadyAnswered is wrapped by the ProtocolViolation raised on a second answer.
	ErrAlreadyAnswered = errors.New("page request already answered")

	// ErrInFlightCorrupted is wrapped by the ProtocolViolation raised when the
	// forward in-flight flag is found in an unexpected state.
	ErrInFlightCorrupted = errors.New("forward in-flight flag corrupted")

	// ErrEntryTooLarge is returned by CodecStore.Write for pages over the
	// configured entry size limit.
	ErrEntryTooLarge = errors.New("encoded page exceeds cache entry size limit")
)

// ErrorKind categorizes failures on the page-loading path.
type ErrorKind int

const (
	// CacheMiss is not a failure: the cache had no entry. It is never reported.
	CacheMiss ErrorKind = iota

	// CacheFault is a cache I/O or decode failure. It is logged and absorbed.
	CacheFault

	// NetworkFault is a transport, timeout or decode failure on the
	// authoritative step. The request is still answered (empty) and the
	// fault is reported through Observer.OnError.
	NetworkFault

	// ProtocolViolation is a defect: answering a request twice or finding the
	// in-flight flag corrupted.
	ProtocolViolation
)

func (k ErrorKind) String() string {
	switch k {
	case CacheMiss:
		return "CacheMiss"
	case CacheFault:
		return "CacheFault"
	case NetworkFault:
		return "NetworkFault"
	case ProtocolViolation:
		return "ProtocolViolation"
	default:
		return "Unknown"
	}
}

// PageError is a categorized failure tied to a page request.
type PageError struct {
	Kind      ErrorKind
	Phase     Phase
	RequestID uuid.UUID
	Key       PageKey
	Err       error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	msg := fmt.Sprintf("%s on %s page (key=%s, request=%s)", e.Kind, e.Phase, e.Key.String(), e.RequestID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *PageError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *PageError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *PageError
	return errors.As(err, &pe) && pe.Kind == kind
}

func newPageError(kind ErrorKind, req PageRequest, err error) *PageError {
	return &PageError{
		Kind:      kind,
		Phase:     req.Phase,
		RequestID: req.ID,
		Key:       req.Key,
		Err:       err,
	}
}
