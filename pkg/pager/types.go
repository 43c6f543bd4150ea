package pager

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PageKey is an opaque pagination cursor, typically the identifier of the
// last item seen by the list.
type PageKey string

// StartKey denotes the start of the list.
const StartKey PageKey = ""

// IsStart reports whether k is the start-of-list sentinel.
func (k PageKey) IsStart() bool {
	return k == StartKey || k == "0"
}

// String returns the key in its wire form. The start sentinel is rendered
// as "0" to match feed cursors.
func (k PageKey) String() string {
	if k == StartKey {
		return "0"
	}
	return string(k)
}

// Compare orders two keys. Keys that both parse as integers compare
// numerically, anything else compares lexically. StartKey sorts first.
func (k PageKey) Compare(other PageKey) int {
	if k.IsStart() && other.IsStart() {
		return 0
	}
	if k.IsStart() {
		return -1
	}
	if other.IsStart() {
		return 1
	}

	a, errA := strconv.ParseInt(string(k), 10, 64)
	b, errB := strconv.ParseInt(string(other), 10, 64)
	if errA == nil && errB == nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(string(k), string(other))
}

// Phase identifies which page of the list a request is for.
type Phase int

const (
	PhaseInitial Phase = iota
	PhaseForward
	PhaseBackward
)

func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "INITIAL"
	case PhaseForward:
		return "FORWARD"
	case PhaseBackward:
		return "BACKWARD"
	default:
		return "UNKNOWN"
	}
}

// Strategy selects which tiers serve a request.
//
// NetCache and CacheThenNet resolve to the same plan: a cache preview, then
// a network answer that is written back. They are kept as two names because
// configurations and callers use both.
type Strategy int

const (
	// CacheOnly reads the cache and never touches the network.
	CacheOnly Strategy = iota
	// NetOnly reads the network and never touches the cache.
	NetOnly
	// NetCache answers from the network, stages the cache as a preview and
	// persists the network result back into the cache.
	NetCache
	// CacheThenNet previews from the cache, then answers from the network
	// and persists it. Same plan as NetCache.
	CacheThenNet
)

func (s Strategy) String() string {
	switch s {
	case CacheOnly:
		return "CACHE_ONLY"
	case NetOnly:
		return "NET_ONLY"
	case NetCache:
		return "NET_CACHE"
	case CacheThenNet:
		return "CACHE_THEN_NET"
	default:
		return "UNKNOWN"
	}
}

// ParseStrategy parses a strategy name (case-insensitive, '-' or '_').
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_") {
	case "CACHE_ONLY":
		return CacheOnly, nil
	case "NET_ONLY":
		return NetOnly, nil
	case "NET_CACHE":
		return NetCache, nil
	case "CACHE_THEN_NET", "":
		return CacheThenNet, nil
	default:
		return 0, ErrUnknownStrategy
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if s < CacheOnly || s > CacheThenNet {
		return nil, ErrUnknownStrategy
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return fmt.Errorf("%w: %q", err, text)
	}
	*s = parsed
	return nil
}

// Origin is the tier a fetch step runs against.
type Origin int

const (
	OriginCache Origin = iota
	OriginNetwork
)

func (o Origin) String() string {
	switch o {
	case OriginCache:
		return "cache"
	case OriginNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// PageRequest is a single page load issued by the list.
type PageRequest struct {
	ID    uuid.UUID
	Key   PageKey
	Size  int
	Phase Phase
}

func newPageRequest(key PageKey, size int, phase Phase) PageRequest {
	return PageRequest{
		ID:    uuid.New(),
		Key:   key,
		Size:  size,
		Phase: phase,
	}
}

// FetchOutcome is the result of one fetch step.
type FetchOutcome[T any] struct {
	Origin    Origin
	Items     []T
	Succeeded bool
	Err       error
}

// Boundary tells the list whether further forward pagination should be
// offered after the page requested with Key.
type Boundary struct {
	Key     PageKey
	HasMore bool
}

// State is the coordinator state of a Session.
type State int

const (
	StateInitial State = iota
	StateLoadingInitial
	StateIdle
	StateLoadingForward
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateLoadingInitial:
		return "LOADING_INITIAL"
	case StateIdle:
		return "IDLE"
	case StateLoadingForward:
		return "LOADING_FORWARD"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
