package loader

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType says what happened to a watched blob.
type EventType int

const (
	SnapshotSwapped EventType = iota
	ReloadFailed
)

func (t EventType) String() string {
	switch t {
	case SnapshotSwapped:
		return "swapped"
	case ReloadFailed:
		return "reload_failed"
	default:
		return "unknown"
	}
}

// Event reports a reload outcome. Current is the snapshot serving reads
// after the event; Previous is only set on a swap.
type Event struct {
	Type      EventType
	Source    string
	Current   *Snapshot
	Previous  *Snapshot
	Err       error
	Timestamp time.Time
}

// Notifier is an in-process pub/sub bus for reload events.
type Notifier struct {
	subscribers sync.Map
	bufferSize  int
}

// NewNotifier creates a notifier whose subscriber channels hold bufferSize
// events.
func NewNotifier(bufferSize int) *Notifier {
	return &Notifier{bufferSize: bufferSize}
}

// Publish sends ev to every matching subscriber.
// Non-blocking: if a subscriber's channel is full, the event is dropped.
func (n *Notifier) Publish(ev Event) {
	n.subscribers.Range(func(_, value interface{}) bool {
		sub := value.(*Subscriber)
		if sub.matches(ev.Source) {
			select {
			case sub.Ch <- ev:
			default:
			}
		}
		return true
	})
}

// Subscribe registers a subscriber receiving events whose source starts with
// one of prefixes, or every event when no prefix is given.
func (n *Notifier) Subscribe(prefixes ...string) *Subscriber {
	sub := &Subscriber{
		ID:       uuid.NewString(),
		Prefixes: prefixes,
		Ch:       make(chan Event, n.bufferSize),
	}
	n.subscribers.Store(sub.ID, sub)
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (n *Notifier) Unsubscribe(id string) {
	if value, ok := n.subscribers.LoadAndDelete(id); ok {
		close(value.(*Subscriber).Ch)
	}
}

// Subscriber receives reload events on Ch.
type Subscriber struct {
	ID       string
	Prefixes []string
	Ch       chan Event
}

func (s *Subscriber) matches(source string) bool {
	if len(s.Prefixes) == 0 {
		return true
	}
	for _, p := range s.Prefixes {
		if strings.HasPrefix(source, p) {
			return true
		}
	}
	return false
}
