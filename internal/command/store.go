package command

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultMessage is served until a client posts something else.
const DefaultMessage = "This is a message from the server."

const messageKey = "message"

// MessageStore holds the server's current message. Posted messages expire
// back to the default after the configured TTL; a TTL of zero keeps them
// until overwritten.
type MessageStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMessageStore returns a store whose entries live for ttl.
func NewMessageStore(ttl time.Duration) *MessageStore {
	storeTTL := ttl
	if storeTTL <= 0 {
		storeTTL = gocache.NoExpiration
	}
	return &MessageStore{
		cache: gocache.New(storeTTL, 10*time.Second),
		ttl:   storeTTL,
	}
}

// Put replaces the current message.
func (s *MessageStore) Put(message string) {
	s.cache.Set(messageKey, message, s.ttl)
}

// Get returns the current message, falling back to the default when nothing
// has been posted or the last post expired.
func (s *MessageStore) Get() string {
	if v, ok := s.cache.Get(messageKey); ok {
		return v.(string)
	}
	return DefaultMessage
}
