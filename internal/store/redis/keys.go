package redis

import "strconv"

const (
	// KeyPrefixSession is the prefix for session keys
	KeyPrefixSession = "animelist:session:"
	// KeyAllSessions is the key for the set of all known chat IDs
	KeyAllSessions = "animelist:sessions:all"
)

// SessionKey returns the Redis key for a chat session
func SessionKey(chatID int64) string {
	return KeyPrefixSession + strconv.FormatInt(chatID, 10)
}

// AllSessionsKey returns the key for the set of all chat IDs
func AllSessionsKey() string {
	return KeyAllSessions
}
