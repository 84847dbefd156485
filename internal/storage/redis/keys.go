package redis

import (
	"fmt"

	"github.com/competecore/competecore/internal/model"
)

// KeyPrefix namespaces every key written by this package
const KeyPrefix = "competecore"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", KeyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", KeyPrefix, email)
}

// usernameIndexKey returns the Redis key for the username -> user_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", KeyPrefix, username)
}

// userListKey returns the Redis key for the LIST of user ids in registration order
func userListKey() string {
	return fmt.Sprintf("%s:users", KeyPrefix)
}

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", KeyPrefix, id)
}

// matchKey returns the Redis key for a Match
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", KeyPrefix, id)
}

// inviteCodeIndexKey returns the Redis key for the invite code -> match_id index
func inviteCodeIndexKey(code model.InviteCode) string {
	return fmt.Sprintf("%s:idx:invite:%s", KeyPrefix, code)
}

// matchListKey returns the Redis key for the LIST of match ids, newest first
func matchListKey() string {
	return fmt.Sprintf("%s:matches", KeyPrefix)
}
