package session

import "fmt"

// stateKey creates the storage key of a session's state.
func stateKey(sessionID string) []byte {
	return []byte(fmt.Sprintf("oauth_state:%s", sessionID))
}

// stateRecord is the stored form of a state.
type stateRecord struct {
	State     string `json:"state"`
	ExpiresAt int64  `json:"expires_at"`
}
