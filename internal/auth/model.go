package auth

import "time"

// Claims is the decoded content of a bearer token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LoginAttempt is the durable throttle record for one client.
type LoginAttempt struct {
	ClientID     string
	AttemptCount int
	LockedUntil  *time.Time
}

// LoginStatus is the throttle's answer for one client at a point in time.
type LoginStatus struct {
	Locked           bool
	RemainingSeconds int
	AttemptCount     int
}

// LoginGrant is the payload of an accepted login.
type LoginGrant struct {
	Token     string
	ExpiresIn int64
}
