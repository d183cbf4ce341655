package user

import "time"

// User represents a registered store customer with a creditable wallet.
type User struct {
	ID        string
	Username  string
	Phone     string
	PINHash   []byte
	CreatedAt time.Time
}
