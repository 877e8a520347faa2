package users

import "time"

// Account is a user as exposed to other users: the task assignment picker
// and order detail views. Credentials never leave the auth package.
type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Filters narrows a directory listing.
type Filters struct {
	Role   string
	Search string
}
