package directus

import (
	"encoding/json"
)

// AuthTokens is the payload returned by /auth/login
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Expires      int64  `json:"expires"` // milliseconds
}

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewUser is the registration request body
type NewUser struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// User represents a Directus user record
type User struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name,omitempty"`
	LastName    string  `json:"last_name,omitempty"`
	Role        string  `json:"role,omitempty"`
	Status      string  `json:"status,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	Language    *string `json:"language,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	LastAccess  *string `json:"last_access,omitempty"`

	// Extra holds every field of the record, including the ones above
	Extra map[string]any `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the full record in Extra
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var extra map[string]any
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	*u = User(p)
	u.Extra = extra
	return nil
}

// DisplayName returns the best available display name for the user
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Email
}
