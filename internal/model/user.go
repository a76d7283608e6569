package model

import "time"

type User struct {
	ID           string          `json:"id"`
	PhoneNumber  string          `json:"phone_number"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email,omitempty"`
	TokenVersion int64           `json:"-"`
	Plane        PlaneCredential `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserProfile is the public projection of a User returned by the API.
type UserProfile struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u User) Profile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
	}
}

// PlaneCredential is the cached downstream credential bundle obtained from
// the Plane backend. An empty APIToken means the user has not been
// provisioned yet.
type PlaneCredential struct {
	UserID        string `json:"plane_user_id,omitempty"`
	APIToken      string `json:"-"`
	Email         string `json:"plane_email,omitempty"`
	WorkspaceSlug string `json:"plane_workspace_slug,omitempty"`
	ProjectID     string `json:"plane_project_id,omitempty"`
}

func (c PlaneCredential) HasToken() bool {
	return c.APIToken != ""
}

// TokenClaims is the decoded payload of a Kriya bearer token.
type TokenClaims struct {
	UserID       string
	PhoneNumber  string
	TokenVersion int64
}
