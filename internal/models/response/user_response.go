package response

import "time"

// UserResponse represents a user with its computed display fields
type UserResponse struct {
	ID            uint             `json:"id" example:"1"`
	Prefix        string           `json:"prefix" example:"Mr"`
	FirstName     string           `json:"first_name" example:"John"`
	MiddleName    *string          `json:"middle_name" example:"Quincy"`
	LastName      string           `json:"last_name" example:"Doe"`
	SuffixName    *string          `json:"suffix_name" example:"Jr"`
	Username      string           `json:"username" example:"john_doe"`
	Email         string           `json:"email" example:"john.doe@example.com"`
	Photo         *string          `json:"photo" example:"1718700000000000000.png"`
	Avatar        *string          `json:"avatar" example:"http://localhost:8080/storage/avatars/1718700000000000000.png"`
	FullName      string           `json:"full_name" example:"John Q. Doe"`
	MiddleInitial *string          `json:"middle_initial" example:"Q"`
	Gender        *string          `json:"gender" example:"male"`
	Status        string           `json:"status" example:"active"`
	VerifiedAt    *time.Time       `json:"verified_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     *time.Time       `json:"deleted_at"`
	Details       []DetailResponse `json:"details,omitempty"`
}

// DetailResponse represents a detail row attached to a user
type DetailResponse struct {
	ID        uint      `json:"id" example:"1"`
	Key       string    `json:"key" example:"Full name"`
	Value     *string   `json:"value" example:"John Q. Doe"`
	Icon      *string   `json:"icon"`
	Status    string    `json:"status" example:"1"`
	Type      string    `json:"type" example:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFormResponse is the data needed to render the create and edit forms
type UserFormResponse struct {
	User     *UserResponse     `json:"user,omitempty"`
	Prefixes map[string]string `json:"prefixes"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// BulkActionResponse reports how many users a bulk action touched
type BulkActionResponse struct {
	Affected int64 `json:"affected" example:"1"`
}
