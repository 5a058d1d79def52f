package request

// UserRequest is the create and update payload, sent as JSON or as a multipart form with a photo.
// The optional names are nil when the request leaves them out; send "" to clear them.
type UserRequest struct {
	Prefix               string  `json:"prefix" form:"prefix" example:"Mr"`
	FirstName            string  `json:"first_name" form:"first_name" example:"John"`
	MiddleName           *string `json:"middle_name" form:"middle_name" example:"Quincy"`
	LastName             string  `json:"last_name" form:"last_name" example:"Doe"`
	SuffixName           *string `json:"suffix_name" form:"suffix_name" example:"Jr"`
	Username             string  `json:"username" form:"username" example:"john_doe"`
	Email                string  `json:"email" form:"email" example:"john.doe@example.com"`
	Password             string  `json:"password" form:"password" example:"secret-password"`
	PasswordConfirmation string  `json:"password_confirmation" form:"password_confirmation" example:"secret-password"`
}

// UserIDsRequest selects the users of a bulk action. Either field may be used.
type UserIDsRequest struct {
	UserID  *uint  `json:"userId" form:"userId" example:"1"`
	UserIDs []uint `json:"userIds" form:"userIds"`
}

// IDs returns the selected ids without zeros or duplicates
func (r UserIDsRequest) IDs() []uint {
	seen := make(map[uint]bool)
	ids := make([]uint, 0, len(r.UserIDs)+1)

	add := func(id uint) {
		if id == 0 || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	if r.UserID != nil {
		add(*r.UserID)
	}
	for _, id := range r.UserIDs {
		add(id)
	}

	return ids
}

// LoginRequest is the login payload; Login is a username or an email
type LoginRequest struct {
	Login    string `json:"login" form:"login" binding:"required" example:"testuser"`
	Password string `json:"password" form:"password" binding:"required" example:"testPassword24!"`
}
