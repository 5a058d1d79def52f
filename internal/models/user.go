package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gorm.io/gorm"
)

// UserStatus is the lifecycle state of a user record
type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusTrashed UserStatus = "trashed"
)

// User represents the users table
type User struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	Prefix       Prefix         `json:"prefix" gorm:"column:prefix;size:10"`
	FirstName    string         `json:"first_name" gorm:"column:first_name;size:255;not null"`
	MiddleName   *string        `json:"middle_name" gorm:"column:middle_name;size:255"`
	LastName     string         `json:"last_name" gorm:"column:last_name;size:255;not null"`
	SuffixName   *string        `json:"suffix_name" gorm:"column:suffix_name;size:255"`
	Username     string         `json:"username" gorm:"column:username;size:255;uniqueIndex;not null"`
	Email        string         `json:"email" gorm:"column:email;size:255;uniqueIndex;not null"`
	PasswordHash *string        `json:"-" gorm:"column:password_hash;size:255"`
	PhotoPath    *string        `json:"photo" gorm:"column:photo_path;size:255"`
	VerifiedAt   *time.Time     `json:"verified_at" gorm:"column:verified_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at" gorm:"index"`
	// Relationships
	Details []Detail `json:"details,omitempty" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName sets the insert table name for User
func (User) TableName() string {
	return "users"
}

// Status reports whether the user is active or trashed
func (u *User) Status() UserStatus {
	if u.DeletedAt.Valid {
		return UserStatusTrashed
	}
	return UserStatusActive
}

// MiddleInitial returns the uppercased first letter of the middle name, or nil
func (u *User) MiddleInitial() *string {
	if u.MiddleName == nil {
		return nil
	}
	name := strings.TrimSpace(*u.MiddleName)
	if name == "" {
		return nil
	}
	r, _ := utf8.DecodeRuneInString(name)
	initial := string(unicode.ToUpper(r))
	return &initial
}

// FullName returns "First M. Last", or "First Last" without a middle name
func (u *User) FullName() string {
	var b strings.Builder
	b.WriteString(u.FirstName)
	if initial := u.MiddleInitial(); initial != nil {
		b.WriteString(" ")
		b.WriteString(*initial)
		b.WriteString(".")
	}
	b.WriteString(" ")
	b.WriteString(u.LastName)
	return b.String()
}

// Gender derives the gender from the prefix; nil when the prefix is unset or unknown
func (u *User) Gender() *string {
	prefix, ok := ParsePrefix(string(u.Prefix))
	if !ok {
		return nil
	}
	gender := prefix.Gender()
	return &gender
}

// HasPhoto reports whether an uploaded photo is attached
func (u *User) HasPhoto() bool {
	return u.PhotoPath != nil && *u.PhotoPath != ""
}
