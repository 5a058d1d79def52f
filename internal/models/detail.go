package models

import (
	"time"
)

// Detail types and defaults
const (
	DetailTypeDetail    = "detail"
	DetailTypeBio       = "bio"
	DetailStatusDefault = "1"
)

// Detail represents the details table, a key/value row owned by a user
type Detail struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	UserID    uint      `json:"user_id" gorm:"column:user_id;index"`
	Key       string    `json:"key" gorm:"column:key;size:255;not null;index"`
	Value     *string   `json:"value" gorm:"column:value;type:text"`
	Icon      *string   `json:"icon" gorm:"column:icon;size:255"`
	Status    string    `json:"status" gorm:"column:status;size:255;default:1"`
	Type      string    `json:"type" gorm:"column:type;size:255;default:detail"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the insert table name for Detail
func (Detail) TableName() string {
	return "details"
}

// NewDetail builds a detail row with the default status
func NewDetail(key string, value *string, detailType string) Detail {
	if detailType == "" {
		detailType = DetailTypeDetail
	}
	return Detail{
		Key:    key,
		Value:  value,
		Status: DetailStatusDefault,
		Type:   detailType,
	}
}
