package models

import (
	"time"
)

// Scheduler run statuses
const (
	SchedulerStatusStart   = "START"
	SchedulerStatusRunning = "RUNNING"
	SchedulerStatusSuccess = "SUCCESS"
	SchedulerStatusFailed  = "FAILED"
)

// SchedulerLog represents the scheduler_logs table, one row per job state change
type SchedulerLog struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	DocumentID    string    `json:"document_id" gorm:"column:document_id;size:64;index"`
	SchedulerCode string    `json:"scheduler_code" gorm:"column:scheduler_code;size:64"`
	Message       string    `json:"message" gorm:"column:message;type:text"`
	Status        string    `json:"status" gorm:"column:status;size:16"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName sets the insert table name for SchedulerLog
func (SchedulerLog) TableName() string {
	return "scheduler_logs"
}
