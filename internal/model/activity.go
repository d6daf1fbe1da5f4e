package model

import "time"

const (
	ActionUserRegistered = "user.registered"
	ActionTaskCreated    = "task.created"
	ActionTaskUpdated    = "task.updated"
	ActionTaskDeleted    = "task.deleted"
)

// Activity is an append-only audit record of a user-visible mutation.
type Activity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TaskID    *uint     `gorm:"index" json:"task_id,omitempty"`
	Action    string    `gorm:"size:32;not null" json:"action"`
	Detail    string    `gorm:"size:255" json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Activity) PrimaryKey() uint { return a.ID }
