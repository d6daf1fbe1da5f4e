package model

import (
	"time"

	"gorm.io/gorm"
)

type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"size:1000" json:"description,omitempty"`
	DueDate     *time.Time `gorm:"index" json:"due_date,omitempty"`
	Priority    Priority   `gorm:"type:varchar(10);not null" json:"priority"`
	Status      Status     `gorm:"type:varchar(15);not null;index" json:"status"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime;<-:create" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (t *Task) PrimaryKey() uint { return t.ID }

// BeforeSave stores due dates in UTC so text-backed drivers order them by
// instant.
func (t *Task) BeforeSave(*gorm.DB) error {
	if t.DueDate != nil {
		utc := t.DueDate.UTC()
		t.DueDate = &utc
	}
	return nil
}
