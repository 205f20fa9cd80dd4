package apps

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered platform account. Visitors of "none"-mode application
// sessions never get a User row; only login-mode sessions reference one.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string    `gorm:"size:254;index" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "platform_user" }
