package sessions

import (
	"time"

	"gorm.io/datatypes"

	"github.com/google/uuid"
	"github.com/lrnlab/apptrack-backend/internal/domain/apps"
)

const (
	AuthModeNone  = "none"
	AuthModeLogin = "login"
)

// ApplicationSession is a shareable, coded instance of an application
// configuration. The code is the primary key: 10 lowercase hex characters,
// generated once at creation and immutable afterwards.
type ApplicationSession struct {
	Code        string                  `gorm:"primaryKey;size:10" json:"code"`
	ConfigID    uuid.UUID               `gorm:"type:uuid;not null;index" json:"config_id"`
	Config      *apps.ApplicationConfig `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConfigID;references:ID" json:"config,omitempty"`
	AuthMode    string                  `gorm:"size:5;not null" json:"auth_mode"`
	Description string                  `gorm:"size:256" json:"description"`
	IsActive    bool                    `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time               `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time               `gorm:"not null" json:"updated_at"`
}

func (ApplicationSession) TableName() string { return "application_session" }

// ApplicationSessionGate bundles several application sessions, especially for
// testing different variants of an app. Visitors are forwarded round-robin
// across the active member sessions; NextForwardIndex is the rotation cursor
// and is only mutated inside a transaction by the gate service.
type ApplicationSessionGate struct {
	Code             string               `gorm:"primaryKey;size:10" json:"code"`
	Label            string               `gorm:"uniqueIndex;size:128;not null" json:"label"`
	Description      string               `gorm:"type:text" json:"description"`
	AppSessions      []ApplicationSession `gorm:"many2many:application_session_gate_members" json:"app_sessions,omitempty"`
	IsActive         bool                 `gorm:"not null;default:true" json:"is_active"`
	NextForwardIndex int                  `gorm:"not null;default:0" json:"next_forward_index"`
	CreatedAt        time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time            `gorm:"not null" json:"updated_at"`
}

func (ApplicationSessionGate) TableName() string { return "application_session_gate" }

// UserApplicationSession is the per-visitor identity for one application
// session. Code is the bearer token for all subsequent API calls. For
// login-mode sessions the user must be set; for "none"-mode sessions it must
// be nil. Rows are created once per visit or login and never mutated except
// to append chatbot transcript entries.
type UserApplicationSession struct {
	ID                     uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationSessionCode string              `gorm:"size:10;not null;uniqueIndex:uniq_appsess_user_code;column:application_session_code" json:"application_session_code"`
	ApplicationSession     *ApplicationSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:ApplicationSessionCode;references:Code" json:"application_session,omitempty"`
	UserID                 *uuid.UUID          `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User                   *apps.User          `gorm:"constraint:OnDelete:SET NULL;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Code                   string              `gorm:"size:64;not null;uniqueIndex:uniq_appsess_user_code" json:"code"`

	// Ordered list of {role, message} pairs; append-only.
	ChatbotTranscript datatypes.JSON `gorm:"column:chatbot_transcript" json:"chatbot_transcript,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (UserApplicationSession) TableName() string { return "user_application_session" }
