package apps

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Application is an externally hosted learning app registered with the
// platform.
type Application struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	URL  string    `gorm:"uniqueIndex;size:512;not null" json:"url"`

	// Optional local deployment directory for file-based app hosting.
	LocalAppDir *string `gorm:"size:512;column:local_appdir" json:"local_appdir,omitempty"`

	// Code of the session used when a visitor arrives via referrer only.
	// Kept as a bare code (no struct reference) to avoid a cycle with the
	// sessions package.
	DefaultApplicationSessionCode *string `gorm:"size:10;index;column:default_application_session_code" json:"default_application_session_code,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Application) TableName() string { return "application" }

// ApplicationConfig is a named configuration variant of an Application:
// tracking toggles, feedback toggle, chatbot settings, extra CSS/JS and any
// additional JSON an administrator merged over the defaults.
type ApplicationConfig struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ApplicationID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uniq_application_config_label" json:"application_id"`
	Application   *Application `gorm:"constraint:OnDelete:CASCADE;foreignKey:ApplicationID;references:ID" json:"application,omitempty"`
	Label         string       `gorm:"size:128;not null;uniqueIndex:uniq_application_config_label" json:"label"`

	Config datatypes.JSON `gorm:"not null" json:"config"`

	// Learning app content as retrieved from the app URL, cached for chatbot
	// prompts.
	AppContent *string `gorm:"type:text;column:app_content" json:"app_content,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ApplicationConfig) TableName() string { return "application_config" }
