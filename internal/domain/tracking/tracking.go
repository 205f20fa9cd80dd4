package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/lrnlab/apptrack-backend/internal/domain/sessions"
)

// TrackingSession is one open-to-close window of telemetry collection for a
// visitor. At most one tracking session per user application session may be
// open (end_time IS NULL) at any time; the partial unique index below backs
// the tracking service's check-then-insert, so an insert race loses with a
// duplicate-key error instead of a second open row.
type TrackingSession struct {
	ID               uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	UserAppSessionID uuid.UUID                        `gorm:"type:uuid;not null;index;uniqueIndex:uniq_open_tracking_session,where:end_time IS NULL;column:user_app_session_id" json:"user_app_session_id"`
	UserAppSession   *sessions.UserApplicationSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserAppSessionID;references:ID" json:"user_app_session,omitempty"`

	// Caller-supplied and validated against the clock-skew window; never set
	// from the server clock.
	StartTime time.Time  `gorm:"not null;column:start_time" json:"start_time"`
	EndTime   *time.Time `gorm:"index;column:end_time" json:"end_time,omitempty"`

	DeviceInfo datatypes.JSON `gorm:"column:device_info" json:"device_info,omitempty"`
}

func (TrackingSession) TableName() string { return "tracking_session" }

// TrackingEvent is one atomic telemetry record within a tracking session.
// Append-only.
type TrackingEvent struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	TrackingSessionID uuid.UUID        `gorm:"type:uuid;not null;index" json:"tracking_session_id"`
	TrackingSession   *TrackingSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:TrackingSessionID;references:ID" json:"tracking_session,omitempty"`
	Time              time.Time        `gorm:"not null" json:"time"`
	Type              string           `gorm:"size:128;not null" json:"type"`
	Value             datatypes.JSON   `json:"value,omitempty"`
}

func (TrackingEvent) TableName() string { return "tracking_event" }

// UserFeedback is a per-content-section rating and/or comment from a visitor.
// One row per (user application session, content section); a later submission
// for the same section updates the row. A nil Score means no score was given;
// a nil Text means text feedback was never given, while an empty string means
// the visitor blanked a previous text. At least one of the two is always
// non-nil (check constraint).
type UserFeedback struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserAppSessionID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uniq_userappsess_content_section;column:user_app_session_id" json:"user_app_session_id"`
	TrackingSessionID *uuid.UUID       `gorm:"type:uuid;index" json:"tracking_session_id,omitempty"`
	TrackingSession   *TrackingSession `gorm:"constraint:OnDelete:CASCADE;foreignKey:TrackingSessionID;references:ID" json:"tracking_session,omitempty"`

	ContentSection string `gorm:"size:1024;not null;uniqueIndex:uniq_userappsess_content_section;column:content_section" json:"content_section"`

	Score *int16  `gorm:"check:either_score_or_text_must_be_given,score IS NOT NULL OR text IS NOT NULL" json:"score"`
	Text  *string `gorm:"type:text" json:"text"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (UserFeedback) TableName() string { return "user_feedback" }
