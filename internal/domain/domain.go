package domain

import (
	"github.com/lrnlab/apptrack-backend/internal/domain/apps"
	"github.com/lrnlab/apptrack-backend/internal/domain/sessions"
	"github.com/lrnlab/apptrack-backend/internal/domain/tracking"
)

type User = apps.User
type Application = apps.Application
type ApplicationConfig = apps.ApplicationConfig

type ApplicationSession = sessions.ApplicationSession
type ApplicationSessionGate = sessions.ApplicationSessionGate
type UserApplicationSession = sessions.UserApplicationSession

type TrackingSession = tracking.TrackingSession
type TrackingEvent = tracking.TrackingEvent
type UserFeedback = tracking.UserFeedback

const (
	AuthModeNone  = sessions.AuthModeNone
	AuthModeLogin = sessions.AuthModeLogin
)
