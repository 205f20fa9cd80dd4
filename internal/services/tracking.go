package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lrnlab/apptrack-backend/internal/data/repos"
	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/apierr"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type StartTrackingRequest struct {
	StartTime  time.Time      `json:"start_time"`
	DeviceInfo map[string]any `json:"device_info"`

	// Network-observed caller address, filled in by the handler.
	ClientIP string `json:"-"`
}

type StartTrackingResult struct {
	TrackingSessionID uuid.UUID
	// Resumed reports that an open session already existed (200, not 201).
	Resumed bool
}

type TrackEventInput struct {
	Time  time.Time       `json:"time"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type TrackingService interface {
	// Start opens a tracking session, or resumes the one already open for
	// this UserApplicationSession. The open-check and the insert run in one
	// transaction, with the partial unique index on open sessions as the
	// backstop: a concurrent start that loses the insert race resumes the
	// winner's session.
	Start(dbc dbctx.Context, uas *types.UserApplicationSession, req StartTrackingRequest) (*StartTrackingResult, error)
	// Stop closes an open session. A second stop of the same id fails with
	// BadRequest; stop is deliberately not idempotent.
	Stop(dbc dbctx.Context, ts *types.TrackingSession, endTime time.Time) error
	RecordEvent(dbc dbctx.Context, ts *types.TrackingSession, in TrackEventInput) (uuid.UUID, error)
	// ResolveOpen finds the open session with the given id owned by this
	// UserApplicationSession; BadRequest when missing or already closed.
	ResolveOpen(dbc dbctx.Context, uas *types.UserApplicationSession, id uuid.UUID) (*types.TrackingSession, error)
}

type trackingService struct {
	log              *logger.Logger
	db               *gorm.DB
	trackingSessions repos.TrackingSessionRepo
	trackingEvents   repos.TrackingEventRepo
}

func NewTrackingService(
	log *logger.Logger,
	db *gorm.DB,
	trackingSessions repos.TrackingSessionRepo,
	trackingEvents repos.TrackingEventRepo,
) TrackingService {
	return &trackingService{
		log:              log.With("service", "TrackingService"),
		db:               db,
		trackingSessions: trackingSessions,
		trackingEvents:   trackingEvents,
	}
}

func (s *trackingService) Start(dbc dbctx.Context, uas *types.UserApplicationSession, req StartTrackingRequest) (*StartTrackingResult, error) {
	if err := validateTimestamp("start_time", req.StartTime, time.Now().UTC()); err != nil {
		return nil, err
	}

	deviceInfo := req.DeviceInfo
	if deviceInfo == nil {
		deviceInfo = map[string]any{}
	}
	flags := configFlagsFor(uas)
	if flags.TrackingIP {
		deviceInfo["client_ip"] = req.ClientIP
	} else {
		// IP capture disabled: store an explicit null so the key is
		// visibly suppressed rather than silently missing
		deviceInfo["client_ip"] = nil
	}
	rawInfo, err := json.Marshal(deviceInfo)
	if err != nil {
		return nil, fmt.Errorf("marshal device info: %w", err)
	}

	var result StartTrackingResult
	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}

		open, err := s.trackingSessions.GetOpenByUserAppSession(txc, uas.ID)
		if err != nil {
			return fmt.Errorf("check open tracking session: %w", err)
		}
		if open != nil {
			result = StartTrackingResult{TrackingSessionID: open.ID, Resumed: true}
			return nil
		}

		ts := &types.TrackingSession{
			ID:               uuid.New(),
			UserAppSessionID: uas.ID,
			StartTime:        req.StartTime.UTC(),
			DeviceInfo:       datatypes.JSON(rawInfo),
		}
		if err := s.trackingSessions.Create(txc, ts); err != nil {
			return fmt.Errorf("create tracking session: %w", err)
		}
		result = StartTrackingResult{TrackingSessionID: ts.ID}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// another start committed its insert between our check and commit;
		// the unique index on open sessions rejected ours, so resume theirs
		open, rerr := s.trackingSessions.GetOpenByUserAppSession(dbc, uas.ID)
		if rerr != nil {
			return nil, fmt.Errorf("resolve racing tracking session: %w", rerr)
		}
		if open == nil {
			return nil, err
		}
		return &StartTrackingResult{TrackingSessionID: open.ID, Resumed: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *trackingService) Stop(dbc dbctx.Context, ts *types.TrackingSession, endTime time.Time) error {
	if err := validateTimestamp("end_time", endTime, time.Now().UTC()); err != nil {
		return err
	}
	closed, err := s.trackingSessions.Close(dbc, ts.ID, endTime.UTC())
	if err != nil {
		return fmt.Errorf("close tracking session: %w", err)
	}
	if !closed {
		// a concurrent stop won the race after our open-session lookup
		return apierr.New(http.StatusBadRequest, "no_open_tracking_session", fmt.Errorf("tracking session %q already closed", ts.ID))
	}
	return nil
}

func (s *trackingService) RecordEvent(dbc dbctx.Context, ts *types.TrackingSession, in TrackEventInput) (uuid.UUID, error) {
	if err := validateTimestamp("time", in.Time, time.Now().UTC()); err != nil {
		return uuid.Nil, err
	}
	if in.Type == "" {
		return uuid.Nil, apierr.NewValidation("type", "event type is required")
	}

	event := &types.TrackingEvent{
		ID:                uuid.New(),
		TrackingSessionID: ts.ID,
		Time:              in.Time.UTC(),
		Type:              in.Type,
	}
	if len(in.Value) > 0 {
		event.Value = datatypes.JSON(in.Value)
	}
	if err := s.trackingEvents.Create(dbc, event); err != nil {
		return uuid.Nil, fmt.Errorf("create tracking event: %w", err)
	}
	return event.ID, nil
}

func (s *trackingService) ResolveOpen(dbc dbctx.Context, uas *types.UserApplicationSession, id uuid.UUID) (*types.TrackingSession, error) {
	if id == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "missing_tracking_session", fmt.Errorf("tracking_session_id required"))
	}
	ts, err := s.trackingSessions.GetOpenByID(dbc, id, uas.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve tracking session: %w", err)
	}
	if ts == nil {
		return nil, apierr.New(http.StatusBadRequest, "no_open_tracking_session", fmt.Errorf("no open tracking session %q", id))
	}
	return ts, nil
}

// configFlagsFor reads the config switches off the session preloaded on the
// resolved UserApplicationSession.
func configFlagsFor(uas *types.UserApplicationSession) ConfigFlags {
	if uas == nil || uas.ApplicationSession == nil || uas.ApplicationSession.Config == nil {
		return ConfigFlags{Feedback: true, TrackingIP: true}
	}
	return ParseConfigFlags(uas.ApplicationSession.Config.Config)
}
