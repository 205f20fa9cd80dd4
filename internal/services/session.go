package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lrnlab/apptrack-backend/internal/data/repos"
	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/apierr"
	"github.com/lrnlab/apptrack-backend/internal/platform/codegen"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

const sessionCacheTTL = time.Minute

// SessionInfo is the wire shape of a resolved application session. Created
// reports whether a fresh UserApplicationSession was minted (201 vs 200).
type SessionInfo struct {
	SessCode string          `json:"sess_code"`
	AuthMode string          `json:"auth_mode,omitempty"`
	Active   bool            `json:"active"`
	UserCode string          `json:"user_code,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`

	Created bool `json:"-"`
}

type SessionService interface {
	// Resolve answers GET /session?sess=<code>. none-mode active sessions
	// get a fresh UserApplicationSession token plus the config blob;
	// login-mode and inactive sessions only get the metadata.
	Resolve(dbc dbctx.Context, code string) (*SessionInfo, error)
	// ResolveReferrer matches the referrer URL against applications with a
	// default session and discloses only the session code and active flag.
	ResolveReferrer(dbc dbctx.Context, referrer string) (*SessionInfo, error)
	// ResolveToken validates a bearer token within its application session
	// and enforces the auth-mode/user binding.
	ResolveToken(dbc dbctx.Context, sessCode, token string) (*types.UserApplicationSession, error)
	// AppendChatMessage appends one {role, message} pair to the session's
	// chatbot transcript. The transcript is append-only; the chat provider
	// itself lives outside this service.
	AppendChatMessage(dbc dbctx.Context, uas *types.UserApplicationSession, role, message string) error
	// CSRFToken mints the value for the csrftoken cookie.
	CSRFToken() string
}

type sessionService struct {
	log             *logger.Logger
	appSessions     repos.ApplicationSessionRepo
	applications    repos.ApplicationRepo
	userAppSessions repos.UserApplicationSessionRepo
	codes           *codegen.Generator
	cache           *redis.Client
	defaults        map[string]any
}

func NewSessionService(
	log *logger.Logger,
	appSessions repos.ApplicationSessionRepo,
	applications repos.ApplicationRepo,
	userAppSessions repos.UserApplicationSessionRepo,
	codes *codegen.Generator,
	cache *redis.Client,
	features Features,
) SessionService {
	return &sessionService{
		log:             log.With("service", "SessionService"),
		appSessions:     appSessions,
		applications:    applications,
		userAppSessions: userAppSessions,
		codes:           codes,
		cache:           cache,
		defaults:        BuildDefaultConfig(features),
	}
}

type sessionMeta struct {
	Code     string          `json:"code"`
	AuthMode string          `json:"auth_mode"`
	Active   bool            `json:"active"`
	Config   json.RawMessage `json:"config"`
}

func (s *sessionService) Resolve(dbc dbctx.Context, code string) (*SessionInfo, error) {
	meta, err := s.lookup(dbc, code)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, apierr.New(http.StatusNotFound, "session_not_found", fmt.Errorf("unknown session code %q", code))
	}

	info := &SessionInfo{
		SessCode: meta.Code,
		AuthMode: meta.AuthMode,
		Active:   meta.Active,
	}
	if meta.AuthMode != types.AuthModeNone || !meta.Active {
		// login-gated or inactive: never leak a usable token
		return info, nil
	}

	uas := &types.UserApplicationSession{
		ID:                     uuid.New(),
		ApplicationSessionCode: meta.Code,
		Code:                   s.codes.Generate([]byte(meta.Code), 32),
	}
	if err := s.userAppSessions.Create(dbc, uas); err != nil {
		return nil, fmt.Errorf("create user application session: %w", err)
	}
	info.UserCode = uas.Code
	info.Config = meta.Config
	info.Created = true
	return info, nil
}

func (s *sessionService) ResolveReferrer(dbc dbctx.Context, referrer string) (*SessionInfo, error) {
	referrer = strings.TrimRight(strings.TrimSpace(referrer), "/")
	if referrer == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_session", fmt.Errorf("neither session code nor referrer given"))
	}

	apps, err := s.applications.ListWithDefaultSession(dbc)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	for _, app := range apps {
		if strings.TrimRight(app.URL, "/") != referrer {
			continue
		}
		meta, err := s.lookup(dbc, *app.DefaultApplicationSessionCode)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			s.log.Error("application default session points at missing session",
				"application_id", app.ID, "session_code", *app.DefaultApplicationSessionCode)
			continue
		}
		// auth mode is deliberately withheld; the caller re-resolves by code
		return &SessionInfo{SessCode: meta.Code, Active: meta.Active}, nil
	}
	return nil, apierr.New(http.StatusBadRequest, "unknown_referrer", fmt.Errorf("no application matches referrer %q", referrer))
}

func (s *sessionService) ResolveToken(dbc dbctx.Context, sessCode, token string) (*types.UserApplicationSession, error) {
	uas, err := s.userAppSessions.GetBySessionAndToken(dbc, sessCode, token)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if uas == nil || uas.ApplicationSession == nil {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_token", fmt.Errorf("unknown session token"))
	}
	switch uas.ApplicationSession.AuthMode {
	case types.AuthModeLogin:
		if uas.UserID == nil {
			return nil, apierr.New(http.StatusUnauthorized, "invalid_token", fmt.Errorf("login session token has no bound user"))
		}
	case types.AuthModeNone:
		if uas.UserID != nil {
			// a none-mode row must never carry a user; treat as corrupt data
			s.log.Error("user bound to a none-mode application session",
				"user_app_session_id", uas.ID, "session_code", sessCode)
			return nil, apierr.New(http.StatusInternalServerError, "session_state_corrupt", fmt.Errorf("inconsistent session state"))
		}
	}
	return uas, nil
}

// mergedConfigJSON overlays the stored per-session config on the defaults.
// Stored top-level keys win wholesale.
func mergedConfigJSON(defaults map[string]any, sess *types.ApplicationSession) (json.RawMessage, error) {
	overlay := map[string]any{}
	if sess.Config != nil && len(sess.Config.Config) > 0 {
		if err := json.Unmarshal(sess.Config.Config, &overlay); err != nil {
			return nil, fmt.Errorf("decode stored config for session %q: %w", sess.Code, err)
		}
	}
	raw, err := json.Marshal(MergeConfig(defaults, overlay))
	if err != nil {
		return nil, fmt.Errorf("encode config for session %q: %w", sess.Code, err)
	}
	return raw, nil
}

func (s *sessionService) AppendChatMessage(dbc dbctx.Context, uas *types.UserApplicationSession, role, message string) error {
	if role == "" || message == "" {
		return apierr.NewValidation("message", "role and message are required")
	}

	transcript := []map[string]string{}
	if len(uas.ChatbotTranscript) > 0 {
		if err := json.Unmarshal(uas.ChatbotTranscript, &transcript); err != nil {
			return fmt.Errorf("decode transcript for session %q: %w", uas.Code, err)
		}
	}
	transcript = append(transcript, map[string]string{"role": role, "message": message})
	raw, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	if err := s.userAppSessions.UpdateTranscript(dbc, uas.ID, raw); err != nil {
		return fmt.Errorf("update transcript: %w", err)
	}
	uas.ChatbotTranscript = raw
	return nil
}

func (s *sessionService) CSRFToken() string {
	return s.codes.Generate([]byte("csrftoken"), 16)
}

// lookup fetches session metadata, read-through cached in redis when a
// client is configured. Returns nil when the code is unknown.
func (s *sessionService) lookup(dbc dbctx.Context, code string) (*sessionMeta, error) {
	cacheKey := "appsess:" + code
	if s.cache != nil {
		if raw, err := s.cache.Get(dbc.Ctx, cacheKey).Bytes(); err == nil {
			var meta sessionMeta
			if err := json.Unmarshal(raw, &meta); err == nil {
				return &meta, nil
			}
		}
	}

	sess, err := s.appSessions.GetByCode(dbc, code)
	if err != nil {
		return nil, fmt.Errorf("get application session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	meta := &sessionMeta{
		Code:     sess.Code,
		AuthMode: sess.AuthMode,
		Active:   sess.IsActive,
	}
	meta.Config, err = mergedConfigJSON(s.defaults, sess)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(meta); err == nil {
			if err := s.cache.Set(dbc.Ctx, cacheKey, raw, sessionCacheTTL).Err(); err != nil {
				s.log.Warn("session cache write failed", "error", err)
			}
		}
	}
	return meta, nil
}
