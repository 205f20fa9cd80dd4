package services

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lrnlab/apptrack-backend/internal/data/repos"
	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/apierr"
	"github.com/lrnlab/apptrack-backend/internal/platform/codegen"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type LoginRequest struct {
	Sess     string `json:"sess"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	// SessionLogin authenticates a user against a login-mode session and
	// mints a fresh UserApplicationSession. Every login gets its own token;
	// concurrent logins of the same user coexist.
	SessionLogin(dbc dbctx.Context, req LoginRequest) (*SessionInfo, error)
	Register(dbc dbctx.Context, req RegisterRequest) (*types.User, error)
}

type authService struct {
	log             *logger.Logger
	users           repos.UserRepo
	appSessions     repos.ApplicationSessionRepo
	userAppSessions repos.UserApplicationSessionRepo
	codes           *codegen.Generator
	defaults        map[string]any
}

func NewAuthService(
	log *logger.Logger,
	users repos.UserRepo,
	appSessions repos.ApplicationSessionRepo,
	userAppSessions repos.UserApplicationSessionRepo,
	codes *codegen.Generator,
	features Features,
) AuthService {
	return &authService{
		log:             log.With("service", "AuthService"),
		users:           users,
		appSessions:     appSessions,
		userAppSessions: userAppSessions,
		codes:           codes,
		defaults:        BuildDefaultConfig(features),
	}
}

func (s *authService) SessionLogin(dbc dbctx.Context, req LoginRequest) (*SessionInfo, error) {
	sess, err := s.appSessions.GetByCode(dbc, req.Sess)
	if err != nil {
		return nil, fmt.Errorf("get application session: %w", err)
	}
	if sess == nil {
		return nil, apierr.New(http.StatusNotFound, "session_not_found", fmt.Errorf("unknown session code %q", req.Sess))
	}
	if sess.AuthMode != types.AuthModeLogin || !sess.IsActive {
		return nil, apierr.New(http.StatusBadRequest, "login_not_possible", fmt.Errorf("session %q does not accept logins", sess.Code))
	}

	var user *types.User
	switch {
	case req.Username != "":
		user, err = s.users.GetByUsername(dbc, req.Username)
	case req.Email != "":
		user, err = s.users.GetByEmail(dbc, req.Email)
	default:
		return nil, apierr.New(http.StatusBadRequest, "missing_identity", fmt.Errorf("username or email required"))
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apierr.New(http.StatusNotFound, "user_not_found", fmt.Errorf("no such user"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("wrong password"))
	}

	uas := &types.UserApplicationSession{
		ID:                     uuid.New(),
		ApplicationSessionCode: sess.Code,
		UserID:                 &user.ID,
		Code:                   s.codes.Generate([]byte(sess.Code), 32),
	}
	if err := s.userAppSessions.Create(dbc, uas); err != nil {
		return nil, fmt.Errorf("create user application session: %w", err)
	}

	info := &SessionInfo{
		SessCode: sess.Code,
		AuthMode: sess.AuthMode,
		Active:   sess.IsActive,
		UserCode: uas.Code,
		Created:  true,
	}
	info.Config, err = mergedConfigJSON(s.defaults, sess)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func registerError(label, message string) *apierr.Error {
	return apierr.New(http.StatusForbidden, label, fmt.Errorf("%s", message))
}

func (s *authService) Register(dbc dbctx.Context, req RegisterRequest) (*types.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if req.Password == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_password", fmt.Errorf("password required"))
	}
	if username == "" && email == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_identity", fmt.Errorf("username or email required"))
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, registerError("invalid_email", "the given email address is not valid")
		}
	}
	if len(req.Password) < 8 {
		return nil, registerError("pw_too_short", "the password must be at least 8 characters long")
	}
	if username != "" && req.Password == username {
		return nil, registerError("pw_same_as_user", "the password must differ from the username")
	}
	if email != "" && req.Password == email {
		return nil, registerError("pw_same_as_email", "the password must differ from the email address")
	}
	if username == "" {
		username = email
	}

	exists, err := s.users.UsernameExists(dbc, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return nil, registerError("user_already_registered", "a user with this name is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &types.User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.users.Create(dbc, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
