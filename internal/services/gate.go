package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/lrnlab/apptrack-backend/internal/data/repos"
	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/apierr"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type RouteKind int

const (
	RouteRedirect RouteKind = iota
	RouteInactive
	RouteNoContent
)

type RouteResult struct {
	Kind        RouteKind
	RedirectURL string
	// Session code to pin in the sticky cookie; empty means leave the
	// cookie alone.
	StickySession string
}

type GateService interface {
	// Route resolves a gate or session code to a redirect target.
	// stickySession is the member code from the visitor's gate cookie, if
	// any; a still-active sticky target wins without advancing the cursor.
	Route(dbc dbctx.Context, code, stickySession string) (*RouteResult, error)
}

// retry bound for the cursor compare-and-swap under contention
const gateAdvanceAttempts = 5

type gateService struct {
	log         *logger.Logger
	gates       repos.GateRepo
	appSessions repos.ApplicationSessionRepo
}

func NewGateService(
	log *logger.Logger,
	gates repos.GateRepo,
	appSessions repos.ApplicationSessionRepo,
) GateService {
	return &gateService{
		log:         log.With("service", "GateService"),
		gates:       gates,
		appSessions: appSessions,
	}
}

func (s *gateService) Route(dbc dbctx.Context, code, stickySession string) (*RouteResult, error) {
	// a session code short-circuits all gate logic
	sess, err := s.appSessions.GetByCode(dbc, code)
	if err != nil {
		return nil, fmt.Errorf("get application session: %w", err)
	}
	if sess != nil {
		if !sess.IsActive {
			return &RouteResult{Kind: RouteInactive}, nil
		}
		url, err := sessionURL(sess)
		if err != nil {
			return nil, err
		}
		return &RouteResult{Kind: RouteRedirect, RedirectURL: url}, nil
	}

	gate, err := s.gates.GetByCode(dbc, code)
	if err != nil {
		return nil, fmt.Errorf("get gate: %w", err)
	}
	if gate == nil {
		return nil, apierr.New(http.StatusNotFound, "gate_not_found", fmt.Errorf("unknown code %q", code))
	}
	if !gate.IsActive {
		return &RouteResult{Kind: RouteInactive}, nil
	}

	members, err := s.gates.ActiveMembers(dbc, gate.Code)
	if err != nil {
		return nil, fmt.Errorf("list gate members: %w", err)
	}
	if len(members) == 0 {
		return &RouteResult{Kind: RouteNoContent}, nil
	}

	// sticky check is a pure read and never advances the cursor
	if stickySession != "" {
		for _, m := range members {
			if m.Code != stickySession {
				continue
			}
			url, err := sessionURL(m)
			if err != nil {
				return nil, err
			}
			return &RouteResult{Kind: RouteRedirect, RedirectURL: url}, nil
		}
	}

	// rotation: read the cursor and advance it with a compare-and-swap on
	// the stored value, so two concurrent first-visits never land on the
	// same index; a lost swap re-reads fresh state and retries
	var chosen *types.ApplicationSession
	for attempt := 0; attempt < gateAdvanceAttempts; attempt++ {
		g, err := s.gates.GetByCode(dbc, gate.Code)
		if err != nil {
			return nil, fmt.Errorf("reread gate: %w", err)
		}
		if g == nil {
			return nil, apierr.New(http.StatusNotFound, "gate_not_found", fmt.Errorf("gate vanished"))
		}
		rotation, err := s.gates.ActiveMembers(dbc, gate.Code)
		if err != nil {
			return nil, fmt.Errorf("reread gate members: %w", err)
		}
		n := len(rotation)
		if n == 0 {
			return &RouteResult{Kind: RouteNoContent}, nil
		}

		// the stored cursor may point past the end after members were
		// deactivated; clamp to the last slot
		idx := g.NextForwardIndex
		if idx > n-1 {
			idx = n - 1
		}
		advanced, err := s.gates.AdvanceCursor(dbc, gate.Code, g.NextForwardIndex, (idx+1)%n)
		if err != nil {
			return nil, fmt.Errorf("advance gate cursor: %w", err)
		}
		if advanced {
			chosen = rotation[idx]
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("gate %q cursor contended beyond %d attempts", gate.Code, gateAdvanceAttempts)
	}

	url, err := sessionURL(chosen)
	if err != nil {
		return nil, err
	}
	return &RouteResult{
		Kind:          RouteRedirect,
		RedirectURL:   url,
		StickySession: chosen.Code,
	}, nil
}

// sessionURL builds the public URL of an application session: the owning
// application's URL, slash-terminated, with the session code appended as
// ?sess=. Embedded apps expect the slash-terminated form.
func sessionURL(sess *types.ApplicationSession) (string, error) {
	if sess.Config == nil || sess.Config.Application == nil {
		return "", fmt.Errorf("session %q has no application loaded", sess.Code)
	}
	base := sess.Config.Application.URL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "?sess=" + sess.Code, nil
}
