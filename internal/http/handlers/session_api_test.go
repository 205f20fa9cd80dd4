package handlers_test

import (
	"net/http"
	"testing"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/data/repos/testutil"
)

func seedSession(t *testing.T, e *apiEnv, authMode string, active bool, config string) *types.ApplicationSession {
	t.Helper()
	app := testutil.SeedApplication(t, ctx(), e.db, "app-"+e.newCode())
	cfg := testutil.SeedAppConfig(t, ctx(), e.db, app.ID, config)
	sess := testutil.SeedAppSession(t, ctx(), e.db, cfg.ID, e.newCode(), authMode)
	if !active {
		if err := e.db.Model(sess).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate session: %v", err)
		}
	}
	return sess
}

func TestResolveSessionNoneModeCreatesToken(t *testing.T) {
	e := env(t)
	sess := seedSession(t, e, types.AuthModeNone, true, `{"feedback":false,"custom_key":"x"}`)

	rec := e.do(t, http.MethodGet, "/session?sess="+sess.Code, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["sess_code"] != sess.Code {
		t.Fatalf("expected sess_code %q, got %v", sess.Code, body["sess_code"])
	}
	if body["auth_mode"] != types.AuthModeNone {
		t.Fatalf("expected auth_mode none, got %v", body["auth_mode"])
	}
	userCode, _ := body["user_code"].(string)
	if len(userCode) != 64 {
		t.Fatalf("expected 64-char user_code, got %q", userCode)
	}
	config, ok := body["config"].(map[string]any)
	if !ok {
		t.Fatalf("expected config object, got %v", body["config"])
	}
	// stored keys overlay the defaults, unset defaults shine through
	if config["feedback"] != false {
		t.Fatalf("expected stored feedback=false to win, got %v", config["feedback"])
	}
	if config["custom_key"] != "x" {
		t.Fatalf("expected custom_key to survive the merge, got %v", config["custom_key"])
	}
	if config["reset_button"] != true {
		t.Fatalf("expected default reset_button=true, got %v", config["reset_button"])
	}
	if _, ok := config["tracking"].(map[string]any); !ok {
		t.Fatalf("expected default tracking map, got %v", config["tracking"])
	}

	foundCookie := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrftoken" && c.Value != "" {
			foundCookie = true
		}
	}
	if !foundCookie {
		t.Fatalf("expected csrftoken cookie to be set")
	}
}

func TestResolveSessionRapidCallsYieldDistinctTokens(t *testing.T) {
	e := env(t)
	sess := seedSession(t, e, types.AuthModeNone, true, "")

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		rec := e.do(t, http.MethodGet, "/session?sess="+sess.Code, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		code := decodeBody(t, rec)["user_code"].(string)
		if seen[code] {
			t.Fatalf("duplicate user_code %q", code)
		}
		seen[code] = true
	}
}

func TestResolveSessionLoginModeWithholdsToken(t *testing.T) {
	e := env(t)
	sess := seedSession(t, e, types.AuthModeLogin, true, "")

	rec := e.do(t, http.MethodGet, "/session?sess="+sess.Code, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["user_code"]; ok {
		t.Fatalf("login-mode resolution must not return user_code: %v", body)
	}
	if _, ok := body["config"]; ok {
		t.Fatalf("login-mode resolution must not return config: %v", body)
	}
}

func TestResolveSessionInactive(t *testing.T) {
	e := env(t)
	sess := seedSession(t, e, types.AuthModeNone, false, "")

	rec := e.do(t, http.MethodGet, "/session?sess="+sess.Code, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["active"] != false {
		t.Fatalf("expected active=false, got %v", body["active"])
	}
	if _, ok := body["user_code"]; ok {
		t.Fatalf("inactive session must not mint a token")
	}
}

func TestResolveSessionUnknownCode(t *testing.T) {
	e := env(t)
	rec := e.do(t, http.MethodGet, "/session?sess=ffffffffff", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestResolveSessionWithoutParams(t *testing.T) {
	e := env(t)
	rec := e.do(t, http.MethodGet, "/session", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestResolveSessionByReferrer(t *testing.T) {
	e := env(t)
	sess := seedSession(t, e, types.AuthModeLogin, true, "")

	app := testutil.SeedApplication(t, ctx(), e.db, "ref-"+e.newCode())
	if err := e.db.Model(app).Update("default_application_session_code", sess.Code).Error; err != nil {
		t.Fatalf("set default session: %v", err)
	}

	// trailing slash on the referrer must still match
	rec := e.do(t, http.MethodGet, "/session", nil, withHeader("Referer", app.URL+"/"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["sess_code"] != sess.Code {
		t.Fatalf("expected sess_code %q, got %v", sess.Code, body["sess_code"])
	}
	// auth mode is withheld so the client must re-resolve by code
	if _, ok := body["auth_mode"]; ok {
		t.Fatalf("referrer resolution must not disclose auth_mode: %v", body)
	}
	if _, ok := body["user_code"]; ok {
		t.Fatalf("referrer resolution must not mint a token")
	}
}

func TestResolveSessionUnknownReferrer(t *testing.T) {
	e := env(t)
	rec := e.do(t, http.MethodGet, "/session?referrer=https://nobody.example.com", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
