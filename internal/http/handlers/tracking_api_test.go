package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
)

// resolveNoneSession walks the real resolution flow and returns the session
// code plus a usable bearer token.
func resolveNoneSession(t *testing.T, e *apiEnv, config string) (string, string) {
	t.Helper()
	sess := seedSession(t, e, types.AuthModeNone, true, config)
	rec := e.do(t, http.MethodGet, "/session?sess="+sess.Code, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("resolve session: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["user_code"].(string)
	if token == "" {
		t.Fatalf("resolve session returned no token")
	}
	return sess.Code, token
}

func TestStartTrackingIdempotent(t *testing.T) {
	e := env(t)
	sess, token := resolveNoneSession(t, e, "")

	rec := e.do(t, http.MethodPost, "/start_tracking", map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
	}, withToken(token))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	first := decodeBody(t, rec)["tracking_session_id"]

	rec = e.do(t, http.MethodPost, "/start_tracking", map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
	}, withToken(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on resume, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["tracking_session_id"]; got != first {
		t.Fatalf("resume returned a different session: %v != %v", got, first)
	}
}

func TestStartTrackingConcurrentStartsConverge(t *testing.T) {
	e := env(t)
	sess, token := resolveNoneSession(t, e, "")

	body, err := json.Marshal(map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	const n = 8
	codes := make([]int, n)
	ids := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			req := httptest.NewRequest(http.MethodPost, "/start_tracking", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Token "+token)
			rec := httptest.NewRecorder()
			e.router.ServeHTTP(rec, req)
			codes[i] = rec.Code
			var payload map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				return fmt.Errorf("status %d: %w", rec.Code, err)
			}
			ids[i], _ = payload["tracking_session_id"].(string)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent start: %v", err)
	}

	created := 0
	for i := 0; i < n; i++ {
		switch codes[i] {
		case http.StatusCreated:
			created++
		case http.StatusOK:
		default:
			t.Fatalf("request %d: unexpected status %d", i, codes[i])
		}
		if ids[i] == "" || ids[i] != ids[0] {
			t.Fatalf("request %d: diverging session id %q != %q", i, ids[i], ids[0])
		}
	}
	if created != 1 {
		t.Fatalf("expected exactly one created response, got %d", created)
	}

	var open int64
	err = e.db.Model(&types.TrackingSession{}).
		Joins("JOIN user_application_session uas ON uas.id = tracking_session.user_app_session_id").
		Where("uas.code = ? AND tracking_session.end_time IS NULL", token).
		Count(&open).Error
	if err != nil {
		t.Fatalf("count open sessions: %v", err)
	}
	if open != 1 {
		t.Fatalf("expected one open tracking session, got %d", open)
	}
}

func TestStartTrackingTimestampWindow(t *testing.T) {
	e := env(t)
	cases := []struct {
		name   string
		offset time.Duration
		status int
	}{
		{"just inside past bound", -4*time.Minute - 59*time.Second, http.StatusCreated},
		{"past the past bound", -5*time.Minute - 1*time.Second, http.StatusBadRequest},
		{"just inside future bound", 4 * time.Second, http.StatusCreated},
		{"past the future bound", 6 * time.Second, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess, token := resolveNoneSession(t, e, "")
			rec := e.do(t, http.MethodPost, "/start_tracking", map[string]any{
				"sess":       sess,
				"start_time": time.Now().UTC().Add(tc.offset).Format(time.RFC3339),
			}, withToken(token))
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if tc.status == http.StatusBadRequest {
				body := decodeBody(t, rec)
				verrs, _ := body["validation_errors"].(map[string]any)
				if _, ok := verrs["start_time"]; !ok {
					t.Fatalf("expected validation error on start_time, got %v", body)
				}
			}
		})
	}
}

func TestStartTrackingRequiresToken(t *testing.T) {
	e := env(t)
	sess, _ := resolveNoneSession(t, e, "")

	rec := e.do(t, http.MethodPost, "/start_tracking", map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/start_tracking", map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
	}, withToken("deadbeef"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bogus token, got %d", rec.Code)
	}
}

func TestStartTrackingCapturesClientIP(t *testing.T) {
	e := env(t)
	sess, token := resolveNoneSession(t, e, "")

	rec := e.do(t, http.MethodPost, "/start_tracking", map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
	}, withToken(token))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := decodeBody(t, rec)["tracking_session_id"].(string)

	var row types.TrackingSession
	if err := e.db.Where("id = ?", id).First(&row).Error; err != nil {
		t.Fatalf("load tracking session: %v", err)
	}
	var info map[string]any
	if err := json.Unmarshal(row.DeviceInfo, &info); err != nil {
		t.Fatalf("decode device info: %v", err)
	}
	if info["client_ip"] != "203.0.113.7" {
		t.Fatalf("expected captured client_ip, got %v", info["client_ip"])
	}
}

func TestStartTrackingIPCaptureDisabled(t *testing.T) {
	e := env(t)
	sess, token := resolveNoneSession(t, e, `{"tracking":{"ip":false}}`)

	rec := e.do(t, http.MethodPost, "/start_tracking", map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
		"device_info": map[string]any{"ua": "test"},
	}, withToken(token))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	id := decodeBody(t, rec)["tracking_session_id"].(string)

	var row types.TrackingSession
	if err := e.db.Where("id = ?", id).First(&row).Error; err != nil {
		t.Fatalf("load tracking session: %v", err)
	}
	var info map[string]any
	if err := json.Unmarshal(row.DeviceInfo, &info); err != nil {
		t.Fatalf("decode device info: %v", err)
	}
	// the key must exist with an explicit null, not be omitted
	v, present := info["client_ip"]
	if !present || v != nil {
		t.Fatalf("expected explicit null client_ip, got %v (present=%v)", v, present)
	}
	if info["ua"] != "test" {
		t.Fatalf("caller-supplied device info lost: %v", info)
	}
}

func TestStopTrackingNotIdempotent(t *testing.T) {
	e := env(t)
	sess, token := resolveNoneSession(t, e, "")

	rec := e.do(t, http.MethodPost, "/start_tracking", map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
	}, withToken(token))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	id := decodeBody(t, rec)["tracking_session_id"].(string)

	stopBody := map[string]any{
		"sess": sess, "tracking_session_id": id,
		"end_time": time.Now().UTC().Format(time.RFC3339),
	}
	rec = e.do(t, http.MethodPost, "/stop_tracking", stopBody, withToken(token))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on stop, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/stop_tracking", stopBody, withToken(token))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on second stop, got %d", rec.Code)
	}
}

func TestStopTrackingEndTimeValidated(t *testing.T) {
	e := env(t)
	sess, token := resolveNoneSession(t, e, "")

	rec := e.do(t, http.MethodPost, "/start_tracking", map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
	}, withToken(token))
	id := decodeBody(t, rec)["tracking_session_id"].(string)

	rec = e.do(t, http.MethodPost, "/stop_tracking", map[string]any{
		"sess": sess, "tracking_session_id": id,
		"end_time": time.Now().UTC().Add(-6 * time.Minute).Format(time.RFC3339),
	}, withToken(token))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	verrs, _ := decodeBody(t, rec)["validation_errors"].(map[string]any)
	if _, ok := verrs["end_time"]; !ok {
		t.Fatalf("expected validation error on end_time, got %v", verrs)
	}
}

func TestStopTrackingUnknownID(t *testing.T) {
	e := env(t)
	sess, token := resolveNoneSession(t, e, "")

	rec := e.do(t, http.MethodPost, "/stop_tracking", map[string]any{
		"sess": sess, "tracking_session_id": "11111111-1111-1111-1111-111111111111",
		"end_time": time.Now().UTC().Format(time.RFC3339),
	}, withToken(token))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown id, got %d", rec.Code)
	}
}

func TestTrackEvent(t *testing.T) {
	e := env(t)
	sess, token := resolveNoneSession(t, e, "")

	rec := e.do(t, http.MethodPost, "/start_tracking", map[string]any{
		"sess": sess, "start_time": time.Now().UTC().Format(time.RFC3339),
	}, withToken(token))
	id := decodeBody(t, rec)["tracking_session_id"].(string)

	rec = e.do(t, http.MethodPost, "/track_event", map[string]any{
		"sess": sess, "tracking_session_id": id,
		"event": map[string]any{
			"time":  time.Now().UTC().Format(time.RFC3339),
			"type":  "click",
			"value": map[string]any{"x": 10, "y": 20},
		},
	}, withToken(token))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["tracking_event_id"] == "" {
		t.Fatalf("expected a tracking_event_id")
	}

	// event time goes through the same skew window
	rec = e.do(t, http.MethodPost, "/track_event", map[string]any{
		"sess": sess, "tracking_session_id": id,
		"event": map[string]any{
			"time": time.Now().UTC().Add(-10 * time.Minute).Format(time.RFC3339),
			"type": "click",
		},
	}, withToken(token))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for stale event time, got %d", rec.Code)
	}

	// a closed session takes no more events
	e.do(t, http.MethodPost, "/stop_tracking", map[string]any{
		"sess": sess, "tracking_session_id": id,
		"end_time": time.Now().UTC().Format(time.RFC3339),
	}, withToken(token))
	rec = e.do(t, http.MethodPost, "/track_event", map[string]any{
		"sess": sess, "tracking_session_id": id,
		"event": map[string]any{
			"time": time.Now().UTC().Format(time.RFC3339),
			"type": "click",
		},
	}, withToken(token))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for closed session, got %d", rec.Code)
	}
}
