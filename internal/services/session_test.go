package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/lrnlab/apptrack-backend/internal/data/repos"
	"github.com/lrnlab/apptrack-backend/internal/data/repos/testutil"
	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/apierr"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
)

func TestAppendChatMessage(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	uasRepo := repos.NewUserApplicationSessionRepo(db, log)
	svc := NewSessionService(log, nil, nil, uasRepo, nil, nil, Features{})

	app := testutil.SeedApplication(t, dbc.Ctx, tx, "chat-"+uuid.NewString()[:8])
	cfg := testutil.SeedAppConfig(t, dbc.Ctx, tx, app.ID, "")
	sess := testutil.SeedAppSession(t, dbc.Ctx, tx, cfg.ID, uuid.NewString()[:10], types.AuthModeNone)
	uas := testutil.SeedUserAppSession(t, dbc.Ctx, tx, sess.Code, uuid.NewString(), nil)

	if err := svc.AppendChatMessage(dbc, uas, "user", "hi"); err != nil {
		t.Fatalf("append first message: %v", err)
	}
	if err := svc.AppendChatMessage(dbc, uas, "assistant", "hello"); err != nil {
		t.Fatalf("append second message: %v", err)
	}

	reloaded, err := uasRepo.GetBySessionAndToken(dbc, sess.Code, uas.Code)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	var transcript []map[string]string
	if err := json.Unmarshal(reloaded.ChatbotTranscript, &transcript); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("expected 2 transcript entries, got %d", len(transcript))
	}
	if transcript[0]["role"] != "user" || transcript[0]["message"] != "hi" {
		t.Fatalf("unexpected first entry: %v", transcript[0])
	}
	if transcript[1]["role"] != "assistant" || transcript[1]["message"] != "hello" {
		t.Fatalf("unexpected second entry: %v", transcript[1])
	}

	var verr *apierr.ValidationError
	if err := svc.AppendChatMessage(dbc, uas, "", "x"); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for empty role, got %v", err)
	}
}
