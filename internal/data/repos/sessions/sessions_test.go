package sessions_test

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/lrnlab/apptrack-backend/internal/data/repos/sessions"
	"github.com/lrnlab/apptrack-backend/internal/data/repos/testutil"
	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
)

func seedMember(t *testing.T, dbc dbctx.Context, gateRepo sessions.GateRepo, gateCode string) *types.ApplicationSession {
	t.Helper()
	app := testutil.SeedApplication(t, dbc.Ctx, dbc.Tx, "gate-"+uuid.NewString()[:8])
	cfg := testutil.SeedAppConfig(t, dbc.Ctx, dbc.Tx, app.ID, "")
	sess := testutil.SeedAppSession(t, dbc.Ctx, dbc.Tx, cfg.ID, uuid.NewString()[:10], types.AuthModeNone)
	if err := gateRepo.AddMember(dbc, gateCode, sess.Code); err != nil {
		t.Fatalf("add member: %v", err)
	}
	return sess
}

func TestGateActiveMembersOrderedByCode(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := sessions.NewGateRepo(db, log)
	gate := testutil.SeedGate(t, dbc.Ctx, tx, uuid.NewString()[:10], "order-"+uuid.NewString()[:8])

	var codes []string
	for i := 0; i < 3; i++ {
		codes = append(codes, seedMember(t, dbc, repo, gate.Code).Code)
	}
	inactive := seedMember(t, dbc, repo, gate.Code)
	if err := tx.Model(&types.ApplicationSession{}).
		Where("code = ?", inactive.Code).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate member: %v", err)
	}

	members, err := repo.ActiveMembers(dbc, gate.Code)
	if err != nil {
		t.Fatalf("active members: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 active members, got %d", len(members))
	}
	sort.Strings(codes)
	for i, m := range members {
		if m.Code != codes[i] {
			t.Fatalf("position %d: expected %q, got %q", i, codes[i], m.Code)
		}
		if m.Config == nil || m.Config.Application == nil {
			t.Fatalf("member %q missing application preload", m.Code)
		}
	}
}

func TestCreateAndGetByCode(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	sessRepo := sessions.NewApplicationSessionRepo(db, log)
	gateRepo := sessions.NewGateRepo(db, log)

	app := testutil.SeedApplication(t, dbc.Ctx, tx, "rt-"+uuid.NewString()[:8])
	cfg := testutil.SeedAppConfig(t, dbc.Ctx, tx, app.ID, `{"summary":false}`)

	sess := &types.ApplicationSession{
		Code:     uuid.NewString()[:10],
		ConfigID: cfg.ID,
		AuthMode: types.AuthModeNone,
		IsActive: true,
	}
	if err := sessRepo.Create(dbc, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	got, err := sessRepo.GetByCode(dbc, sess.Code)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil || got.Config == nil || got.Config.Application == nil {
		t.Fatalf("expected config and application preloaded, got %+v", got)
	}

	gate := &types.ApplicationSessionGate{
		Code:     uuid.NewString()[:10],
		Label:    "rt-" + uuid.NewString()[:8],
		IsActive: true,
	}
	if err := gateRepo.Create(dbc, gate); err != nil {
		t.Fatalf("create gate: %v", err)
	}
	gotGate, err := gateRepo.GetByCode(dbc, gate.Code)
	if err != nil {
		t.Fatalf("get gate: %v", err)
	}
	if gotGate == nil || gotGate.Label != gate.Label {
		t.Fatalf("expected gate %q, got %+v", gate.Label, gotGate)
	}
}

func TestGateAdvanceCursor(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := sessions.NewGateRepo(db, log)
	gate := testutil.SeedGate(t, dbc.Ctx, tx, uuid.NewString()[:10], "cursor-"+uuid.NewString()[:8])

	advanced, err := repo.AdvanceCursor(dbc, gate.Code, 0, 7)
	if err != nil {
		t.Fatalf("advance cursor: %v", err)
	}
	if !advanced {
		t.Fatalf("advance from the stored value must succeed")
	}
	got, err := repo.GetByCode(dbc, gate.Code)
	if err != nil {
		t.Fatalf("get gate: %v", err)
	}
	if got.NextForwardIndex != 7 {
		t.Fatalf("expected cursor 7, got %d", got.NextForwardIndex)
	}

	// a stale expected value loses the swap and leaves the cursor alone
	advanced, err = repo.AdvanceCursor(dbc, gate.Code, 0, 3)
	if err != nil {
		t.Fatalf("advance cursor: %v", err)
	}
	if advanced {
		t.Fatalf("advance from a stale value must fail")
	}
	got, err = repo.GetByCode(dbc, gate.Code)
	if err != nil {
		t.Fatalf("get gate: %v", err)
	}
	if got.NextForwardIndex != 7 {
		t.Fatalf("lost swap must not move the cursor, got %d", got.NextForwardIndex)
	}
}

func TestUserApplicationSessionTokenLookup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := sessions.NewUserApplicationSessionRepo(db, log)

	app := testutil.SeedApplication(t, dbc.Ctx, tx, "uas-"+uuid.NewString()[:8])
	cfg := testutil.SeedAppConfig(t, dbc.Ctx, tx, app.ID, `{"feedback":true}`)
	sessA := testutil.SeedAppSession(t, dbc.Ctx, tx, cfg.ID, uuid.NewString()[:10], types.AuthModeNone)
	sessB := testutil.SeedAppSession(t, dbc.Ctx, tx, cfg.ID, uuid.NewString()[:10], types.AuthModeNone)

	token := uuid.NewString() + uuid.NewString()
	uas := testutil.SeedUserAppSession(t, dbc.Ctx, tx, sessA.Code, token, nil)

	got, err := repo.GetBySessionAndToken(dbc, sessA.Code, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil || got.ID != uas.ID {
		t.Fatalf("expected %v, got %v", uas.ID, got)
	}
	if got.ApplicationSession == nil || got.ApplicationSession.Config == nil {
		t.Fatalf("expected session and config preloaded")
	}

	// tokens are scoped to their application session
	got, err = repo.GetBySessionAndToken(dbc, sessB.Code, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("token resolved under the wrong session")
	}

	got, err = repo.GetBySessionAndToken(dbc, sessA.Code, "bogus")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatalf("bogus token resolved")
	}
}

func TestUserApplicationSessionTranscript(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := sessions.NewUserApplicationSessionRepo(db, log)

	app := testutil.SeedApplication(t, dbc.Ctx, tx, "tr-"+uuid.NewString()[:8])
	cfg := testutil.SeedAppConfig(t, dbc.Ctx, tx, app.ID, "")
	sess := testutil.SeedAppSession(t, dbc.Ctx, tx, cfg.ID, uuid.NewString()[:10], types.AuthModeNone)
	token := uuid.NewString() + uuid.NewString()
	uas := testutil.SeedUserAppSession(t, dbc.Ctx, tx, sess.Code, token, nil)

	transcript := []byte(`[{"role":"user","message":"hi"},{"role":"assistant","message":"hello"}]`)
	if err := repo.UpdateTranscript(dbc, uas.ID, transcript); err != nil {
		t.Fatalf("update transcript: %v", err)
	}

	got, err := repo.GetBySessionAndToken(dbc, sess.Code, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil || string(got.ChatbotTranscript) != string(transcript) {
		t.Fatalf("transcript not persisted: %v", got)
	}
}
