package services

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/lrnlab/apptrack-backend/internal/data/repos"
	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/apierr"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type FeedbackRequest struct {
	ContentSection  string         `json:"content_section"`
	Score           OptionalInt    `json:"score"`
	Text            OptionalString `json:"text"`
	TrackingSession *uuid.UUID     `json:"tracking_session"`
}

type FeedbackItem struct {
	ContentSection string  `json:"content_section"`
	Score          *int16  `json:"score"`
	Text           *string `json:"text"`
}

type FeedbackService interface {
	// Submit upserts one feedback row per (user app session, content
	// section). Omitted fields keep their prior value; an explicit empty
	// text clears the previous text. Returns true on insert, false on
	// update.
	Submit(dbc dbctx.Context, uas *types.UserApplicationSession, req FeedbackRequest) (bool, error)
	List(dbc dbctx.Context, uas *types.UserApplicationSession) ([]FeedbackItem, error)
}

type feedbackService struct {
	log              *logger.Logger
	feedback         repos.UserFeedbackRepo
	trackingSessions repos.TrackingSessionRepo
}

func NewFeedbackService(
	log *logger.Logger,
	feedback repos.UserFeedbackRepo,
	trackingSessions repos.TrackingSessionRepo,
) FeedbackService {
	return &feedbackService{
		log:              log.With("service", "FeedbackService"),
		feedback:         feedback,
		trackingSessions: trackingSessions,
	}
}

func (s *feedbackService) Submit(dbc dbctx.Context, uas *types.UserApplicationSession, req FeedbackRequest) (bool, error) {
	if req.ContentSection == "" {
		return false, apierr.NewValidation("content_section", "content section is required")
	}

	if !configFlagsFor(uas).Feedback {
		// feedback disabled for this config: drop score and text, which
		// makes the submission unusable below
		req.Score = OptionalInt{}
		req.Text = OptionalString{}
	}

	if req.Score.Set && req.Score.Value != nil {
		if v := *req.Score.Value; v < 1 || v > 5 {
			return false, apierr.NewValidation("score", "score must be an integer between 1 and 5")
		}
	}

	if req.TrackingSession != nil {
		ts, err := s.trackingSessions.GetByID(dbc, *req.TrackingSession)
		if err != nil {
			return false, fmt.Errorf("resolve tracking session: %w", err)
		}
		// the referenced session may already be closed, but it must be ours
		if ts == nil || ts.UserAppSessionID != uas.ID {
			return false, apierr.New(http.StatusBadRequest, "unknown_tracking_session", fmt.Errorf("tracking session does not belong to this session"))
		}
	}

	existing, err := s.feedback.GetBySection(dbc, uas.ID, req.ContentSection)
	if err != nil {
		return false, fmt.Errorf("get feedback: %w", err)
	}

	score, text := resolveFeedbackFields(existing, req)
	if score == nil && text == nil {
		return false, apierr.New(http.StatusBadRequest, "empty_feedback", fmt.Errorf("either score or text must be given"))
	}

	if existing == nil {
		fb := &types.UserFeedback{
			ID:                uuid.New(),
			UserAppSessionID:  uas.ID,
			TrackingSessionID: req.TrackingSession,
			ContentSection:    req.ContentSection,
			Score:             score,
			Text:              text,
		}
		if err := s.feedback.Create(dbc, fb); err != nil {
			return false, fmt.Errorf("create feedback: %w", err)
		}
		return true, nil
	}

	updates := map[string]any{}
	if req.Score.Set {
		updates["score"] = score
	}
	if req.Text.Set {
		updates["text"] = text
	}
	if req.TrackingSession != nil {
		updates["tracking_session_id"] = *req.TrackingSession
	}
	if len(updates) > 0 {
		if err := s.feedback.Update(dbc, existing.ID, updates); err != nil {
			return false, fmt.Errorf("update feedback: %w", err)
		}
	}
	return false, nil
}

func (s *feedbackService) List(dbc dbctx.Context, uas *types.UserApplicationSession) ([]FeedbackItem, error) {
	rows, err := s.feedback.ListByUserAppSession(dbc, uas.ID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	items := make([]FeedbackItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, FeedbackItem{
			ContentSection: row.ContentSection,
			Score:          row.Score,
			Text:           row.Text,
		})
	}
	return items, nil
}

// resolveFeedbackFields computes the score/text the row will hold after the
// submission: supplied fields win, omitted fields keep the prior value. An
// explicitly empty text is stored as the empty string, meaning the visitor
// cleared previous text without withdrawing the feedback row.
func resolveFeedbackFields(existing *types.UserFeedback, req FeedbackRequest) (*int16, *string) {
	var score *int16
	var text *string
	if existing != nil {
		score = existing.Score
		text = existing.Text
	}
	if req.Score.Set {
		score = nil
		if req.Score.Value != nil {
			v := int16(*req.Score.Value)
			score = &v
		}
	}
	if req.Text.Set {
		text = req.Text.Value
	}
	return score, text
}
