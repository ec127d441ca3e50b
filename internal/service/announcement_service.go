package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AnnouncementService handles staff broadcasts and their read-set.
type AnnouncementService struct {
	announcements repository.AnnouncementRepository
	policy        *policy.Evaluator
	recorder      audit.Recorder
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// AnnouncementDependencies bundles collaborators.
type AnnouncementDependencies struct {
	AnnouncementRepo repository.AnnouncementRepository
	Policy           *policy.Evaluator
	Recorder         audit.Recorder
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(deps AnnouncementDependencies) *AnnouncementService {
	return &AnnouncementService{
		announcements: deps.AnnouncementRepo,
		policy:        deps.Policy,
		recorder:      deps.Recorder,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}
}

// Create publishes a broadcast; requires the broadcast capability.
func (s *AnnouncementService) Create(ctx context.Context, actor *domain.Account, title, body string) (*domain.Announcement, error) {
	if !s.policy.CanBroadcast(actor) {
		return nil, apperrors.NewForbidden("not permitted")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", map[string]any{"field": "title"})
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", map[string]any{"field": "body"})
	}

	announcement := &domain.Announcement{Title: title, Body: body, AuthorID: actor.ID}
	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recorder.Record(audit.KindAnnouncementCreated, actor.Username,
		fmt.Sprintf("created announcement '%s'", announcement.Title))
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventAnnouncementCreated,
			ActorID:   actor.ID,
			Timestamp: time.Now(),
			Payload: events.AnnouncementCreatedPayload{
				AnnouncementID: announcement.ID,
				Title:          announcement.Title,
			},
		})
	}
	return announcement, nil
}

// List returns announcements newest-first and marks each as read by the
// viewer. The mark is an idempotent set-insert; a failed mark is logged
// and never blocks the listing.
func (s *AnnouncementService) List(ctx context.Context, actor *domain.Account) ([]domain.Announcement, error) {
	announcements, err := s.announcements.ListNewestFirst(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range announcements {
		if err := s.announcements.MarkRead(ctx, announcements[i].ID, actor.ID); err != nil {
			s.logger.Warn("announcement read mark failed",
				zap.String("announcement_id", announcements[i].ID), zap.Error(err))
		}
	}
	return announcements, nil
}

// UnreadCount returns how many announcements the account has not read.
func (s *AnnouncementService) UnreadCount(ctx context.Context, actor *domain.Account) (int, error) {
	count, err := s.announcements.CountUnread(ctx, actor.ID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}
