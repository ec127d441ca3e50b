package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketService owns the ticket lifecycle: creation with the forced
// initial status, the comment thread with first-touch auto-assignment,
// free-form status transitions, read receipts, and the stale report.
type TicketService struct {
	tickets     repository.TicketRepository
	statuses    repository.StatusRepository
	areas       repository.AreaRepository
	attachments repository.AttachmentRepository
	policy      *policy.Evaluator
	recorder    audit.Recorder
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	StatusRepo     repository.StatusRepository
	AreaRepo       repository.AreaRepository
	AttachmentRepo repository.AttachmentRepository
	Policy         *policy.Evaluator
	Recorder       audit.Recorder
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		statuses:    deps.StatusRepo,
		areas:       deps.AreaRepo,
		attachments: deps.AttachmentRepo,
		policy:      deps.Policy,
		recorder:    deps.Recorder,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	AreaID      *string
	TaskID      *string
	Attachments []AttachmentInput
}

// AttachmentInput defines attachment metadata supplied at creation.
type AttachmentInput struct {
	StorageKey string
	FileName   string
}

// TicketListInput describes dashboard listing filters.
type TicketListInput struct {
	ViewAll    bool
	StatusID   *string
	CreatorID  *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// TicketDetail is a ticket with its thread and creation-time attachments.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Comments    []domain.Comment
	Attachments []domain.Attachment
}

// CreateTicket persists a ticket for the actor. The initial status is
// always the canonical "Pending" row resolved here; a client-supplied
// status is never accepted, and a missing row aborts the request.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Account, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", map[string]any{"field": "title"})
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", map[string]any{"field": "description"})
	}
	if input.AreaID != nil {
		if _, err := s.areas.GetByID(ctx, *input.AreaID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown area", map[string]any{"field": "area_id"})
			}
			return nil, apperrors.MapError(err)
		}
	}

	pending, err := s.statuses.GetByName(ctx, domain.StatusPending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConfigFatal("canonical status 'Pending' is not configured")
		}
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		Title:       title,
		Description: description,
		CreatorID:   actor.ID,
		StatusID:    pending.ID,
		StatusName:  pending.Name,
		AreaID:      input.AreaID,
		TaskID:      input.TaskID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, att := range input.Attachments {
		record := &domain.Attachment{
			TicketID:   ticket.ID,
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.recorder.Record(audit.KindTicketCreated, actor.Username,
		fmt.Sprintf("created ticket #%s '%s'", ticket.ID, ticket.Title))
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			AreaID: ticket.AreaID,
			Title:  ticket.Title,
		},
	})
	return ticket, nil
}

// ListTickets returns the dashboard view. The personal view covers
// tickets the actor created or that sit in its home area; the all-tickets
// view requires the view-all capability.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.Account, input TicketListInput) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		StatusID:   input.StatusID,
		SearchTerm: input.SearchTerm,
		Limit:      input.Limit,
		Offset:     input.Offset,
	}
	if input.ViewAll && s.policy.Resolve(actor).Has(policy.CapViewAllTickets) {
		filter.CreatorID = input.CreatorID
	} else {
		filter.VisibleTo = actor
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicketDetail fetches a ticket with its thread, enforcing visibility
// and marking the thread read for the viewer. The read receipt is an
// idempotent side effect and never gates the response.
func (s *TicketService) GetTicketDetail(ctx context.Context, actor *domain.Account, ticketID string) (*TicketDetail, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("not permitted")
	}

	if err := s.tickets.MarkThreadRead(ctx, ticket.ID, actor.ID); err != nil {
		s.logger.Warn("read receipt failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	comments, err := s.tickets.ListComments(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	byComment := make(map[string][]domain.Attachment)
	var ticketLevel []domain.Attachment
	for _, att := range attachments {
		if att.CommentID == nil {
			ticketLevel = append(ticketLevel, att)
			continue
		}
		byComment[*att.CommentID] = append(byComment[*att.CommentID], att)
	}
	for i := range comments {
		comments[i].Attachments = byComment[comments[i].ID]
	}

	return &TicketDetail{Ticket: ticket, Comments: comments, Attachments: ticketLevel}, nil
}

// PostComment appends to the thread. When the ticket is unassigned and
// the commenting actor belongs to its assigned area, the comment claims
// the ticket for the actor inside the same transaction; of two racing
// claims only the first committer wins, and the assignment, once set, is
// never cleared here.
func (s *TicketService) PostComment(ctx context.Context, actor *domain.Account, ticketID, body string, attachments []AttachmentInput) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", map[string]any{"field": "body"})
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("not permitted")
	}

	var candidate *string
	if ticket.AssignedAccountID == nil {
		if area := actor.HomeArea(); area != "" && ticket.AreaID != nil && *ticket.AreaID == area {
			candidate = &actor.ID
		}
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Body:     body,
	}
	for _, att := range attachments {
		comment.Attachments = append(comment.Attachments, domain.Attachment{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
		})
	}

	assigned, err := s.tickets.AddCommentWithAutoAssign(ctx, comment, candidate)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if assigned {
		s.recorder.Record(audit.KindTicketAssigned, actor.Username,
			fmt.Sprintf("was assigned ticket #%s by first comment", ticket.ID))
		s.publish(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload:  events.TicketAssignedPayload{AssignedAccountID: actor.ID},
		})
	}
	s.recorder.Record(audit.KindCommentAdded, actor.Username,
		fmt.Sprintf("commented on ticket #%s", ticket.ID))
	s.publish(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// ChangeStatus moves the ticket to the named status. Every pair of named
// states is legal; the transition is always audited with both names.
func (s *TicketService) ChangeStatus(ctx context.Context, actor *domain.Account, ticketID, newStatusName string) (oldName, newName string, err error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return "", "", err
	}
	if !s.policy.CanViewTicket(actor, ticket) {
		return "", "", apperrors.NewForbidden("not permitted")
	}
	next, err := s.statuses.GetByName(ctx, strings.TrimSpace(newStatusName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", apperrors.NewValidationError("unknown status", map[string]any{"field": "status"})
		}
		return "", "", apperrors.MapError(err)
	}

	oldName = ticket.StatusName
	if err := s.tickets.UpdateStatus(ctx, ticket.ID, next.ID); err != nil {
		return "", "", apperrors.MapError(err)
	}

	s.recorder.Record(audit.KindStatusChanged, actor.Username,
		fmt.Sprintf("changed status of ticket #%s from '%s' to '%s'", ticket.ID, oldName, next.Name))
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldName,
			NewStatus: next.Name,
			Title:     ticket.Title,
			AreaID:    ticket.AreaID,
		},
	})
	return oldName, next.Name, nil
}

// ListStaleTickets returns non-finalized tickets untouched since cutoff.
// Read-only and gated on the reports capability.
func (s *TicketService) ListStaleTickets(ctx context.Context, actor *domain.Account, cutoff time.Time) ([]domain.Ticket, error) {
	if !s.policy.CanSeeReports(actor) {
		return nil, apperrors.NewForbidden("not permitted")
	}
	finalized, err := s.statuses.GetByName(ctx, domain.StatusFinalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConfigFatal("canonical status 'Finalized' is not configured")
		}
		return nil, apperrors.MapError(err)
	}
	tickets, err := s.tickets.ListStale(ctx, cutoff, finalized.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListStatuses exposes the open status set for boundary dropdowns.
func (s *TicketService) ListStatuses(ctx context.Context) ([]domain.TicketStatus, error) {
	statuses, err := s.statuses.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return statuses, nil
}

func (s *TicketService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
