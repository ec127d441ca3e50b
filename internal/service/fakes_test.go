package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// The fakes below emulate the Postgres-backed repositories in memory,
// including the missing-row contract (pgx.ErrNoRows) and the atomic
// comment+assign unit guarded by a mutex.

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

type fakeTicketRepo struct {
	mu       sync.Mutex
	seq      idSeq
	statuses *fakeStatusRepo
	tickets  map[string]*domain.Ticket
	comments map[string][]domain.Comment
	readers  map[string]map[string]bool
}

func newFakeTicketRepo(statuses *fakeStatusRepo) *fakeTicketRepo {
	return &fakeTicketRepo{
		statuses: statuses,
		tickets:  make(map[string]*domain.Ticket),
		comments: make(map[string][]domain.Comment),
		readers:  make(map[string]map[string]bool),
	}
}

// statusName mirrors the join the SQL repository performs.
func (r *fakeTicketRepo) statusName(statusID string) string {
	if r.statuses == nil {
		return ""
	}
	for _, status := range r.statuses.statuses {
		if status.ID == statusID {
			return status.Name
		}
	}
	return ""
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = r.seq.next("tck")
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, ticketID, statusID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.StatusID = statusID
	ticket.StatusName = r.statusName(statusID)
	ticket.UpdatedAt = time.Now()
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.VisibleTo != nil {
			visible := ticket.CreatorID == filter.VisibleTo.ID
			if area := filter.VisibleTo.HomeArea(); area != "" && ticket.AreaID != nil && *ticket.AreaID == area {
				visible = true
			}
			if !visible {
				continue
			}
		}
		if filter.StatusID != nil && ticket.StatusID != *filter.StatusID {
			continue
		}
		if filter.CreatorID != nil && ticket.CreatorID != *filter.CreatorID {
			continue
		}
		if filter.SearchTerm != nil && !strings.Contains(strings.ToLower(ticket.Title), strings.ToLower(*filter.SearchTerm)) {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (r *fakeTicketRepo) ListByTask(_ context.Context, taskID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.TaskID != nil && *ticket.TaskID == taskID {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListStale(_ context.Context, cutoff time.Time, excludeStatusID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.StatusID == excludeStatusID {
			continue
		}
		if ticket.UpdatedAt.Before(cutoff) {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) AddCommentWithAutoAssign(_ context.Context, comment *domain.Comment, candidateAssignee *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[comment.TicketID]
	if !ok {
		return false, pgx.ErrNoRows
	}
	assigned := false
	if candidateAssignee != nil && ticket.AssignedAccountID == nil {
		assignee := *candidateAssignee
		ticket.AssignedAccountID = &assignee
		assigned = true
	}
	comment.ID = r.seq.next("cmt")
	comment.CreatedAt = time.Now()
	r.comments[comment.TicketID] = append(r.comments[comment.TicketID], *comment)
	ticket.UpdatedAt = comment.CreatedAt
	return assigned, nil
}

func (r *fakeTicketRepo) ListComments(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Comment(nil), r.comments[ticketID]...), nil
}

func (r *fakeTicketRepo) MarkThreadRead(_ context.Context, ticketID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readers[ticketID] == nil {
		r.readers[ticketID] = make(map[string]bool)
	}
	r.readers[ticketID][accountID] = true
	return nil
}

func (r *fakeTicketRepo) ThreadReaders(_ context.Context, ticketID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for accountID := range r.readers[ticketID] {
		out = append(out, accountID)
	}
	return out, nil
}

type fakeStatusRepo struct {
	statuses []domain.TicketStatus
}

func newFakeStatusRepo(names ...string) *fakeStatusRepo {
	repo := &fakeStatusRepo{}
	for i, name := range names {
		repo.statuses = append(repo.statuses, domain.TicketStatus{ID: fmt.Sprintf("st-%d", i+1), Name: name})
	}
	return repo
}

func (r *fakeStatusRepo) GetByID(_ context.Context, id string) (*domain.TicketStatus, error) {
	for i := range r.statuses {
		if r.statuses[i].ID == id {
			return &r.statuses[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStatusRepo) GetByName(_ context.Context, name string) (*domain.TicketStatus, error) {
	for i := range r.statuses {
		if r.statuses[i].Name == name {
			return &r.statuses[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeStatusRepo) List(_ context.Context) ([]domain.TicketStatus, error) {
	return append([]domain.TicketStatus(nil), r.statuses...), nil
}

type fakeAreaRepo struct {
	mu    sync.Mutex
	seq   idSeq
	areas map[string]*domain.Area
}

func newFakeAreaRepo(names ...string) *fakeAreaRepo {
	repo := &fakeAreaRepo{areas: make(map[string]*domain.Area)}
	for _, name := range names {
		_ = repo.Create(context.Background(), &domain.Area{Name: name})
	}
	return repo
}

func (r *fakeAreaRepo) Create(_ context.Context, area *domain.Area) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	area.ID = r.seq.next("area")
	area.CreatedAt = time.Now()
	clone := *area
	r.areas[area.ID] = &clone
	return nil
}

func (r *fakeAreaRepo) GetByID(_ context.Context, id string) (*domain.Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	area, ok := r.areas[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *area
	return &clone, nil
}

func (r *fakeAreaRepo) GetByName(_ context.Context, name string) (*domain.Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, area := range r.areas {
		if strings.EqualFold(area.Name, name) {
			clone := *area
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAreaRepo) List(_ context.Context) ([]domain.Area, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Area
	for _, area := range r.areas {
		out = append(out, *area)
	}
	return out, nil
}

func (r *fakeAreaRepo) mustID(name string) string {
	area, err := r.GetByName(context.Background(), name)
	if err != nil {
		panic(err)
	}
	return area.ID
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	seq      idSeq
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account.ID = r.seq.next("acc")
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeAccountRepo) Update(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return pgx.ErrNoRows
	}
	account.UpdatedAt = time.Now()
	clone := *account
	r.accounts[account.ID] = &clone
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *account
	return &clone, nil
}

func (r *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if strings.EqualFold(account.Username, username) {
			clone := *account
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAccountRepo) List(_ context.Context) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Account
	for _, account := range r.accounts {
		out = append(out, *account)
	}
	return out, nil
}

func (r *fakeAccountRepo) ListActiveByArea(_ context.Context, areaID string) ([]domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Account
	for _, account := range r.accounts {
		if account.IsActive && account.AreaID != nil && *account.AreaID == areaID {
			out = append(out, *account)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) SetGroups(_ context.Context, accountID string, groups []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	if !ok {
		return pgx.ErrNoRows
	}
	account.Groups = append([]string(nil), groups...)
	return nil
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	seq   idSeq
	tasks map[string]*domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = r.seq.next("tsk")
	task.CreatedAt = time.Now()
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) List(_ context.Context) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Task
	for _, task := range r.tasks {
		out = append(out, *task)
	}
	return out, nil
}

type fakeAnnouncementRepo struct {
	mu            sync.Mutex
	seq           idSeq
	announcements []domain.Announcement
	reads         map[string]map[string]bool
}

func newFakeAnnouncementRepo() *fakeAnnouncementRepo {
	return &fakeAnnouncementRepo{reads: make(map[string]map[string]bool)}
}

func (r *fakeAnnouncementRepo) Create(_ context.Context, announcement *domain.Announcement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	announcement.ID = r.seq.next("avs")
	announcement.CreatedAt = time.Now()
	r.announcements = append([]domain.Announcement{*announcement}, r.announcements...)
	return nil
}

func (r *fakeAnnouncementRepo) ListNewestFirst(_ context.Context) ([]domain.Announcement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Announcement(nil), r.announcements...), nil
}

func (r *fakeAnnouncementRepo) MarkRead(_ context.Context, announcementID, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reads[announcementID] == nil {
		r.reads[announcementID] = make(map[string]bool)
	}
	r.reads[announcementID][accountID] = true
	return nil
}

func (r *fakeAnnouncementRepo) CountUnread(_ context.Context, accountID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, announcement := range r.announcements {
		if !r.reads[announcement.ID][accountID] {
			count++
		}
	}
	return count, nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	seq         idSeq
	attachments map[string][]domain.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string][]domain.Attachment)}
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	attachment.ID = r.seq.next("att")
	attachment.UploadedAt = time.Now()
	r.attachments[attachment.TicketID] = append(r.attachments[attachment.TicketID], *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Attachment(nil), r.attachments[ticketID]...), nil
}

func (r *fakeAttachmentRepo) ListByComment(_ context.Context, commentID string) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Attachment
	for _, list := range r.attachments {
		for _, att := range list {
			if att.CommentID != nil && *att.CommentID == commentID {
				out = append(out, att)
			}
		}
	}
	return out, nil
}

// memRecorder captures audit lines in memory, newest last.
type memRecorder struct {
	mu    sync.Mutex
	lines []string
}

func newMemRecorder() *memRecorder {
	return &memRecorder{}
}

func (r *memRecorder) Record(kind audit.Kind, actorUsername, details string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, audit.FormatLine(time.Now(), kind, actorUsername, details))
}

func (r *memRecorder) Recent(limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.lines...)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRecorder) Close() error { return nil }

func (r *memRecorder) withKind(kind audit.Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, line := range r.lines {
		if strings.Contains(line, string(kind)+":") {
			out = append(out, line)
		}
	}
	return out
}
