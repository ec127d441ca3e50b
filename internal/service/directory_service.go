package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// DirectoryService administers accounts, areas, and group membership.
// Every mutation is staff-gated and audit-logged, and none may target the
// acting account itself.
type DirectoryService struct {
	accounts   repository.AccountRepository
	areas      repository.AreaRepository
	policy     *policy.Evaluator
	recorder   audit.Recorder
	bcryptCost int
}

// DirectoryDependencies bundles collaborators for the directory service.
type DirectoryDependencies struct {
	AccountRepo repository.AccountRepository
	AreaRepo    repository.AreaRepository
	Policy      *policy.Evaluator
	Recorder    audit.Recorder
	BcryptCost  int
}

// NewDirectoryService constructs the service.
func NewDirectoryService(deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		accounts:   deps.AccountRepo,
		areas:      deps.AreaRepo,
		policy:     deps.Policy,
		recorder:   deps.Recorder,
		bcryptCost: deps.BcryptCost,
	}
}

// AccountCreateInput describes account creation payload.
type AccountCreateInput struct {
	Username      string
	Password      string
	IsStaff       bool
	AreaID        *string
	Groups        []string
	InternalPhone *string
}

// CreateAccount registers a directory member. The username is lowercased,
// and the profile fields land in the same insert as the account row, so a
// profile always exists from creation on.
func (s *DirectoryService) CreateAccount(ctx context.Context, actor *domain.Account, input AccountCreateInput) (*domain.Account, error) {
	if actor == nil || !actor.IsStaff {
		return nil, apperrors.NewForbidden("not permitted")
	}
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if username == "" {
		return nil, apperrors.NewValidationError("username required", map[string]any{"field": "username"})
	}
	if input.Password == "" {
		return nil, apperrors.NewValidationError("password required", map[string]any{"field": "password"})
	}
	if existing, err := s.accounts.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if input.AreaID != nil {
		if _, err := s.areas.GetByID(ctx, *input.AreaID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown area", map[string]any{"field": "area_id"})
			}
			return nil, apperrors.MapError(err)
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	account := &domain.Account{
		Username:      username,
		PasswordHash:  hash,
		IsStaff:       input.IsStaff,
		IsActive:      true,
		AreaID:        input.AreaID,
		InternalPhone: input.InternalPhone,
		Groups:        input.Groups,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recorder.Record(audit.KindAccountCreated, actor.Username,
		fmt.Sprintf("created account '%s'", account.Username))
	return account, nil
}

// ListAccounts returns the full directory, staff only.
func (s *DirectoryService) ListAccounts(ctx context.Context, actor *domain.Account) ([]domain.Account, error) {
	if actor == nil || !actor.IsStaff {
		return nil, apperrors.NewForbidden("not permitted")
	}
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return accounts, nil
}

// ToggleActive flips the target's active flag.
func (s *DirectoryService) ToggleActive(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	target, err := s.modifiableTarget(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	target.IsActive = !target.IsActive
	if err := s.accounts.Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}
	state := "disabled"
	if target.IsActive {
		state = "enabled"
	}
	s.recorder.Record(audit.KindAccountToggled, actor.Username,
		fmt.Sprintf("%s account '%s'", state, target.Username))
	return target, nil
}

// ChangeUserArea moves the target to another home area (or none).
func (s *DirectoryService) ChangeUserArea(ctx context.Context, actor *domain.Account, targetID string, areaID *string) (*domain.Account, error) {
	target, err := s.modifiableTarget(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	areaName := "none"
	if areaID != nil {
		area, err := s.areas.GetByID(ctx, *areaID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown area", map[string]any{"field": "area_id"})
			}
			return nil, apperrors.MapError(err)
		}
		areaName = area.Name
	}
	target.AreaID = areaID
	if err := s.accounts.Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recorder.Record(audit.KindAreaChanged, actor.Username,
		fmt.Sprintf("changed area of '%s' to '%s'", target.Username, areaName))
	return target, nil
}

// ChangeUserGroups replaces the target's group memberships.
func (s *DirectoryService) ChangeUserGroups(ctx context.Context, actor *domain.Account, targetID string, groups []string) (*domain.Account, error) {
	target, err := s.modifiableTarget(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.SetGroups(ctx, target.ID, groups); err != nil {
		return nil, apperrors.MapError(err)
	}
	target.Groups = groups
	s.recorder.Record(audit.KindGroupsChanged, actor.Username,
		fmt.Sprintf("set groups of '%s' to [%s]", target.Username, strings.Join(groups, ", ")))
	return target, nil
}

// ChangeUserRole flips the target's staff flag.
func (s *DirectoryService) ChangeUserRole(ctx context.Context, actor *domain.Account, targetID string, isStaff bool) (*domain.Account, error) {
	target, err := s.modifiableTarget(ctx, actor, targetID)
	if err != nil {
		return nil, err
	}
	target.IsStaff = isStaff
	if err := s.accounts.Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recorder.Record(audit.KindGroupsChanged, actor.Username,
		fmt.Sprintf("set staff flag of '%s' to %t", target.Username, isStaff))
	return target, nil
}

// AdminSetPassword replaces the target's credential.
func (s *DirectoryService) AdminSetPassword(ctx context.Context, actor *domain.Account, targetID, newPassword string) error {
	target, err := s.modifiableTarget(ctx, actor, targetID)
	if err != nil {
		return err
	}
	if newPassword == "" {
		return apperrors.NewValidationError("password required", map[string]any{"field": "password"})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	target.PasswordHash = hash
	if err := s.accounts.Update(ctx, target); err != nil {
		return apperrors.MapError(err)
	}
	s.recorder.Record(audit.KindPasswordChanged, actor.Username,
		fmt.Sprintf("set a new password for '%s'", target.Username))
	return nil
}

// UpdateOwnProfile lets an account edit its own internal phone extension.
func (s *DirectoryService) UpdateOwnProfile(ctx context.Context, actor *domain.Account, internalPhone *string) (*domain.Account, error) {
	actor.InternalPhone = internalPhone
	if err := s.accounts.Update(ctx, actor); err != nil {
		return nil, apperrors.MapError(err)
	}
	return actor, nil
}

// ChangeOwnPassword verifies the old credential and replaces it.
func (s *DirectoryService) ChangeOwnPassword(ctx context.Context, actor *domain.Account, oldPassword, newPassword string) error {
	if err := auth.ComparePassword(actor.PasswordHash, oldPassword); err != nil {
		return apperrors.NewValidationError("current password incorrect", map[string]any{"field": "old_password"})
	}
	if newPassword == "" {
		return apperrors.NewValidationError("password required", map[string]any{"field": "new_password"})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	actor.PasswordHash = hash
	if err := s.accounts.Update(ctx, actor); err != nil {
		return apperrors.MapError(err)
	}
	s.recorder.Record(audit.KindPasswordChanged, actor.Username, "changed own password")
	return nil
}

// CreateArea registers an area; the name is unique case-insensitively.
func (s *DirectoryService) CreateArea(ctx context.Context, actor *domain.Account, name string) (*domain.Area, error) {
	if actor == nil || !actor.IsStaff {
		return nil, apperrors.NewForbidden("not permitted")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", map[string]any{"field": "name"})
	}
	if existing, err := s.areas.GetByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("area already exists", map[string]any{"name": name})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	area := &domain.Area{Name: name}
	if err := s.areas.Create(ctx, area); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recorder.Record(audit.KindAreaCreated, actor.Username,
		fmt.Sprintf("created area '%s'", area.Name))
	return area, nil
}

// ListAreas returns all areas ordered by name.
func (s *DirectoryService) ListAreas(ctx context.Context) ([]domain.Area, error) {
	areas, err := s.areas.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return areas, nil
}

// modifiableTarget enforces the staff gate and the self-modification
// guard, then loads the target. A staff actor editing itself through this
// path is denied regardless of flags.
func (s *DirectoryService) modifiableTarget(ctx context.Context, actor *domain.Account, targetID string) (*domain.Account, error) {
	if !s.policy.CanModifyAccount(actor, targetID) {
		return nil, apperrors.NewForbidden("not permitted")
	}
	target, err := s.accounts.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", map[string]any{"account_id": targetID})
		}
		return nil, apperrors.MapError(err)
	}
	return target, nil
}
