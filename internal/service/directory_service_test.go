package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

type directoryFixture struct {
	accounts *fakeAccountRepo
	areas    *fakeAreaRepo
	recorder *memRecorder
	service  *service.DirectoryService
}

func newDirectoryFixture(t *testing.T) *directoryFixture {
	t.Helper()
	f := &directoryFixture{
		accounts: newFakeAccountRepo(),
		areas:    newFakeAreaRepo("IT"),
		recorder: newMemRecorder(),
	}
	f.service = service.NewDirectoryService(service.DirectoryDependencies{
		AccountRepo: f.accounts,
		AreaRepo:    f.areas,
		Policy:      policy.NewEvaluator(),
		Recorder:    f.recorder,
		BcryptCost:  bcrypt.MinCost,
	})
	return f
}

func staffAccount(id, username string) *domain.Account {
	return &domain.Account{ID: id, Username: username, IsStaff: true, IsActive: true}
}

func TestCreateAccountLowercasesUsername(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()
	admin := staffAccount("acc-admin", "admin")
	itArea := f.areas.mustID("IT")
	phone := "4411"

	account, err := f.service.CreateAccount(ctx, admin, service.AccountCreateInput{
		Username:      "  DanaV  ",
		Password:      "hunter2",
		AreaID:        &itArea,
		Groups:        []string{"Informe"},
		InternalPhone: &phone,
	})
	require.NoError(t, err)
	require.Equal(t, "danav", account.Username)
	require.Equal(t, itArea, *account.AreaID)
	require.Equal(t, "4411", *account.InternalPhone)
	require.NoError(t, auth.ComparePassword(account.PasswordHash, "hunter2"))
	require.Len(t, f.recorder.withKind(audit.KindAccountCreated), 1)

	// Duplicate usernames collide case-insensitively.
	_, err = f.service.CreateAccount(ctx, admin, service.AccountCreateInput{
		Username: "DANAV",
		Password: "whatever",
	})
	require.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestCreateAccountRequiresStaff(t *testing.T) {
	f := newDirectoryFixture(t)
	nobody := &domain.Account{ID: "acc-1", Username: "nobody", IsActive: true}
	_, err := f.service.CreateAccount(context.Background(), nobody, service.AccountCreateInput{
		Username: "x", Password: "y",
	})
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestAdminCannotModifySelf(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()
	admin := staffAccount("", "admin")
	require.NoError(t, f.accounts.Create(ctx, admin))

	_, err := f.service.ToggleActive(ctx, admin, admin.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	_, err = f.service.ChangeUserRole(ctx, admin, admin.ID, false)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	err = f.service.AdminSetPassword(ctx, admin, admin.ID, "newpass")
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestToggleActiveFlipsFlag(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()
	admin := staffAccount("", "admin")
	require.NoError(t, f.accounts.Create(ctx, admin))
	target := &domain.Account{Username: "dana", IsActive: true}
	require.NoError(t, f.accounts.Create(ctx, target))

	updated, err := f.service.ToggleActive(ctx, admin, target.ID)
	require.NoError(t, err)
	require.False(t, updated.IsActive)

	updated, err = f.service.ToggleActive(ctx, admin, target.ID)
	require.NoError(t, err)
	require.True(t, updated.IsActive)

	require.Len(t, f.recorder.withKind(audit.KindAccountToggled), 2)
}

func TestChangeUserAreaAndGroups(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()
	admin := staffAccount("", "admin")
	require.NoError(t, f.accounts.Create(ctx, admin))
	target := &domain.Account{Username: "dana", IsActive: true}
	require.NoError(t, f.accounts.Create(ctx, target))
	itArea := f.areas.mustID("IT")

	updated, err := f.service.ChangeUserArea(ctx, admin, target.ID, &itArea)
	require.NoError(t, err)
	require.Equal(t, itArea, *updated.AreaID)

	missing := "area-missing"
	_, err = f.service.ChangeUserArea(ctx, admin, target.ID, &missing)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	updated, err = f.service.ChangeUserArea(ctx, admin, target.ID, nil)
	require.NoError(t, err)
	require.Nil(t, updated.AreaID)

	updated, err = f.service.ChangeUserGroups(ctx, admin, target.ID, []string{"Informe", "Enviar Avisos"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Informe", "Enviar Avisos"}, updated.Groups)
}

func TestChangeOwnPasswordChecksOldCredential(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()

	hash, err := auth.HashPassword("original", bcrypt.MinCost)
	require.NoError(t, err)
	actor := &domain.Account{Username: "dana", IsActive: true, PasswordHash: hash}
	require.NoError(t, f.accounts.Create(ctx, actor))

	err = f.service.ChangeOwnPassword(ctx, actor, "wrong", "next")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	require.NoError(t, f.service.ChangeOwnPassword(ctx, actor, "original", "next"))
	stored, err := f.accounts.GetByID(ctx, actor.ID)
	require.NoError(t, err)
	require.NoError(t, auth.ComparePassword(stored.PasswordHash, "next"))
}

func TestCreateAreaUniqueCaseInsensitive(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()
	admin := staffAccount("acc-admin", "admin")

	area, err := f.service.CreateArea(ctx, admin, "  Facilities  ")
	require.NoError(t, err)
	require.Equal(t, "Facilities", area.Name)

	_, err = f.service.CreateArea(ctx, admin, "facilities")
	require.True(t, apperrors.IsCode(err, "CONFLICT"))

	_, err = f.service.CreateArea(ctx, admin, "  ")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateOwnProfilePhone(t *testing.T) {
	f := newDirectoryFixture(t)
	ctx := context.Background()
	actor := &domain.Account{Username: "dana", IsActive: true}
	require.NoError(t, f.accounts.Create(ctx, actor))

	phone := "4411"
	updated, err := f.service.UpdateOwnProfile(ctx, actor, &phone)
	require.NoError(t, err)
	require.Equal(t, "4411", *updated.InternalPhone)

	updated, err = f.service.UpdateOwnProfile(ctx, actor, nil)
	require.NoError(t, err)
	require.Nil(t, updated.InternalPhone)
}
