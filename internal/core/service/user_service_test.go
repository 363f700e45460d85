package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gatehouse/identity-system/internal/core/domain"
	"github.com/gatehouse/identity-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

// add inserts a user directly, bypassing validation. Test setup only.
func (r *stubUserRepo) add(u *domain.User) *domain.User {
	created, err := r.Create(context.Background(), u)
	if err != nil {
		panic(err)
	}
	return created
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
		if user.Phone != "" && existing.Phone == user.Phone {
			return nil, domain.ErrDuplicatePhone
		}
	}
	r.nextID++
	clone := *user
	clone.ID = fmt.Sprintf("user-%d", r.nextID)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) EmailInUse(_ context.Context, email, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.Email == email && user.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) PhoneInUse(_ context.Context, phone, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.Phone == phone && user.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) CountByRole(_ context.Context, roleID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, user := range r.byID {
		if user.RoleID == roleID {
			n++
		}
	}
	return n, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, user := range r.byID {
		clone := *user
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUserRepo) SetLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.LastLogin = at
	return nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func newTestUserService(t *testing.T) (*UserService, *stubUserRepo, *stubRoleRepo) {
	t.Helper()
	userRepo := newStubUserRepo()
	roleRepo := newStubRoleRepo()
	roleService := NewRoleService(roleRepo, userRepo, discardLogger)
	if err := roleService.EnsureSystemRoles(context.Background()); err != nil {
		t.Fatalf("ensure system roles: %v", err)
	}
	svc := NewUserService(userRepo, roleService, NewPasswordPolicy(), "US", discardLogger)
	return svc, userRepo, roleRepo
}

func validRegisterInput() ports.RegisterInput {
	return ports.RegisterInput{
		Email:    "jean.dupont@example.com",
		FullName: "Jean Dupont",
		Phone:    "+33612345678",
		Password: "Abc12345!",
	}
}

func mustRegister(t *testing.T, svc *UserService, input ports.RegisterInput) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), input)
	if err != nil {
		t.Fatalf("register %s: %v", input.Email, err)
	}
	return user
}

func TestUserService_Register_Success(t *testing.T) {
	svc, _, roleRepo := newTestUserService(t)

	user := mustRegister(t, svc, validRegisterInput())
	if user.ID == "" {
		t.Fatal("missing id")
	}
	if !user.IsActive {
		t.Fatal("new users start active")
	}
	if user.PasswordHash == "" || user.PasswordHash == "Abc12345!" {
		t.Fatal("password must be stored hashed")
	}
	defaultRole, _ := roleRepo.FindByName(context.Background(), domain.RoleUser)
	if user.RoleID != defaultRole.ID {
		t.Fatalf("role = %q, want default role %q", user.RoleID, defaultRole.ID)
	}
}

func TestUserService_Register_NormalizesEmailAndPhone(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	input := validRegisterInput()
	input.Email = "  Jean.Dupont@EXAMPLE.com "
	input.Phone = "+33 6 12 34 56 78"
	user := mustRegister(t, svc, input)

	if user.Email != "jean.dupont@example.com" {
		t.Fatalf("email = %q", user.Email)
	}
	if user.Phone != "+33612345678" {
		t.Fatalf("phone = %q, want E.164", user.Phone)
	}
}

func TestUserService_Register_NationalPhoneUsesDefaultRegion(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	input := validRegisterInput()
	input.Phone = "(212) 555-0123" // national format for the US default region
	user := mustRegister(t, svc, input)

	if user.Phone != "+12125550123" {
		t.Fatalf("phone = %q, want +12125550123", user.Phone)
	}
}

func TestUserService_Register_CollectsAllFieldErrors(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "not-an-email",
		FullName: "Jean",
		Phone:    "12",
		Password: "weak",
	})

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	for _, field := range []string{"email", "full_name", "phone", "password"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("missing field error for %q: %v", field, ve.Fields)
		}
	}
}

func TestUserService_Register_RejectsDisposableEmail(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	input := validRegisterInput()
	input.Email = "jean@mailinator.com"
	_, err := svc.Register(context.Background(), input)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if msg := ve.Fields["email"]; !strings.Contains(msg, "disposable") {
		t.Fatalf("email error = %q", msg)
	}
}

func TestUserService_Register_RejectsPasswordContainingName(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	input := validRegisterInput()
	input.Password = "Dupont1234!"
	_, err := svc.Register(context.Background(), input)

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := ve.Fields["password"]; !ok {
		t.Fatalf("missing password error: %v", ve.Fields)
	}
}

func TestUserService_Register_DuplicateEmailCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	mustRegister(t, svc, validRegisterInput())

	input := validRegisterInput()
	input.Email = "JEAN.DUPONT@example.com"
	input.Phone = "+33698765432"
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserService_Register_DuplicatePhone(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	mustRegister(t, svc, validRegisterInput())

	input := validRegisterInput()
	input.Email = "other@example.com"
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, domain.ErrDuplicatePhone) {
		t.Fatalf("err = %v, want ErrDuplicatePhone", err)
	}
}

func TestUserService_Register_ExplicitRole(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	input := validRegisterInput()
	input.RoleName = domain.RoleSuperuser
	user := mustRegister(t, svc, input)

	roleSvc := svc.roles
	role, err := roleSvc.Get(context.Background(), user.RoleID)
	if err != nil {
		t.Fatalf("get role: %v", err)
	}
	if role.Name != domain.RoleSuperuser {
		t.Fatalf("role = %q, want superuser", role.Name)
	}
}

func TestUserService_Register_UnknownRole(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	input := validRegisterInput()
	input.RoleName = "no_such_role"
	if _, err := svc.Register(context.Background(), input); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("err = %v, want ErrRoleNotFound", err)
	}
}

func TestUserService_VerifyCredentials_Success(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	mustRegister(t, svc, validRegisterInput())
	user, err := svc.VerifyCredentials(context.Background(), "Jean.Dupont@Example.com", "Abc12345!")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.Email != "jean.dupont@example.com" {
		t.Fatalf("email = %q", user.Email)
	}
}

func TestUserService_VerifyCredentials_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	mustRegister(t, svc, validRegisterInput())

	_, errUnknown := svc.VerifyCredentials(context.Background(), "nobody@example.com", "Abc12345!")
	_, errWrong := svc.VerifyCredentials(context.Background(), "jean.dupont@example.com", "Wrong123!")

	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) || !errors.Is(errWrong, domain.ErrInvalidCredentials) {
		t.Fatalf("errors = (%v, %v), both must be ErrInvalidCredentials", errUnknown, errWrong)
	}
}

func TestUserService_VerifyCredentials_InactiveAccount(t *testing.T) {
	svc, repo, _ := newTestUserService(t)

	user := mustRegister(t, svc, validRegisterInput())
	stored, _ := repo.FindByID(context.Background(), user.ID)
	stored.IsActive = false
	_ = repo.Update(context.Background(), stored)

	if _, err := svc.VerifyCredentials(context.Background(), user.Email, "Abc12345!"); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("err = %v, want ErrAccountInactive", err)
	}
}

func TestUserService_VerifyCredentials_WrongPasswordBeatsInactive(t *testing.T) {
	svc, repo, _ := newTestUserService(t)

	// A wrong password on an inactive account must not reveal the account
	// state: the password check runs first.
	user := mustRegister(t, svc, validRegisterInput())
	stored, _ := repo.FindByID(context.Background(), user.ID)
	stored.IsActive = false
	_ = repo.Update(context.Background(), stored)

	if _, err := svc.VerifyCredentials(context.Background(), user.Email, "Wrong123!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestUserService_UpdateProfile_PartialUpdate(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	user := mustRegister(t, svc, validRegisterInput())
	updated, err := svc.UpdateProfile(context.Background(), user.ID, ports.UpdateProfileInput{
		FullName: "Marie Curie",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FullName != "Marie Curie" {
		t.Fatalf("full name = %q", updated.FullName)
	}
	if updated.Email != user.Email || updated.Phone != user.Phone {
		t.Fatal("untouched fields must not change")
	}
}

func TestUserService_UpdateProfile_DuplicateEmailExcludesSelf(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	user := mustRegister(t, svc, validRegisterInput())

	// Re-submitting one's own email is not a conflict.
	if _, err := svc.UpdateProfile(context.Background(), user.ID, ports.UpdateProfileInput{Email: user.Email}); err != nil {
		t.Fatalf("update with own email: %v", err)
	}

	other := validRegisterInput()
	other.Email = "other@example.com"
	other.Phone = "+33698765432"
	mustRegister(t, svc, other)

	if _, err := svc.UpdateProfile(context.Background(), user.ID, ports.UpdateProfileInput{Email: "other@example.com"}); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	user := mustRegister(t, svc, validRegisterInput())

	if err := svc.ChangePassword(context.Background(), user.ID, "Wrong123!", "NewPass1!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong current password: err = %v", err)
	}

	var ve *domain.ValidationError
	if err := svc.ChangePassword(context.Background(), user.ID, "Abc12345!", "weak"); !errors.As(err, &ve) {
		t.Fatalf("weak new password: err = %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "Abc12345!", "NewPass1!"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.VerifyCredentials(context.Background(), user.Email, "NewPass1!"); err != nil {
		t.Fatalf("new password should verify: %v", err)
	}
	if _, err := svc.VerifyCredentials(context.Background(), user.Email, "Abc12345!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatal("old password should no longer verify")
	}
}

func TestUserService_Delete_SelfGuard(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	user := mustRegister(t, svc, validRegisterInput())
	if err := svc.Delete(context.Background(), user.ID, user.ID); !errors.Is(err, domain.ErrCannotDeleteSelf) {
		t.Fatalf("err = %v, want ErrCannotDeleteSelf", err)
	}
}

func TestUserService_Delete_LastSuperuserGuard(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	admin := validRegisterInput()
	admin.RoleName = domain.RoleSuperuser
	su := mustRegister(t, svc, admin)

	actor := validRegisterInput()
	actor.Email = "actor@example.com"
	actor.Phone = "+33698765432"
	acting := mustRegister(t, svc, actor)

	if err := svc.Delete(context.Background(), acting.ID, su.ID); !errors.Is(err, domain.ErrCannotDeleteLastSuperuser) {
		t.Fatalf("err = %v, want ErrCannotDeleteLastSuperuser", err)
	}
}

func TestUserService_Delete_SecondSuperuserDeletable(t *testing.T) {
	svc, repo, _ := newTestUserService(t)

	first := validRegisterInput()
	first.RoleName = domain.RoleSuperuser
	su1 := mustRegister(t, svc, first)

	second := validRegisterInput()
	second.Email = "second@example.com"
	second.Phone = "+33698765432"
	second.RoleName = domain.RoleSuperuser
	su2 := mustRegister(t, svc, second)

	if err := svc.Delete(context.Background(), su1.ID, su2.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), su2.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatal("user still present after delete")
	}
}

func TestUserService_Stats(t *testing.T) {
	svc, repo, _ := newTestUserService(t)

	mustRegister(t, svc, validRegisterInput())

	inactive := validRegisterInput()
	inactive.Email = "off@example.com"
	inactive.Phone = "+33698765432"
	u2 := mustRegister(t, svc, inactive)
	stored, _ := repo.FindByID(context.Background(), u2.ID)
	stored.IsActive = false
	_ = repo.Update(context.Background(), stored)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalUsers != 2 || stats.ActiveUsers != 1 || stats.InactiveUsers != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.UsersPerRole[domain.RoleUser] != 2 {
		t.Fatalf("users per role = %v", stats.UsersPerRole)
	}
}
