package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"barbook/pkg/config"
	apperrors "barbook/pkg/errors"
	"barbook/pkg/logger"
	"barbook/pkg/model"

	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	byPhone    map[string]*model.User
	byUsername map[string]*model.User
	inserted   []*model.User
	findErr    error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byPhone:    map[string]*model.User{},
		byUsername: map[string]*model.User{},
	}
}

func (m *mockUserRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if user, ok := m.byPhone[phone]; ok {
		return user, nil
	}
	return nil, ErrNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if user, ok := m.byUsername[username]; ok {
		return user, nil
	}
	return nil, ErrNotFound
}

func (m *mockUserRepository) Insert(ctx context.Context, user *model.User) error {
	user.ID = "66aaf000000000000000000" + string(rune('1'+len(m.inserted)))
	m.inserted = append(m.inserted, user)
	m.byPhone[user.Phone] = user
	m.byUsername[user.Username] = user
	return nil
}

type mockAccountDirectory struct {
	accounts map[string]*model.Account
}

func (m *mockAccountDirectory) LookupByUsername(ctx context.Context, username string) (*model.Account, error) {
	if account, ok := m.accounts[username]; ok {
		return account, nil
	}
	return nil, ErrNotFound
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}),
	}
}

func newTestResolver(users *mockUserRepository, directory *mockAccountDirectory) *resolver {
	if directory == nil {
		directory = &mockAccountDirectory{accounts: map[string]*model.Account{}}
	}
	r := NewResolver(users, directory, testConfig()).(*resolver)
	r.now = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 123_000_000, time.UTC) }
	return r
}

func TestUsernameFromName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Jan Kowalski", "jan-kowalski"},
		{"Łukasz Żółć", "lukasz-zolc"},
		{"  Anna   Maria  Nowak ", "anna-maria-nowak"},
		{"Grzegorz Brzęczyszczykiewicz", "grzegorz-brzeczyszczykiewicz"},
		{"o'Brien?!", "obrien"},
		{"José García", "jose-garcia"},
		{"123", "123"},
		{"...", ""},
	}

	for _, tt := range tests {
		if got := usernameFromName(tt.name); got != tt.want {
			t.Errorf("usernameFromName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolveOrCreateClient_Idempotent(t *testing.T) {
	users := newMockUserRepository()
	r := newTestResolver(users, nil)

	first, err := r.ResolveOrCreateClient(context.Background(), "Jan Kowalski", "+48123456789")
	if err != nil {
		t.Fatalf("first resolution returned error: %v", err)
	}
	second, err := r.ResolveOrCreateClient(context.Background(), "Jan Kowalski", "+48123456789")
	if err != nil {
		t.Fatalf("second resolution returned error: %v", err)
	}

	if first != second {
		t.Errorf("resolutions returned different user IDs: %q vs %q", first, second)
	}
	if len(users.inserted) != 1 {
		t.Errorf("created %d user records, want exactly 1", len(users.inserted))
	}
}

func TestResolveOrCreateClient_NameMismatchIsNotAnError(t *testing.T) {
	users := newMockUserRepository()
	r := newTestResolver(users, nil)

	first, err := r.ResolveOrCreateClient(context.Background(), "Jan Kowalski", "+48123456789")
	if err != nil {
		t.Fatalf("resolution returned error: %v", err)
	}

	// Same phone, different booking name: the stored account wins.
	second, err := r.ResolveOrCreateClient(context.Background(), "Janek K.", "+48123456789")
	if err != nil {
		t.Fatalf("resolution with different name returned error: %v", err)
	}
	if first != second {
		t.Errorf("phone lookup ignored: %q vs %q", first, second)
	}
	if len(users.inserted) != 1 {
		t.Errorf("created %d user records, want 1", len(users.inserted))
	}
}

func TestResolveOrCreateClient_ProvisionedAccountShape(t *testing.T) {
	users := newMockUserRepository()
	r := newTestResolver(users, nil)

	if _, err := r.ResolveOrCreateClient(context.Background(), "Łukasz Żółć", "+48600700800"); err != nil {
		t.Fatalf("resolution returned error: %v", err)
	}

	user := users.inserted[0]
	if user.Username != "lukasz-zolc" {
		t.Errorf("username = %q, want lukasz-zolc", user.Username)
	}
	if user.Role != model.RoleClient {
		t.Errorf("role = %q, want %q", user.Role, model.RoleClient)
	}
	if !user.IsActive {
		t.Error("provisioned account is not active")
	}
	if user.Email != "lukasz-zolc@barbershop.com" {
		t.Errorf("email = %q, want derived placeholder", user.Email)
	}
	if !strings.HasPrefix(user.PasswordHash, "$2a$") && !strings.HasPrefix(user.PasswordHash, "$2b$") {
		t.Errorf("password hash %q is not a bcrypt hash", user.PasswordHash)
	}
	// The throwaway password must not be guessable from the inputs.
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("lukasz-zolc")) == nil {
		t.Error("temporary password derived from username")
	}
}

func TestResolveOrCreateClient_UsernameCollision(t *testing.T) {
	users := newMockUserRepository()
	users.byUsername["jan-kowalski"] = &model.User{ID: "66aaf0000000000000000009", Username: "jan-kowalski"}
	r := newTestResolver(users, nil)

	if _, err := r.ResolveOrCreateClient(context.Background(), "Jan Kowalski", "+48123456789"); err != nil {
		t.Fatalf("resolution returned error: %v", err)
	}

	got := users.inserted[0].Username
	if !strings.HasPrefix(got, "jan-kowalski-") || len(got) != len("jan-kowalski-")+4 {
		t.Errorf("collision username = %q, want jan-kowalski-<4 digits>", got)
	}
}

func TestResolveOrCreateClient_StoreFailure(t *testing.T) {
	users := newMockUserRepository()
	users.findErr = errors.New("connection reset")
	r := newTestResolver(users, nil)

	_, err := r.ResolveOrCreateClient(context.Background(), "Jan Kowalski", "+48123456789")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeStoreUnavailable {
		t.Fatalf("error = %v, want STORE_UNAVAILABLE", err)
	}
}

func TestLookupAccount(t *testing.T) {
	directory := &mockAccountDirectory{accounts: map[string]*model.Account{
		"jakub": {Kind: model.AccountBarber, ID: "507f1f77bcf86cd799439011", Username: "jakub"},
	}}
	r := newTestResolver(newMockUserRepository(), directory)

	account, err := r.LookupAccount(context.Background(), "jakub")
	if err != nil {
		t.Fatalf("LookupAccount() returned error: %v", err)
	}
	if account.Kind != model.AccountBarber {
		t.Errorf("account kind = %q, want %q", account.Kind, model.AccountBarber)
	}

	_, err = r.LookupAccount(context.Background(), "nobody")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("LookupAccount(nobody) error = %v, want NOT_FOUND", err)
	}
}
