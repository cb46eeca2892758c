package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmynk/messbill/internal/models"
	"github.com/mmynk/messbill/internal/storage"
)

type memMembers struct {
	byEmail map[string]*models.Member
}

func newMemMembers() *memMembers {
	return &memMembers{byEmail: map[string]*models.Member{}}
}

func (m *memMembers) CreateMember(_ context.Context, member *models.Member) error {
	if _, ok := m.byEmail[member.Email]; ok {
		return storage.ErrEmailExists
	}
	m.byEmail[member.Email] = member
	return nil
}

func (m *memMembers) GetMemberByEmail(_ context.Context, email string) (*models.Member, error) {
	member, ok := m.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return member, nil
}

func (m *memMembers) GetMemberByID(_ context.Context, id string) (*models.Member, error) {
	for _, member := range m.byEmail {
		if member.ID == id {
			return member, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memMembers) GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error) {
	out := map[string]*models.Member{}
	for _, id := range ids {
		if member, err := m.GetMemberByID(ctx, id); err == nil {
			out[id] = member
		}
	}
	return out, nil
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(newMemMembers())

	member, err := a.Register(ctx, Registration{
		Email:      " Asha@School.edu ",
		FullName:   "Asha Rao",
		Credential: "correct-horse",
		Roles:      []string{models.RoleTeacher},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if member.Email != "asha@school.edu" || member.PasswordHash == "correct-horse" {
		t.Errorf("member = %+v", member)
	}

	if _, err := a.Register(ctx, Registration{Email: "asha@school.edu", Credential: "another-pass"}); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate Register: err = %v, want ErrEmailExists", err)
	}
	if _, err := a.Register(ctx, Registration{Email: "x@school.edu", Credential: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak password: err = %v, want ErrWeakPassword", err)
	}

	if _, err := a.Authenticate(ctx, "ASHA@school.edu", "correct-horse"); err != nil {
		t.Errorf("Authenticate failed: %v", err)
	}
	if _, err := a.Authenticate(ctx, "asha@school.edu", "wrong-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@school.edu", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store := newMemMembers()
	a := NewPasswordAuthenticator(store)

	for range 2 {
		if err := a.EnsureAdmin(ctx, "admin@school.edu", "admin-password"); err != nil {
			t.Fatalf("EnsureAdmin failed: %v", err)
		}
	}
	if len(store.byEmail) != 1 {
		t.Fatalf("got %d members, want 1", len(store.byEmail))
	}
	if !store.byEmail["admin@school.edu"].HasRole(models.RoleAdmin) {
		t.Error("bootstrap member should be an admin")
	}
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	member := &models.Member{ID: "m1", Email: "asha@school.edu", Roles: []string{models.RoleTeacher}}

	token, err := m.Generate(member)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.MemberID != "m1" || len(claims.Roles) != 1 || claims.Roles[0] != models.RoleTeacher {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := NewJWTManager("other-secret", time.Hour).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: err = %v, want ErrInvalidToken", err)
	}
	expired, _ := NewJWTManager("test-secret", -time.Minute).Generate(member)
	if _, err := m.Validate(expired); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err = %v, want ErrInvalidToken", err)
	}
}
