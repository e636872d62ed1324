package user

import (
	"context"
	"errors"
	"testing"
)

type fakeUserRepo struct {
	byEmail map[string]*User
	byID    map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*User), byID: make(map[string]*User)}
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, u *User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailExists
	}
	copied := *u
	r.byEmail[u.Email] = &copied
	r.byID[u.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	created, err := svc.Register(context.Background(), " Rokon@Example.com ", "Rokon", "secret-pass")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Email != "rokon@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}
	if created.PasswordHash == "secret-pass" || created.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	logged, err := svc.Login(context.Background(), "rokon@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}
	if logged.ID != created.ID {
		t.Fatalf("expected same user, got %q vs %q", logged.ID, created.ID)
	}
}

func TestRegisterNameFallsBackToEmailLocalPart(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	created, err := svc.Register(context.Background(), "rokon@example.com", "  ", "secret-pass")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Name != "rokon" {
		t.Fatalf("expected fallback name, got %q", created.Name)
	}
}

func TestRegisterValidation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	if _, err := svc.Register(context.Background(), "not-an-email", "X", "secret-pass"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "a@b.com", "X", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	if _, err := svc.Register(context.Background(), "a@b.com", "X", "secret-pass"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "A@B.com", "Y", "secret-pass"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	if _, err := svc.Login(context.Background(), "ghost@b.com", "whatever-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	if _, err := svc.Register(context.Background(), "a@b.com", "X", "secret-pass"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@b.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
}
