package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"
)

func TestRegisterLoginLogout(t *testing.T) {
	env := newServiceTestEnv(t)
	ctx := context.Background()

	user, session, err := env.users.Register(ctx, RegisterInput{
		Email:    " New.User@Example.com ",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "new.user@example.com" || user.DisplayName != "new.user" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if identity := env.sessions.Verify(ctx, session.Token); identity == nil || identity.UserID != user.ID {
		t.Fatalf("register should issue a valid session")
	}

	if _, _, err := env.users.Register(ctx, RegisterInput{Email: "new.user@example.com", Password: "password123"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
	if _, _, err := env.users.Login(ctx, LoginInput{Email: "new.user@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	_, loginSession, err := env.users.Login(ctx, LoginInput{Email: "NEW.USER@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := env.users.Logout(ctx, loginSession.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if env.sessions.Verify(ctx, loginSession.Token) != nil {
		t.Fatalf("session should be invalid after logout")
	}
	if err := env.users.Logout(ctx, loginSession.Token); err != nil {
		t.Fatalf("repeated logout should succeed: %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	env := newServiceTestEnv(t)
	_, _, err := env.users.Register(context.Background(), RegisterInput{Email: "weak@example.com", Password: "short"})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected weak password, got %v", err)
	}
	if _, _, err := env.users.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "password123"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got %v", err)
	}
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	env := newServiceTestEnv(t)
	ctx := context.Background()
	user, _, err := env.users.Register(ctx, RegisterInput{Email: "disabled@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled)

	if _, _, err := env.users.Login(ctx, LoginInput{Email: "disabled@example.com", Password: "password123"}); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
}

func TestLoginMergesGuestCart(t *testing.T) {
	env := newServiceTestEnv(t)
	ctx := context.Background()
	product := env.seedProduct(t, "SKU-MERGE-LOGIN", "25")
	user, _, err := env.users.Register(ctx, RegisterInput{Email: "merge@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	guestKey := NewGuestCartKey()
	guestOwner, _ := GuestCartOwner(guestKey)
	if err := env.carts.Add(ctx, guestOwner, product.ID, 2); err != nil {
		t.Fatalf("add guest cart failed: %v", err)
	}

	if _, _, err := env.users.Login(ctx, LoginInput{Email: "merge@example.com", Password: "password123", GuestCartKey: guestKey}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	view, err := env.carts.List(ctx, UserCartOwner(user.ID))
	if err != nil {
		t.Fatalf("list user cart failed: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("guest cart not merged: %+v", view.Items)
	}
	guestView, err := env.carts.List(ctx, guestOwner)
	if err != nil || len(guestView.Items) != 0 {
		t.Fatalf("guest cart should be empty after merge: %v", err)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	env := newServiceTestEnv(t)
	ctx := context.Background()
	user, first, err := env.users.Register(ctx, RegisterInput{Email: "rotate@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := env.users.ChangePassword(ctx, user.ID, "wrong-password", "newpassword456", ClientMeta{}); !errors.Is(err, ErrInvalidOldPassword) {
		t.Fatalf("expected invalid old password, got %v", err)
	}
	next, err := env.users.ChangePassword(ctx, user.ID, "password123", "newpassword456", ClientMeta{})
	if err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if env.sessions.Verify(ctx, first.Token) != nil {
		t.Fatalf("old session should be revoked")
	}
	if env.sessions.Verify(ctx, next.Token) == nil {
		t.Fatalf("new session should be valid")
	}
	if _, _, err := env.users.Login(ctx, LoginInput{Email: "rotate@example.com", Password: "newpassword456"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}
