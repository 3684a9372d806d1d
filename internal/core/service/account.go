package service

import (
	"context"
	"fmt"

	"github.com/niksmo/foodex/internal/core/domain"
)

// SignUp creates the account and opens the first session for it.
func (s Service) SignUp(
	ctx context.Context, a domain.NewAccount,
) (domain.User, domain.Session, error) {
	const op = "Service.SignUp"

	if err := ctx.Err(); err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.Validate(); err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.accounts.CreateAccount(ctx, a)
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.accounts.CreateSession(ctx, domain.Credentials{
		Email:    a.Email,
		Password: a.Password,
	})
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, session, nil
}

func (s Service) SignIn(
	ctx context.Context, c domain.Credentials,
) (domain.Session, error) {
	const op = "Service.SignIn"

	if err := ctx.Err(); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.Validate(); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.accounts.CreateSession(ctx, c)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

func (s Service) SignOut(ctx context.Context, token string) error {
	const op = "Service.SignOut"

	if err := s.checkToken(ctx, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.accounts.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s Service) CurrentUser(
	ctx context.Context, token string,
) (domain.User, error) {
	const op = "Service.CurrentUser"

	if err := s.checkToken(ctx, token); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.accounts.UserBySession(ctx, token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s Service) UpdateProfile(
	ctx context.Context, userID string, upd domain.ProfileUpdate,
) (domain.User, error) {
	const op = "Service.UpdateProfile"

	if err := s.checkCall(ctx, userID); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := upd.Validate(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.accounts.UpdateUser(ctx, userID, upd)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (Service) checkToken(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("%w: no session token", domain.ErrUnauthorized)
	}
	return nil
}
