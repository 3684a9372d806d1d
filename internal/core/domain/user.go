package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

const minPasswordLen = 8

type (
	User struct {
		ID      string
		Name    string
		Email   string
		Phone   string
		Address string
		Avatar  string
	}

	NewAccount struct {
		Name     string
		Email    string
		Password string
		Phone    string
		Address  string
	}

	Credentials struct {
		Email    string
		Password string
	}

	Session struct {
		Token     string
		UserID    string
		CreatedAt time.Time
	}

	// A ProfileUpdate holds the fields to change, nil fields stay as is.
	ProfileUpdate struct {
		Name    *string
		Phone   *string
		Address *string
	}
)

func (a NewAccount) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidArgument)
	}
	if err := validateEmail(a.Email); err != nil {
		return err
	}
	if len(a.Password) < minPasswordLen {
		return fmt.Errorf(
			"%w: password shorter than %d characters",
			ErrInvalidArgument, minPasswordLen,
		)
	}
	return nil
}

func (c Credentials) Validate() error {
	if err := validateEmail(c.Email); err != nil {
		return err
	}
	if c.Password == "" {
		return fmt.Errorf("%w: empty password", ErrInvalidArgument)
	}
	return nil
}

func (u ProfileUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidArgument)
	}
	return nil
}

func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Phone == nil && u.Address == nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidArgument, email)
	}
	return nil
}
