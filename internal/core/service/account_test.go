package service_test

import (
	"testing"
	"time"

	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testAccount = domain.NewAccount{
		Name:     "John Doe",
		Email:    "john@example.com",
		Password: "secret-password",
		Phone:    "+1 555 0100",
		Address:  "1 Main St",
	}

	testUserValue = domain.User{
		ID:    testUser,
		Name:  "John Doe",
		Email: "john@example.com",
	}

	testSession = domain.Session{
		Token:     "token1",
		UserID:    testUser,
		CreatedAt: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}
)

func TestServiceSignUp(t *testing.T) {
	t.Run("Regular", func(t *testing.T) {
		accounts := new(MockAccounts)
		accounts.On("CreateAccount", mock.Anything, testAccount).
			Return(testUserValue, nil).Once()
		accounts.On("CreateSession", mock.Anything, domain.Credentials{
			Email: testAccount.Email, Password: testAccount.Password,
		}).Return(testSession, nil).Once()

		s := service.New(testPricing, nil, accounts, nil, nil, nil)

		u, session, err := s.SignUp(t.Context(), testAccount)
		require.NoError(t, err)
		assert.Equal(t, testUserValue, u)
		assert.Equal(t, testSession, session)
		accounts.AssertExpectations(t)
	})

	t.Run("Duplicate", func(t *testing.T) {
		accounts := new(MockAccounts)
		accounts.On("CreateAccount", mock.Anything, testAccount).
			Return(domain.User{}, domain.ErrAlreadyExists).Once()

		s := service.New(testPricing, nil, accounts, nil, nil, nil)

		_, _, err := s.SignUp(t.Context(), testAccount)
		require.ErrorIs(t, err, domain.ErrAlreadyExists)
		accounts.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		accounts := new(MockAccounts)
		s := service.New(testPricing, nil, accounts, nil, nil, nil)

		a := testAccount
		a.Email = "not-an-email"
		_, _, err := s.SignUp(t.Context(), a)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		accounts.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})
}

func TestServiceSessions(t *testing.T) {
	t.Run("SignIn", func(t *testing.T) {
		accounts := new(MockAccounts)
		creds := domain.Credentials{Email: "john@example.com", Password: "wrong"}
		accounts.On("CreateSession", mock.Anything, creds).
			Return(domain.Session{}, domain.ErrInvalidCredentials).Once()

		s := service.New(testPricing, nil, accounts, nil, nil, nil)

		_, err := s.SignIn(t.Context(), creds)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("SignOut", func(t *testing.T) {
		accounts := new(MockAccounts)
		accounts.On("DeleteSession", mock.Anything, "token1").Return(nil).Once()

		s := service.New(testPricing, nil, accounts, nil, nil, nil)

		require.NoError(t, s.SignOut(t.Context(), "token1"))
		assert.ErrorIs(t, s.SignOut(t.Context(), ""), domain.ErrUnauthorized)
		accounts.AssertExpectations(t)
	})

	t.Run("CurrentUser", func(t *testing.T) {
		accounts := new(MockAccounts)
		accounts.On("UserBySession", mock.Anything, "token1").
			Return(testUserValue, nil).Once()

		s := service.New(testPricing, nil, accounts, nil, nil, nil)

		u, err := s.CurrentUser(t.Context(), "token1")
		require.NoError(t, err)
		assert.Equal(t, testUser, u.ID)
	})
}

func TestServiceUpdateProfile(t *testing.T) {
	accounts := new(MockAccounts)
	phone := "+1 555 0199"
	upd := domain.ProfileUpdate{Phone: &phone}
	updated := testUserValue
	updated.Phone = phone
	accounts.On("UpdateUser", mock.Anything, testUser, upd).Return(updated, nil).Once()

	s := service.New(testPricing, nil, accounts, nil, nil, nil)

	u, err := s.UpdateProfile(t.Context(), testUser, upd)
	require.NoError(t, err)
	assert.Equal(t, phone, u.Phone)

	empty := " "
	_, err = s.UpdateProfile(t.Context(), testUser, domain.ProfileUpdate{Name: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
