package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/niksmo/foodex/internal/core/domain"
	"github.com/niksmo/foodex/internal/core/port"
	"golang.org/x/crypto/bcrypt"
)

var _ port.Accounts = (*AccountsRepository)(nil)

const userColumns = `u.user_id, u.name, u.email, u.phone, u.address, u.avatar`

type AccountsRepository struct {
	sqldb         sqldb
	avatarBaseURL string
	now           func() time.Time
}

// NewAccountsRepository returns the accounts repository.
//
// Avatars are initials images served by avatarBaseURL,
// the user name goes into the "name" query parameter.
func NewAccountsRepository(sqldb sqldb, avatarBaseURL string) AccountsRepository {
	return AccountsRepository{
		sqldb:         sqldb,
		avatarBaseURL: avatarBaseURL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (r AccountsRepository) CreateAccount(
	ctx context.Context, a domain.NewAccount,
) (domain.User, error) {
	const op = "AccountsRepository.CreateAccount"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword(
		[]byte(a.Password), bcrypt.DefaultCost,
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	u := domain.User{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(a.Name),
		Email:   normalizeEmail(a.Email),
		Phone:   a.Phone,
		Address: a.Address,
	}
	u.Avatar = r.avatarURL(u.Name)

	query := `
		INSERT INTO users (
			user_id, name, email, password_hash, phone, address, avatar
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err = r.sqldb.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, hash, u.Phone, u.Address, u.Avatar,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, fmt.Errorf(
				"%s: email %q: %w", op, u.Email, domain.ErrAlreadyExists,
			)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account created", "userID", u.ID)
	return u, nil
}

// CreateSession checks the credentials and opens a new session,
// previous sessions of the user are closed.
func (r AccountsRepository) CreateSession(
	ctx context.Context, c domain.Credentials,
) (_ domain.Session, createErr error) {
	const op = "AccountsRepository.CreateSession"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	var (
		userID string
		hash   []byte
	)
	err := r.sqldb.QueryRowContext(ctx,
		`SELECT user_id, password_hash FROM users WHERE email = $1;`,
		normalizeEmail(c.Email),
	).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, fmt.Errorf(
				"%s: %w", op, domain.ErrInvalidCredentials,
			)
		}
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	err = bcrypt.CompareHashAndPassword(hash, []byte(c.Password))
	if err != nil {
		return domain.Session{}, fmt.Errorf(
			"%s: %w", op, domain.ErrInvalidCredentials,
		)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer finishTx(tx, op, log, &createErr)

	_, err = tx.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1;`, userID,
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	s := domain.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: r.now(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at) VALUES ($1, $2, $3);`,
		s.Token, s.UserID, s.CreatedAt,
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (r AccountsRepository) DeleteSession(
	ctx context.Context, token string,
) error {
	const op = "AccountsRepository.DeleteSession"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := uuid.Validate(token); err != nil {
		return fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	res, err := r.sqldb.ExecContext(ctx,
		`DELETE FROM sessions WHERE token = $1;`, token,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}
	return nil
}

func (r AccountsRepository) UserBySession(
	ctx context.Context, token string,
) (domain.User, error) {
	const op = "AccountsRepository.UserBySession"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := uuid.Validate(token); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	query := `SELECT ` + userColumns + `
		FROM sessions s
		JOIN users u ON u.user_id = s.user_id
		WHERE s.token = $1;`

	u, err := scanUser(r.sqldb.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUser applies non-nil fields of upd, a new name also
// changes the avatar.
func (r AccountsRepository) UpdateUser(
	ctx context.Context, userID string, upd domain.ProfileUpdate,
) (domain.User, error) {
	const op = "AccountsRepository.UpdateUser"

	if err := ctx.Err(); err != nil {
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}

	var name, avatar *string
	if upd.Name != nil {
		n := strings.TrimSpace(*upd.Name)
		a := r.avatarURL(n)
		name, avatar = &n, &a
	}

	query := `
		UPDATE users u SET
			name = COALESCE($2, u.name),
			phone = COALESCE($3, u.phone),
			address = COALESCE($4, u.address),
			avatar = COALESCE($5, u.avatar)
		WHERE u.user_id = $1
		RETURNING ` + userColumns + `;`

	u, err := scanUser(r.sqldb.QueryRowContext(ctx, query,
		userID, name, upd.Phone, upd.Address, avatar,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, fmt.Errorf(
				"%s: user %q: %w", op, userID, domain.ErrNotFound,
			)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r AccountsRepository) avatarURL(name string) string {
	if r.avatarBaseURL == "" {
		return ""
	}
	return r.avatarBaseURL + "?" + url.Values{"name": {name}}.Encode()
}

func scanUser(s scanner) (domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.Avatar)
	return u, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
