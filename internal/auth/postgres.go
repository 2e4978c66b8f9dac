package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ AccountStore = (*PGStore)(nil)

const uniqueViolation = "23505"

// PGStore implements AccountStore on PostgreSQL. Email uniqueness relies on
// the unique index over lower(email), not on application locking.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const accountColumns = `id, email, password_hash, first_name, last_name,
	coalesce(address, ''), coalesce(phone, ''), role, active, email_verified,
	coalesce(verification_token, ''), coalesce(last_access, 'epoch'::timestamptz), created_at`

func (s *PGStore) Create(ctx context.Context, a *Account) error {
	err := s.db.QueryRowContext(ctx,
		`insert into accounts(email, password_hash, first_name, last_name, address, phone,
			role, active, email_verified, verification_token)
		 values($1,$2,$3,$4,nullif($5,''),nullif($6,''),$7,$8,$9,nullif($10,''))
		 returning id, created_at`,
		a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Address, a.Phone,
		string(a.Role), a.Active, a.EmailVerified, a.VerificationToken,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where lower(email)=lower($1)`, email)
	return scanAccount(row)
}

func (s *PGStore) FindActiveByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where lower(email)=lower($1) and active`, email)
	return scanAccount(row)
}

func (s *PGStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from accounts where lower(email)=lower($1))`, email).Scan(&exists)
	return exists, err
}

func (s *PGStore) UpdateLastAccess(ctx context.Context, email string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set last_access=$2 where lower(email)=lower($1)`, email, at)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) MarkVerified(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set email_verified=true, verification_token=null where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) ConsumeVerificationToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx,
		`update accounts set email_verified=true, verification_token=null
		 where verification_token=$1`, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var (
		a    Account
		role string
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.Address, &a.Phone, &role, &a.Active, &a.EmailVerified,
		&a.VerificationToken, &a.LastAccess, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Role = Role(role)
	if a.LastAccess.Unix() == 0 {
		a.LastAccess = time.Time{}
	}
	return &a, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
