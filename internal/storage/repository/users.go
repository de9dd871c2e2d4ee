package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

const userColumns = `id, name, email, password_hash, role, created_at`

// CreateUser сохраняет нового пользователя. ID генерируется, если не задан;
// CreatedAt заполняется значением из базы.
func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	query := `INSERT INTO users (id, name, email, password_hash, role)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING created_at`
	err := s.DB.QueryRowContext(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role)).
		Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	return nil
}

// UpsertUser создаёт пользователя или обновляет имя, пароль и роль существующего с тем же email.
func (s *Storage) UpsertUser(ctx context.Context, u *models.User) error {
	const op = "storage.UpsertUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	query := `INSERT INTO users (id, name, email, password_hash, role)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (email) DO UPDATE
			  SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash, role = EXCLUDED.role
			  RETURNING id, created_at`
	err := s.DB.QueryRowContext(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role)).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return u, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return u, nil
}

// ListUsers возвращает пользователей, видимых в рамках scope, отсортированных по имени.
func (s *Storage) ListUsers(ctx context.Context, scope models.Scope) ([]models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var args []any
	query := `SELECT ` + userColumns + ` FROM users WHERE ` +
		scopeCondition(scope, "id", "role", &args) + ` ORDER BY name ASC`
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UpdatePassword заменяет хэш пароля пользователя.
func (s *Storage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const op = "storage.UpdatePassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return u, nil
}

// translate приводит ошибки драйвера к ErrNotFound и ErrDuplicate.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case pgerrcode.InvalidTextRepresentation:
			// некорректный uuid в условии поиска
			return ErrNotFound
		}
	}
	return err
}

// scopeCondition строит SQL-условие видимости и дописывает параметры в args.
func scopeCondition(scope models.Scope, idCol, roleCol string, args *[]any) string {
	if scope.All {
		return "TRUE"
	}
	var conds []string
	if scope.SelfID != "" {
		*args = append(*args, scope.SelfID)
		conds = append(conds, fmt.Sprintf("%s = $%d", idCol, len(*args)))
	}
	if scope.PeerRole != "" {
		*args = append(*args, string(scope.PeerRole))
		conds = append(conds, fmt.Sprintf("%s = $%d", roleCol, len(*args)))
	}
	switch len(conds) {
	case 0:
		return "FALSE"
	case 1:
		return conds[0]
	}
	return "(" + conds[0] + " OR " + conds[1] + ")"
}
