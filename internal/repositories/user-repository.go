package repositories

import (
	"context"
	"errors"
	"fmt"

	"it-inventory/internal/entities"
	apperrors "it-inventory/pkg/errors"
	"it-inventory/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

const userTable = "users"

var userColumns = []string{"id", "username", "password", "role", "status", "created_at", "updated_at"}

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	List(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)

	CreateInTx(ctx context.Context, tx pgx.Tx, u *entities.User) error
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	UsernameTakenInTx(ctx context.Context, tx pgx.Tx, username string, exceptID uint64) (bool, error)
	UpdateInTx(ctx context.Context, tx pgx.Tx, u *entities.User) error
}

type UserRepository struct {
	storage DB
}

func NewUserRepository(storage DB) UserRepositoryInterface {
	return &UserRepository{storage: storage}
}

func scanUser(row rowScanner) (entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) findOne(ctx context.Context, q querier, builder sq.SelectBuilder) (*entities.User, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	u, err := scanUser(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	return r.findOne(ctx, r.storage, psql.Select(userColumns...).From(userTable).Where(sq.Eq{"id": id}))
}

// FindByUsername ищет без учёта регистра.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, r.storage, psql.Select(userColumns...).From(userTable).Where("LOWER(username) = LOWER(?)", username))
}

func (r *UserRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	return r.findOne(ctx, tx, psql.Select(userColumns...).From(userTable).Where(sq.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *UserRepository) UsernameTakenInTx(ctx context.Context, tx pgx.Tx, username string, exceptID uint64) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = LOWER($1) AND id <> $2)`,
		username, exceptID,
	).Scan(&exists)
	return exists, err
}

func (r *UserRepository) CreateInTx(ctx context.Context, tx pgx.Tx, u *entities.User) error {
	query := `
		INSERT INTO users (username, password, role, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := tx.QueryRow(ctx, query, u.Username, u.Password, u.Role, u.Status).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return uniqueViolation(err, map[string][2]string{"users_username_lower_key": {"username", u.Username}})
	}
	return nil
}

func (r *UserRepository) UpdateInTx(ctx context.Context, tx pgx.Tx, u *entities.User) error {
	query := `
		UPDATE users SET username = $1, password = $2, role = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`
	err := tx.QueryRow(ctx, query, u.Username, u.Password, u.Role, u.Status, u.ID).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return uniqueViolation(err, map[string][2]string{"users_username_lower_key": {"username", u.Username}})
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	p := paramsFromFilter(filter)
	p.Table = userTable
	p.Columns = userColumns
	p.OrderBy = "id"
	p.AllowedFilterColumns = []string{"status", "role"}
	p.AllowedSearchColumns = []string{"username", "role"}
	p.DefaultSearchColumns = []string{"username"}
	p.DateColumn = "created_at"

	items, total, err := FetchDataAndCount(ctx, r.storage, p, scanUser)
	if err != nil {
		return nil, 0, fmt.Errorf("список пользователей: %w", err)
	}
	return items, total, nil
}
