package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/user"
)

const userColumns = `id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login`

var userOrderings = map[string]string{
	"name":       "name",
	"username":   "username",
	"email":      "email",
	"is_active":  "is_active",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"last_login": "last_login",
}

type userRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Username     null.String `db:"username"`
	Email        null.String `db:"email"`
	IsActive     bool        `db:"is_active"`
	Roles        string      `db:"roles"`
	PasswordHash string      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

type userRepository struct {
	baseRepository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{baseRepository{exec: exec}}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		IsActive:     usr.IsActive,
		Roles:        joinList(usr.Roles),
		PasswordHash: string(usr.PasswordHash),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Username:     row.Username.String,
		Email:        row.Email.String,
		IsActive:     row.IsActive,
		Roles:        splitList(row.Roles),
		PasswordHash: []byte(row.PasswordHash),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	var w where
	w.add("(username = ? OR email = ?)", null.NewString(username, username != ""), null.NewString(email, email != ""))
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		w.notIn("id", ids)
	}

	var rows []userRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, "SELECT "+userColumns+" FROM users"+w.String()+" LIMIT 2", w.args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if username != "" && row.Username.String == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`
	row := repo.toRow(usr)
	if _, err := namedExec(ctx, repo.getExec(exec), q, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var w where
	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		w.search(filter.Search, "name", "username", "email")

		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			conds := ""
			args := make([]interface{}, 0, len(filter.Roles))
			for i, role := range filter.Roles {
				if i > 0 {
					conds += " OR "
				}
				conds += "(',' || roles) LIKE ?"
				args = append(args, "%,"+role+"%")
			}
			w.add("("+conds+")", args...)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			w.add("created_at >= ?", filter.CreatedFrom.UTC())
		}
		if !filter.CreatedTo.IsZero() {
			w.add("created_at <= ?", filter.CreatedTo.UTC())
		}
	}

	q := "SELECT " + userColumns + " FROM users" + w.String() + orderBy(ordering, userOrderings, "created_at DESC")
	var rows []userRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var w where
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.Username != "":
		w.add("username = ?", filter.Username)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	case filter.UsernameOrEmail != "":
		w.add("(username = ? OR email = ?)", filter.UsernameOrEmail, filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+userColumns+" FROM users"+w.String()+" LIMIT 1", w.args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `UPDATE users SET name = :name, username = :username, email = :email, is_active = :is_active,
		roles = :roles, password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	row := repo.toRow(usr)
	n, err := namedExec(ctx, repo.getExec(exec), q, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr, exec...)
	}
	return repo.UpdateUser(ctx, usr, exec...)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	n, err := deleteByID(ctx, repo.getExec(exec), "users", ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return n, nil
}
