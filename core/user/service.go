package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrUsernameExists    = errors.New("a user with this username already exists")
	ErrInvalidResetToken = errors.New("invalid or expired password reset link")
)

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUsernameExists or ErrEmailExists when another user
		// (not in excludedUsers) already holds the username or email.
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		// QueryFilter.Roles matches users with any role starting with any of the provided roles.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsername(ctx context.Context, uname string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, ids ...string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo    Repository
		conf    *core.Config
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, conf *core.Config, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:    repo,
		conf:    conf,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := core.NowFunc().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

// Update applies a validated UpdateUser to usr.
func (svc *service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr.Name = uu.Name
	usr.Username = uu.Username
	usr.Email = uu.Email
	if uu.Roles != nil {
		usr.Roles = uu.Roles
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := svc.repo.DeleteUsersByID(ctx, ids)
	return err
}

// RequestPasswordReset emails a password reset link to the active user owning `email`.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return nil
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr, svc.conf.SecretKey)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("user.sendPasswordResetMail: %v", err), err, usr)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": token,
		},
	})
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(ErrInvalidResetToken)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(ErrInvalidResetToken)
		}
		return errors.Wrap(err, "finding user by ID")
	}

	timeout := svc.conf.Server.PasswordResetTimeoutDelta
	if err := verifyToken(usr, data.Token, svc.conf.SecretKey, timeout); err != nil {
		if err == errInvalidToken || err == errTokenExpired {
			return core.NewValidationError(ErrInvalidResetToken)
		}
		return errors.Wrap(err, "verifying token")
	}

	if err := usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = core.NowFunc().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}

// resetTimeoutDays converts the configured reset timeout to whole days.
func resetTimeoutDays(timeout time.Duration) int {
	return int(timeout / (24 * time.Hour))
}
