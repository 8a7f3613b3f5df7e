package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/koinonia-app/koinonia/core"
)

// Roles
const (
	// Admin
	RoleAdmin       = "admin:"
	RoleAdminOwner  = "admin:owner"
	RoleAdminPastor = "admin:pastor"

	// Finance officers: tithes, offerings, welfare, withdrawals & expenses
	RoleFinance = "finance:"

	// Secretariat: member records
	RoleSecretary = "secretary:"

	// Media team: events, sermons & blog
	RoleMedia = "media:"
)

var (
	AdminRoles     = []string{RoleAdmin, RoleAdminOwner, RoleAdminPastor}
	FinanceRoles   = []string{RoleFinance}
	SecretaryRoles = []string{RoleSecretary}
	MediaRoles     = []string{RoleMedia}
	AllRoles       = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:  30,
		RoleAdminPastor: 29,
		RoleAdmin:       21,

		// Staff: 20 - 1
		RoleFinance:   13,
		RoleSecretary: 12,
		RoleMedia:     11,
	}

	Roles = []Role{
		{Name: "Media", Value: RoleMedia},
		{Name: "Secretary", Value: RoleSecretary},
		{Name: "Finance", Value: RoleFinance},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Pastor", Value: RoleAdminPastor},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 6)
	all = append(all, AdminRoles...)
	all = append(all, FinanceRoles...)
	all = append(all, SecretaryRoles...)
	all = append(all, MediaRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsFinanceOfficer() bool {
	return u.RoleStartsWith(RoleFinance)
}

func (u *User) IsSecretary() bool {
	return u.RoleStartsWith(RoleSecretary)
}

func (u *User) IsMedia() bool {
	return u.RoleStartsWith(RoleMedia)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string   `json:"name"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Username, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string
	Roles       []string
	IsActive    *bool
	CreatedFrom time.Time
	CreatedTo   time.Time
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single User. The first non-empty field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}
