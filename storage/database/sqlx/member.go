package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/member"
)

const memberColumns = `id, first_name, last_name, other_names, gender, date_of_birth, marital_status, occupation,
	phone, email, address, city, status, department, join_date, baptized, baptism_date,
	emergency_name, emergency_phone, emergency_relationship, photo_key, created_at, updated_at`

var memberOrderings = map[string]string{
	"first_name":    "first_name",
	"last_name":     "last_name",
	"gender":        "gender",
	"date_of_birth": "date_of_birth",
	"status":        "status",
	"department":    "department",
	"join_date":     "join_date",
	"created_at":    "created_at",
	"updated_at":    "updated_at",
}

type memberRow struct {
	ID                    string      `db:"id"`
	FirstName             string      `db:"first_name"`
	LastName              string      `db:"last_name"`
	OtherNames            string      `db:"other_names"`
	Gender                string      `db:"gender"`
	DateOfBirth           core.Date   `db:"date_of_birth"`
	MaritalStatus         string      `db:"marital_status"`
	Occupation            string      `db:"occupation"`
	Phone                 string      `db:"phone"`
	Email                 null.String `db:"email"`
	Address               string      `db:"address"`
	City                  string      `db:"city"`
	Status                string      `db:"status"`
	Department            string      `db:"department"`
	JoinDate              core.Date   `db:"join_date"`
	Baptized              bool        `db:"baptized"`
	BaptismDate           core.Date   `db:"baptism_date"`
	EmergencyName         string      `db:"emergency_name"`
	EmergencyPhone        string      `db:"emergency_phone"`
	EmergencyRelationship string      `db:"emergency_relationship"`
	PhotoKey              null.String `db:"photo_key"`
	CreatedAt             time.Time   `db:"created_at"`
	UpdatedAt             time.Time   `db:"updated_at"`
}

type memberRepository struct {
	baseRepository
}

var _ member.Repository = (*memberRepository)(nil)

func NewMemberRepository(exec core.DBExecutor) *memberRepository {
	return &memberRepository{baseRepository{exec: exec}}
}

func (repo memberRepository) toRow(m member.Member) memberRow {
	return memberRow{
		ID:                    m.ID,
		FirstName:             m.FirstName,
		LastName:              m.LastName,
		OtherNames:            m.OtherNames,
		Gender:                m.Gender,
		DateOfBirth:           m.DateOfBirth,
		MaritalStatus:         m.MaritalStatus,
		Occupation:            m.Occupation,
		Phone:                 m.Phone,
		Email:                 null.NewString(m.Email, m.Email != ""),
		Address:               m.Address,
		City:                  m.City,
		Status:                m.Status,
		Department:            m.Department,
		JoinDate:              m.JoinDate,
		Baptized:              m.Baptized,
		BaptismDate:           m.BaptismDate,
		EmergencyName:         m.EmergencyName,
		EmergencyPhone:        m.EmergencyPhone,
		EmergencyRelationship: m.EmergencyRelationship,
		PhotoKey:              null.NewString(m.PhotoKey, m.PhotoKey != ""),
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}

func (repo memberRepository) fromRow(row memberRow) member.Member {
	return member.Member{
		ID:                    row.ID,
		FirstName:             row.FirstName,
		LastName:              row.LastName,
		OtherNames:            row.OtherNames,
		Gender:                row.Gender,
		DateOfBirth:           row.DateOfBirth,
		MaritalStatus:         row.MaritalStatus,
		Occupation:            row.Occupation,
		Phone:                 row.Phone,
		Email:                 row.Email.String,
		Address:               row.Address,
		City:                  row.City,
		Status:                row.Status,
		Department:            row.Department,
		JoinDate:              row.JoinDate,
		Baptized:              row.Baptized,
		BaptismDate:           row.BaptismDate,
		EmergencyName:         row.EmergencyName,
		EmergencyPhone:        row.EmergencyPhone,
		EmergencyRelationship: row.EmergencyRelationship,
		PhotoKey:              row.PhotoKey.String,
		CreatedAt:             row.CreatedAt.UTC(),
		UpdatedAt:             row.UpdatedAt.UTC(),
	}
}

func (repo memberRepository) fromRows(rows []memberRow) []member.Member {
	members := make([]member.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, repo.fromRow(row))
	}
	return members
}

func (repo memberRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs []string, exec ...core.DBExecutor) error {
	var w where
	w.add("email = ?", email)
	w.notIn("id", excludedIDs)

	n, err := count(ctx, repo.getExec(exec), "members", w)
	if err != nil {
		return errors.Wrap(err, "checking member email uniqueness")
	}
	if n > 0 {
		return member.ErrEmailExists
	}
	return nil
}

func (repo memberRepository) CreateMember(ctx context.Context, m member.Member, exec ...core.DBExecutor) (member.Member, error) {
	m.ID = uuid.New().String()
	q := `INSERT INTO members (` + memberColumns + `) VALUES (
		:id, :first_name, :last_name, :other_names, :gender, :date_of_birth, :marital_status, :occupation,
		:phone, :email, :address, :city, :status, :department, :join_date, :baptized, :baptism_date,
		:emergency_name, :emergency_phone, :emergency_relationship, :photo_key, :created_at, :updated_at)`
	row := repo.toRow(m)
	if _, err := namedExec(ctx, repo.getExec(exec), q, row); err != nil {
		return member.Member{}, errors.Wrap(err, "inserting member")
	}
	return repo.fromRow(row), nil
}

func (repo memberRepository) QueryMembers(ctx context.Context, filter *member.QueryFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]member.Member, int, error) {
	var w where
	if filter != nil {
		w.search(filter.Search, "first_name", "last_name", "other_names", "phone", "email")
		if filter.Gender != "" {
			w.add("gender = ?", filter.Gender)
		}
		if filter.Status != "" {
			w.add("status = ?", filter.Status)
		}
		if filter.Department != "" {
			w.add("department = ?", filter.Department)
		}
		if filter.Baptized != nil {
			w.add("baptized = ?", *filter.Baptized)
		}
		w.dateRange("join_date", filter.Joined)
	}

	exe := repo.getExec(exec)
	total, err := count(ctx, exe, "members", w)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting members")
	}

	limit, limitArgs := limitOffset(page)
	q := "SELECT " + memberColumns + " FROM members" + w.String() +
		orderBy(ordering, memberOrderings, "last_name ASC, first_name ASC") + limit
	var rows []memberRow
	if err := selectAll(ctx, exe, &rows, q, append(w.args, limitArgs...)...); err != nil {
		return nil, 0, errors.Wrap(err, "querying members")
	}
	return repo.fromRows(rows), total, nil
}

func (repo memberRepository) GetMember(ctx context.Context, id string, exec ...core.DBExecutor) (member.Member, error) {
	if _, err := uuid.Parse(id); err != nil {
		return member.Member{}, member.ErrNotFound
	}
	var row memberRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+memberColumns+" FROM members WHERE id = ?", id); err != nil {
		return member.Member{}, trapNoRowsErr(err, member.ErrNotFound, "finding member")
	}
	return repo.fromRow(row), nil
}

func (repo memberRepository) GetMembersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]member.Member, error) {
	var w where
	w.in("id", ids)
	var rows []memberRow
	if err := selectAll(ctx, repo.getExec(exec), &rows, "SELECT "+memberColumns+" FROM members"+w.String(), w.args...); err != nil {
		return nil, errors.Wrap(err, "finding members")
	}
	return repo.fromRows(rows), nil
}

func (repo memberRepository) QueryMembersBornIn(ctx context.Context, month time.Month, exec ...core.DBExecutor) ([]member.Member, error) {
	// month extraction differs between engines: filter here
	var rows []memberRow
	q := "SELECT " + memberColumns + " FROM members WHERE date_of_birth IS NOT NULL AND status <> ?"
	if err := selectAll(ctx, repo.getExec(exec), &rows, q, member.StatusDeceased); err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	members := make([]member.Member, 0)
	for _, row := range rows {
		if row.DateOfBirth.Month() == month {
			members = append(members, repo.fromRow(row))
		}
	}
	return members, nil
}

func (repo memberRepository) UpdateMember(ctx context.Context, m member.Member, exec ...core.DBExecutor) (member.Member, error) {
	q := `UPDATE members SET first_name = :first_name, last_name = :last_name, other_names = :other_names,
		gender = :gender, date_of_birth = :date_of_birth, marital_status = :marital_status, occupation = :occupation,
		phone = :phone, email = :email, address = :address, city = :city, status = :status, department = :department,
		join_date = :join_date, baptized = :baptized, baptism_date = :baptism_date, emergency_name = :emergency_name,
		emergency_phone = :emergency_phone, emergency_relationship = :emergency_relationship, photo_key = :photo_key,
		updated_at = :updated_at
		WHERE id = :id`
	row := repo.toRow(m)
	n, err := namedExec(ctx, repo.getExec(exec), q, row)
	if err != nil {
		return member.Member{}, errors.Wrap(err, "updating member")
	}
	if n == 0 {
		return member.Member{}, member.ErrNotFound
	}
	return repo.fromRow(row), nil
}

func (repo memberRepository) DeleteMembersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	n, err := deleteByID(ctx, repo.getExec(exec), "members", ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting members")
	}
	return n, nil
}
