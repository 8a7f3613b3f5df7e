package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/finance"
)

const (
	entryTable   = "finance_entries f"
	entryColumns = `f.id, f.kind, f.amount, f.entry_date, f.member_id, f.category, f.payment_method, f.reference,
	f.payee, f.description, f.recorded_by, f.created_at, f.updated_at,
	COALESCE(m.first_name || ' ' || m.last_name, '') AS member_name`
	entryFrom = ` FROM finance_entries f LEFT JOIN members m ON m.id = f.member_id`
)

var entryOrderings = map[string]string{
	"date":           "f.entry_date",
	"amount":         "f.amount",
	"kind":           "f.kind",
	"category":       "f.category",
	"payment_method": "f.payment_method",
	"created_at":     "f.created_at",
}

type entryRow struct {
	ID            string      `db:"id"`
	Kind          string      `db:"kind"`
	Amount        core.Money  `db:"amount"`
	EntryDate     core.Date   `db:"entry_date"`
	MemberID      null.String `db:"member_id"`
	MemberName    string      `db:"member_name"`
	Category      string      `db:"category"`
	PaymentMethod string      `db:"payment_method"`
	Reference     string      `db:"reference"`
	Payee         string      `db:"payee"`
	Description   string      `db:"description"`
	RecordedBy    null.String `db:"recorded_by"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

type financeRepository struct {
	baseRepository
}

var _ finance.Repository = (*financeRepository)(nil)

func NewFinanceRepository(exec core.DBExecutor) *financeRepository {
	return &financeRepository{baseRepository{exec: exec}}
}

func (repo financeRepository) toRow(e finance.Entry) entryRow {
	return entryRow{
		ID:            e.ID,
		Kind:          e.Kind,
		Amount:        e.Amount,
		EntryDate:     e.Date,
		MemberID:      null.NewString(e.MemberID, e.MemberID != ""),
		MemberName:    e.MemberName,
		Category:      e.Category,
		PaymentMethod: e.PaymentMethod,
		Reference:     e.Reference,
		Payee:         e.Payee,
		Description:   e.Description,
		RecordedBy:    null.NewString(e.RecordedBy, e.RecordedBy != ""),
		CreatedAt:     e.CreatedAt.UTC(),
		UpdatedAt:     e.UpdatedAt.UTC(),
	}
}

func (repo financeRepository) fromRow(row entryRow) finance.Entry {
	return finance.Entry{
		ID:            row.ID,
		Kind:          row.Kind,
		Amount:        row.Amount,
		Date:          row.EntryDate,
		MemberID:      row.MemberID.String,
		MemberName:    row.MemberName,
		Category:      row.Category,
		PaymentMethod: row.PaymentMethod,
		Reference:     row.Reference,
		Payee:         row.Payee,
		Description:   row.Description,
		RecordedBy:    row.RecordedBy.String,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func (repo financeRepository) where(filter *finance.QueryFilter) where {
	var w where
	if filter == nil {
		return w
	}
	w.search(filter.Search, "f.reference", "f.payee", "f.description")
	if len(filter.Kinds) > 0 {
		w.in("f.kind", filter.Kinds)
	}
	if filter.MemberID != "" {
		w.add("f.member_id = ?", filter.MemberID)
	}
	if filter.Category != "" {
		w.add("f.category = ?", filter.Category)
	}
	if filter.PaymentMethod != "" {
		w.add("f.payment_method = ?", filter.PaymentMethod)
	}
	w.dateRange("f.entry_date", filter.Period)
	return w
}

func (repo financeRepository) CreateEntry(ctx context.Context, e finance.Entry, exec ...core.DBExecutor) (finance.Entry, error) {
	e.ID = uuid.New().String()
	q := `INSERT INTO finance_entries (id, kind, amount, entry_date, member_id, category, payment_method, reference,
		payee, description, recorded_by, created_at, updated_at)
		VALUES (:id, :kind, :amount, :entry_date, :member_id, :category, :payment_method, :reference,
		:payee, :description, :recorded_by, :created_at, :updated_at)`
	row := repo.toRow(e)
	if _, err := namedExec(ctx, repo.getExec(exec), q, row); err != nil {
		return finance.Entry{}, errors.Wrap(err, "inserting finance entry")
	}
	return repo.fromRow(row), nil
}

func (repo financeRepository) QueryEntries(ctx context.Context, filter *finance.QueryFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]finance.Entry, int, error) {
	w := repo.where(filter)
	exe := repo.getExec(exec)
	total, err := count(ctx, exe, entryTable, w)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting finance entries")
	}

	limit, limitArgs := limitOffset(page)
	q := "SELECT " + entryColumns + entryFrom + w.String() +
		orderBy(ordering, entryOrderings, "f.entry_date DESC, f.created_at DESC") + limit
	var rows []entryRow
	if err := selectAll(ctx, exe, &rows, q, append(w.args, limitArgs...)...); err != nil {
		return nil, 0, errors.Wrap(err, "querying finance entries")
	}
	entries := make([]finance.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, repo.fromRow(row))
	}
	return entries, total, nil
}

func (repo financeRepository) GetEntry(ctx context.Context, id string, exec ...core.DBExecutor) (finance.Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return finance.Entry{}, finance.ErrNotFound
	}
	var row entryRow
	if err := get(ctx, repo.getExec(exec), &row, "SELECT "+entryColumns+entryFrom+" WHERE f.id = ?", id); err != nil {
		return finance.Entry{}, trapNoRowsErr(err, finance.ErrNotFound, "finding finance entry")
	}
	return repo.fromRow(row), nil
}

func (repo financeRepository) UpdateEntry(ctx context.Context, e finance.Entry, exec ...core.DBExecutor) (finance.Entry, error) {
	q := `UPDATE finance_entries SET kind = :kind, amount = :amount, entry_date = :entry_date, member_id = :member_id,
		category = :category, payment_method = :payment_method, reference = :reference, payee = :payee,
		description = :description, updated_at = :updated_at
		WHERE id = :id`
	row := repo.toRow(e)
	n, err := namedExec(ctx, repo.getExec(exec), q, row)
	if err != nil {
		return finance.Entry{}, errors.Wrap(err, "updating finance entry")
	}
	if n == 0 {
		return finance.Entry{}, finance.ErrNotFound
	}
	return repo.fromRow(row), nil
}

func (repo financeRepository) DeleteEntriesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	n, err := deleteByID(ctx, repo.getExec(exec), "finance_entries", ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting finance entries")
	}
	return n, nil
}

func (repo financeRepository) SumEntries(ctx context.Context, filter *finance.QueryFilter, excludeID string, exec ...core.DBExecutor) ([]finance.KindTotal, error) {
	w := repo.where(filter)
	if excludeID != "" {
		w.add("f.id <> ?", excludeID)
	}
	q := "SELECT f.kind, f.category, COALESCE(SUM(f.amount), 0) AS total, COUNT(*) AS cnt FROM " + entryTable +
		w.String() + " GROUP BY f.kind, f.category"
	totals := make([]finance.KindTotal, 0)
	if err := selectAll(ctx, repo.getExec(exec), &totals, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "summing finance entries")
	}
	return totals, nil
}
