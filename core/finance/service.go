package finance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/member"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError("finance entry not found")

	csvHeader = []string{
		"id", "date", "kind", "category", "amount", "payment_method", "member_id", "member_name",
		"reference", "payee", "description", "recorded_by", "created_at",
	}
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		// QueryEntries returns a page of the entries matching `filter` along with their total count.
		// QueryFilter.Search does a case-insensitive match on one of reference, payee or description.
		QueryEntries(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Pagination, exec ...core.DBExecutor) ([]Entry, int, error)
		GetEntry(ctx context.Context, id string, exec ...core.DBExecutor) (Entry, error)
		UpdateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		DeleteEntriesByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		// SumEntries totals the entries per kind & category. `excludeID` leaves an entry out (when updating it).
		SumEntries(ctx context.Context, filter *QueryFilter, excludeID string, exec ...core.DBExecutor) ([]KindTotal, error)
	}

	Service interface {
		CheckMember(ctx context.Context, memberID string) error
		Create(ctx context.Context, ne NewEntry, recordedBy string) (Entry, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Entry, int, error)
		GetByID(ctx context.Context, id string) (Entry, error)
		Update(ctx context.Context, e Entry, data NewEntry) (Entry, error)
		Delete(ctx context.Context, ids ...string) error
		Balance(ctx context.Context, on core.Date) (core.Money, error)
		Summary(ctx context.Context, period core.DateRange) (Summary, error)
		Statement(ctx context.Context, memberID string, period core.DateRange) (Statement, error)
		ExportCSV(ctx context.Context, w io.Writer, filter *QueryFilter, ordering []core.DBOrdering) error
	}

	service struct {
		db         core.DB
		repo       Repository
		memberRepo member.Repository
		publisher  core.Publisher
		logger     core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, memberRepo member.Repository, publisher core.Publisher, logger core.Logger) Service {
	return &service{
		db:         db,
		repo:       repo,
		memberRepo: memberRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// CheckMember checks that the member an entry is linked to exists.
func (svc *service) CheckMember(ctx context.Context, memberID string) error {
	if memberID == "" {
		return nil
	}
	if _, err := svc.memberRepo.GetMember(ctx, memberID); err != nil {
		if core.IsNotFound(err) {
			return core.NewFieldError("member_id", "member not found")
		}
		return errors.Wrap(err, "finding member")
	}
	return nil
}

// checkBalance checks that an outflow does not exceed the balance available at its date.
func (svc *service) checkBalance(ctx context.Context, tx core.DBExecutor, ne NewEntry, excludeID string) error {
	if !ne.IsOutflow() {
		return nil
	}
	totals, err := svc.repo.SumEntries(ctx, &QueryFilter{Period: core.DateRange{To: ne.Date}}, excludeID, tx)
	if err != nil {
		return errors.Wrap(err, "computing balance")
	}
	available := NewSummary(core.DateRange{To: ne.Date}, totals).Balance
	if ne.Amount > available {
		if available < 0 {
			available = 0
		}
		return core.NewFieldError("amount", fmt.Sprintf("amount exceeds the available balance of %s on %s", available, ne.Date))
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ne NewEntry, recordedBy string) (Entry, error) {
	now := core.NowFunc().UTC()
	e := Entry{RecordedBy: recordedBy, CreatedAt: now, UpdatedAt: now}
	ne.apply(&e)

	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.checkBalance(ctx, tx, ne, ""); err != nil {
			return err
		}
		var err error
		e, err = svc.repo.CreateEntry(ctx, e, tx)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	core.FinanceEntriesRecorded.WithLabelValues(e.Kind).Inc()

	if err := svc.publisher.Publish(ctx, core.SubjectFinanceEntryRecorded, e); err != nil {
		svc.logger.Warn(fmt.Sprintf("finance.Create: publishing %s: %v", core.SubjectFinanceEntryRecorded, err), err)
	}
	return svc.repo.GetEntry(ctx, e.ID)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]Entry, int, error) {
	return svc.repo.QueryEntries(ctx, filter, ordering, page)
}

func (svc *service) GetByID(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, id)
}

// Update applies validated data to `e`.
func (svc *service) Update(ctx context.Context, e Entry, data NewEntry) (Entry, error) {
	data.apply(&e)
	e.UpdatedAt = core.NowFunc().UTC()

	err := core.WithTx(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.checkBalance(ctx, tx, data, e.ID); err != nil {
			return err
		}
		var err error
		e, err = svc.repo.UpdateEntry(ctx, e, tx)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	return svc.repo.GetEntry(ctx, e.ID)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := svc.repo.DeleteEntriesByID(ctx, ids)
	return err
}

// Balance returns income minus outflow for all the entries up to & including `on`.
func (svc *service) Balance(ctx context.Context, on core.Date) (core.Money, error) {
	rng := core.DateRange{To: on}
	totals, err := svc.repo.SumEntries(ctx, &QueryFilter{Period: rng}, "")
	if err != nil {
		return 0, errors.Wrap(err, "computing balance")
	}
	return NewSummary(rng, totals).Balance, nil
}

func (svc *service) Summary(ctx context.Context, period core.DateRange) (Summary, error) {
	totals, err := svc.repo.SumEntries(ctx, &QueryFilter{Period: period}, "")
	if err != nil {
		return Summary{}, errors.Wrap(err, "summing entries")
	}
	return NewSummary(period, totals), nil
}

func (svc *service) Statement(ctx context.Context, memberID string, period core.DateRange) (Statement, error) {
	m, err := svc.memberRepo.GetMember(ctx, memberID)
	if err != nil {
		return Statement{}, err
	}

	filter := &QueryFilter{MemberID: m.ID, Period: period}
	ordering := []core.DBOrdering{{Field: "date", Ascending: true}}
	entries, _, err := svc.repo.QueryEntries(ctx, filter, ordering, core.Pagination{})
	if err != nil {
		return Statement{}, errors.Wrap(err, "querying entries")
	}
	totals, err := svc.repo.SumEntries(ctx, filter, "")
	if err != nil {
		return Statement{}, errors.Wrap(err, "summing entries")
	}

	return Statement{
		MemberID:   m.ID,
		MemberName: m.FullName(),
		From:       period.From,
		To:         period.To,
		Entries:    entries,
		Summary:    NewSummary(period, totals),
	}, nil
}

// ExportCSV writes all the entries matching `filter` as CSV, header first.
func (svc *service) ExportCSV(ctx context.Context, w io.Writer, filter *QueryFilter, ordering []core.DBOrdering) error {
	entries, _, err := svc.repo.QueryEntries(ctx, filter, ordering, core.Pagination{})
	if err != nil {
		return errors.Wrap(err, "querying entries")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, e := range entries {
		record := []string{
			e.ID, e.Date.String(), e.Kind, e.Category, e.Amount.String(), e.PaymentMethod, e.MemberID, e.MemberName,
			e.Reference, e.Payee, e.Description, e.RecordedBy, e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "writing csv record")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}
