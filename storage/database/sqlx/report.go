package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/member"
	"github.com/koinonia-app/koinonia/core/report"
)

type reportRepository struct {
	baseRepository
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(exec core.DBExecutor) *reportRepository {
	return &reportRepository{baseRepository{exec: exec}}
}

func (repo reportRepository) CountMembersBy(ctx context.Context, field string, exec ...core.DBExecutor) ([]report.GroupCount, error) {
	if !core.ContainsString(report.GroupableMemberFields, field) {
		return nil, errors.Errorf("cannot group members by %q", field)
	}
	q := "SELECT " + field + " AS value, COUNT(*) AS cnt FROM members GROUP BY " + field + " ORDER BY " + field
	counts := make([]report.GroupCount, 0)
	if err := selectAll(ctx, repo.getExec(exec), &counts, q); err != nil {
		return nil, errors.Wrap(err, "counting members")
	}
	return counts, nil
}

func (repo reportRepository) MemberBirthDates(ctx context.Context, exec ...core.DBExecutor) ([]core.Date, error) {
	q := "SELECT date_of_birth FROM members WHERE date_of_birth IS NOT NULL AND status <> ?"
	dates := make([]core.Date, 0)
	if err := selectAll(ctx, repo.getExec(exec), &dates, q, member.StatusDeceased); err != nil {
		return nil, errors.Wrap(err, "querying birth dates")
	}
	return dates, nil
}
