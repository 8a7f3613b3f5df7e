package report

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/content"
	"github.com/koinonia-app/koinonia/core/finance"
	"github.com/koinonia-app/koinonia/core/member"
)

var (
	// errors
	ErrUnknownChart = core.NewNotFoundError("chart not found")

	// member columns charts can group by
	GroupableMemberFields = []string{"gender", "status", "department"}
)

type (
	Repository interface {
		// CountMembersBy counts the members per value of `field` (one of GroupableMemberFields).
		CountMembersBy(ctx context.Context, field string, exec ...core.DBExecutor) ([]GroupCount, error)
		// MemberBirthDates returns the known dates of birth of the living members.
		MemberBirthDates(ctx context.Context, exec ...core.DBExecutor) ([]core.Date, error)
	}

	Service interface {
		Dashboard(ctx context.Context, on core.Date) (Dashboard, error)
		Chart(ctx context.Context, name string, params ChartParams) (Chart, error)
	}

	service struct {
		repo        Repository
		memberRepo  member.Repository
		financeRepo finance.Repository
		contentRepo content.Repository
		logger      core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	memberRepo member.Repository,
	financeRepo finance.Repository,
	contentRepo content.Repository,
	logger core.Logger,
) Service {
	return &service{
		repo:        repo,
		memberRepo:  memberRepo,
		financeRepo: financeRepo,
		contentRepo: contentRepo,
		logger:      logger,
	}
}

var countPage = core.Pagination{Page: 1, PageSize: 1}

func (svc *service) countMembers(ctx context.Context, filter *member.QueryFilter) (int, error) {
	_, n, err := svc.memberRepo.QueryMembers(ctx, filter, nil, countPage)
	return n, errors.Wrap(err, "counting members")
}

func (svc *service) summary(ctx context.Context, filter *finance.QueryFilter) (finance.Summary, error) {
	totals, err := svc.financeRepo.SumEntries(ctx, filter, "")
	if err != nil {
		return finance.Summary{}, errors.Wrap(err, "summing entries")
	}
	return finance.NewSummary(filter.Period, totals), nil
}

// Dashboard computes the dashboard cards as of `on`.
func (svc *service) Dashboard(ctx context.Context, on core.Date) (Dashboard, error) {
	if on.IsZero() {
		on = core.Today()
	}
	d := Dashboard{Date: on}
	month := core.DateRange{From: on.MonthStart(), To: on}
	baptized := true

	counts := []struct {
		dest   *int
		filter *member.QueryFilter
	}{
		{&d.Members.Total, nil},
		{&d.Members.Active, &member.QueryFilter{Status: member.StatusActive}},
		{&d.Members.Visitors, &member.QueryFilter{Status: member.StatusVisitor}},
		{&d.Members.NewThisMonth, &member.QueryFilter{Joined: month}},
		{&d.Members.Baptized, &member.QueryFilter{Baptized: &baptized}},
	}
	for _, c := range counts {
		n, err := svc.countMembers(ctx, c.filter)
		if err != nil {
			return Dashboard{}, err
		}
		*c.dest = n
	}

	var err error
	if d.Finance.Month, err = svc.summary(ctx, &finance.QueryFilter{Period: month}); err != nil {
		return Dashboard{}, err
	}
	allTime, err := svc.summary(ctx, &finance.QueryFilter{Period: core.DateRange{To: on}})
	if err != nil {
		return Dashboard{}, err
	}
	d.Finance.Balance = allTime.Balance

	// same cut-off as the upcoming events list when looking at today
	endsAfter := on.Time
	if on.Equal(core.Today()) {
		endsAfter = core.NowFunc().UTC()
	}
	published := true
	_, d.Content.UpcomingEvents, err = svc.contentRepo.QueryEvents(ctx,
		&content.EventFilter{Published: &published, EndsAfter: endsAfter}, nil, countPage)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "counting events")
	}
	_, d.Content.SermonsThisYear, err = svc.contentRepo.QuerySermons(ctx,
		&content.SermonFilter{Period: core.YearRange(on.Year())}, nil, countPage)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "counting sermons")
	}
	_, d.Content.PublishedPosts, err = svc.contentRepo.QueryPosts(ctx,
		&content.PostFilter{Status: content.StatusPublished}, nil, countPage)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "counting posts")
	}
	return d, nil
}

// Chart builds chart `name` with its default options merged with params.Options.
func (svc *service) Chart(ctx context.Context, name string, params ChartParams) (Chart, error) {
	if params.Year == 0 {
		params.Year = core.Today().Year()
	}
	if params.Year < 1900 || params.Year > 9999 {
		return Chart{}, core.NewFieldError("year", "enter a valid year")
	}

	var (
		chart Chart
		err   error
	)
	switch name {
	case FinanceMonthly:
		chart, err = svc.financeMonthly(ctx, params.Year)
	case IncomeVsExpense:
		chart, err = svc.incomeVsExpense(ctx, params.Year)
	case MemberGrowth:
		chart, err = svc.memberGrowth(ctx, params.Year)
	case GenderChart:
		chart, err = svc.membersBy(ctx, "gender", ChartPie, "Members by gender", member.Genders)
	case MembershipStatus:
		chart, err = svc.membersBy(ctx, "status", ChartDoughnut, "Membership status", member.Statuses)
	case DepartmentChart:
		chart, err = svc.membersBy(ctx, "department", ChartBar, "Members by department", member.Departments)
	case AgeGroups:
		chart, err = svc.ageGroups(ctx, core.Today())
	case ExpenseCategories:
		chart, err = svc.expenseCategories(ctx, params.Period, params.Year)
	default:
		return Chart{}, ErrUnknownChart
	}
	if err != nil {
		return Chart{}, err
	}

	chart.Name = name
	chart.Options = MergeOptions(DefaultOptions(chart.Type, chart.Title), params.Options)
	return chart, nil
}

// monthlyTotals sums the entries of each month of `year`.
func (svc *service) monthlyTotals(ctx context.Context, year int) ([12][]finance.KindTotal, error) {
	var months [12][]finance.KindTotal
	for m := time.January; m <= time.December; m++ {
		rng := core.MonthRange(core.NewDate(year, m, 1))
		totals, err := svc.financeRepo.SumEntries(ctx, &finance.QueryFilter{Period: rng}, "")
		if err != nil {
			return months, errors.Wrapf(err, "summing entries of %s %d", m, year)
		}
		months[m-1] = totals
	}
	return months, nil
}

func (svc *service) financeMonthly(ctx context.Context, year int) (Chart, error) {
	months, err := svc.monthlyTotals(ctx, year)
	if err != nil {
		return Chart{}, err
	}
	chart := Chart{
		Type:   ChartBar,
		Title:  fmt.Sprintf("Finances %d", year),
		Labels: monthLabels,
	}
	for i, kind := range finance.Kinds {
		ds := Dataset{Label: core.EnumLabel(kind), Data: make([]float64, 12), BackgroundColor: palette[i%len(palette)]}
		for m, totals := range months {
			var sum core.Money
			for _, t := range totals {
				if t.Kind == kind {
					sum += t.Total
				}
			}
			ds.Data[m] = sum.Float()
		}
		chart.Datasets = append(chart.Datasets, ds)
	}
	return chart, nil
}

func (svc *service) incomeVsExpense(ctx context.Context, year int) (Chart, error) {
	months, err := svc.monthlyTotals(ctx, year)
	if err != nil {
		return Chart{}, err
	}
	income := Dataset{Label: "Income", Data: make([]float64, 12), BorderColor: palette[4], BackgroundColor: palette[4]}
	outflow := Dataset{Label: "Outflow", Data: make([]float64, 12), BorderColor: palette[2], BackgroundColor: palette[2]}
	for m, totals := range months {
		s := finance.NewSummary(core.DateRange{}, totals)
		income.Data[m] = s.Income.Float()
		outflow.Data[m] = s.Outflow.Float()
	}
	return Chart{
		Type:     ChartLine,
		Title:    fmt.Sprintf("Income vs expenses %d", year),
		Labels:   monthLabels,
		Datasets: []Dataset{income, outflow},
	}, nil
}

func (svc *service) memberGrowth(ctx context.Context, year int) (Chart, error) {
	total, err := svc.countMembers(ctx, &member.QueryFilter{Joined: core.DateRange{To: core.NewDate(year-1, time.December, 31)}})
	if err != nil {
		return Chart{}, err
	}
	joined := Dataset{Label: "New members", Data: make([]float64, 12), BorderColor: palette[0], BackgroundColor: palette[0]}
	cumulative := Dataset{Label: "Total members", Data: make([]float64, 12), BorderColor: palette[1], BackgroundColor: palette[1]}
	for m := time.January; m <= time.December; m++ {
		n, err := svc.countMembers(ctx, &member.QueryFilter{Joined: core.MonthRange(core.NewDate(year, m, 1))})
		if err != nil {
			return Chart{}, err
		}
		total += n
		joined.Data[m-1] = float64(n)
		cumulative.Data[m-1] = float64(total)
	}
	return Chart{
		Type:     ChartLine,
		Title:    fmt.Sprintf("Member growth %d", year),
		Labels:   monthLabels,
		Datasets: []Dataset{joined, cumulative},
	}, nil
}

// membersBy counts the members per value of `field`, known values first in `values` order.
func (svc *service) membersBy(ctx context.Context, field, chartType, title string, values []string) (Chart, error) {
	counts, err := svc.repo.CountMembersBy(ctx, field)
	if err != nil {
		return Chart{}, errors.Wrapf(err, "counting members by %s", field)
	}
	byValue := make(map[string]int, len(counts))
	order := append([]string(nil), values...)
	for _, c := range counts {
		byValue[c.Value] += c.Count
		if !core.ContainsString(order, c.Value) {
			order = append(order, c.Value)
		}
	}

	chart := Chart{Type: chartType, Title: title, Labels: make([]string, 0, len(order))}
	ds := Dataset{Label: "Members", Data: make([]float64, 0, len(order))}
	for _, v := range order {
		chart.Labels = append(chart.Labels, core.EnumLabel(v))
		ds.Data = append(ds.Data, float64(byValue[v]))
	}
	ds.BackgroundColor = colors(len(order))
	chart.Datasets = []Dataset{ds}
	return chart, nil
}

func (svc *service) ageGroups(ctx context.Context, on core.Date) (Chart, error) {
	dobs, err := svc.repo.MemberBirthDates(ctx)
	if err != nil {
		return Chart{}, errors.Wrap(err, "getting birth dates")
	}
	chart := Chart{Type: ChartBar, Title: "Members by age group", Labels: make([]string, 0, len(AgeGroupBrackets))}
	ds := Dataset{Label: "Members", Data: make([]float64, len(AgeGroupBrackets)), BackgroundColor: colors(len(AgeGroupBrackets))}
	for _, g := range AgeGroupBrackets {
		chart.Labels = append(chart.Labels, g.Label)
	}
	for _, dob := range dobs {
		age := dob.YearsSince(on)
		for i, g := range AgeGroupBrackets {
			if g.Contains(age) {
				ds.Data[i]++
				break
			}
		}
	}
	chart.Datasets = []Dataset{ds}
	return chart, nil
}

// expenseCategories totals the expenses of `period`, the whole of `year` when unset.
func (svc *service) expenseCategories(ctx context.Context, period core.DateRange, year int) (Chart, error) {
	if period.From.IsZero() && period.To.IsZero() {
		period = core.YearRange(year)
	}
	filter := &finance.QueryFilter{Kinds: []string{finance.KindExpense}, Period: period}
	totals, err := svc.financeRepo.SumEntries(ctx, filter, "")
	if err != nil {
		return Chart{}, errors.Wrap(err, "summing expenses")
	}

	cats := finance.Categories[finance.KindExpense]
	sums := make([]core.Money, len(cats))
	for _, t := range totals {
		for i, c := range cats {
			if t.Category == c {
				sums[i] += t.Total
			}
		}
	}
	chart := Chart{Type: ChartDoughnut, Title: "Expenses by category", Labels: make([]string, 0, len(cats))}
	ds := Dataset{Label: "Expenses", Data: make([]float64, 0, len(cats)), BackgroundColor: colors(len(cats))}
	for i, c := range cats {
		chart.Labels = append(chart.Labels, core.EnumLabel(c))
		ds.Data = append(ds.Data, sums[i].Float())
	}
	chart.Datasets = []Dataset{ds}
	return chart, nil
}
