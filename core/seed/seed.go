// Package seed fills the database with deterministic synthetic records for local testing and demos.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/content"
	"github.com/koinonia-app/koinonia/core/finance"
	"github.com/koinonia-app/koinonia/core/member"
)

const (
	DefaultMembers = 50
	DefaultSeed    = 1
	months         = 12
)

type (
	// Repository clears the seeded tables.
	Repository interface {
		// ClearDomainData deletes every member, finance entry, event, sermon & post. Users are kept.
		ClearDomainData(ctx context.Context, exec ...core.DBExecutor) error
	}

	Options struct {
		Members int
		Seed    int64
		Reset   bool
		Today   core.Date // defaults to today
	}

	Result struct {
		Members int
		Entries int
		Events  int
		Sermons int
		Posts   int
	}

	Seeder struct {
		db          core.DB
		repo        Repository
		memberRepo  member.Repository
		financeRepo finance.Repository
		contentRepo content.Repository
		logger      core.Logger
	}
)

func (r Result) String() string {
	return fmt.Sprintf("%d members, %d finance entries, %d events, %d sermons, %d posts",
		r.Members, r.Entries, r.Events, r.Sermons, r.Posts)
}

func NewSeeder(
	db core.DB,
	repo Repository,
	memberRepo member.Repository,
	financeRepo finance.Repository,
	contentRepo content.Repository,
	logger core.Logger,
) *Seeder {
	return &Seeder{
		db:          db,
		repo:        repo,
		memberRepo:  memberRepo,
		financeRepo: financeRepo,
		contentRepo: contentRepo,
		logger:      logger,
	}
}

// Run generates & saves the records in a single transaction. The same options always yield the same data.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Members < 0 {
		return Result{}, errors.New("the number of members cannot be negative")
	}
	if opts.Today.IsZero() {
		opts.Today = core.Today()
	}
	gen := newGenerator(opts.Seed, opts.Today, core.NowFunc().UTC())

	var res Result
	err := core.WithTx(ctx, s.db, func(tx core.DBExecutor) error {
		if opts.Reset {
			if err := s.repo.ClearDomainData(ctx, tx); err != nil {
				return errors.Wrap(err, "clearing data")
			}
			s.logger.Info("seed: cleared members, finance entries & content")
		}

		members := make([]member.Member, 0, opts.Members)
		for i := 0; i < opts.Members; i++ {
			m := gen.member(i)
			if err := s.memberRepo.CheckEmailUniqueness(ctx, m.Email, nil, tx); err != nil {
				if errors.Cause(err) != member.ErrEmailExists {
					return err
				}
				m.Email = "" // seeded before without --reset
			}
			m, err := s.memberRepo.CreateMember(ctx, m, tx)
			if err != nil {
				return errors.Wrap(err, "creating member")
			}
			members = append(members, m)
		}
		res.Members = len(members)

		for _, e := range gen.entries(members) {
			if _, err := s.financeRepo.CreateEntry(ctx, e, tx); err != nil {
				return errors.Wrap(err, "creating finance entry")
			}
			res.Entries++
		}

		for _, e := range gen.events() {
			if _, err := s.contentRepo.CreateEvent(ctx, e, tx); err != nil {
				return errors.Wrap(err, "creating event")
			}
			res.Events++
		}
		for _, sm := range gen.sermons() {
			if _, err := s.contentRepo.CreateSermon(ctx, sm, tx); err != nil {
				return errors.Wrap(err, "creating sermon")
			}
			res.Sermons++
		}
		for _, p := range gen.posts() {
			taken, err := s.contentRepo.SlugsLike(ctx, p.Slug, "", tx)
			if err != nil {
				return errors.Wrap(err, "checking slug")
			}
			p.Slug = content.NextSlug(p.Slug, taken)
			if _, err := s.contentRepo.CreatePost(ctx, p, tx); err != nil {
				return errors.Wrap(err, "creating post")
			}
			res.Posts++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("seed: created " + res.String())
	return res, nil
}

type generator struct {
	rnd   *rand.Rand
	today core.Date
	now   time.Time
}

func newGenerator(seed int64, today core.Date, now time.Time) *generator {
	return &generator{rnd: rand.New(rand.NewSource(seed)), today: today, now: now}
}

func (g *generator) pick(list []string) string {
	return list[g.rnd.Intn(len(list))]
}

// weighted picks a key of `weights` in proportion to its weight. Keys are visited in `order`.
func (g *generator) weighted(order []string, weights map[string]int) string {
	total := 0
	for _, k := range order {
		total += weights[k]
	}
	n := g.rnd.Intn(total)
	for _, k := range order {
		if n < weights[k] {
			return k
		}
		n -= weights[k]
	}
	return order[len(order)-1]
}

// dateBetween returns a random day in [from, to].
func (g *generator) dateBetween(from, to core.Date) core.Date {
	days := int(to.Sub(from.Time).Hours() / 24)
	if days <= 0 {
		return from
	}
	return from.AddDays(g.rnd.Intn(days + 1))
}

// money returns a random amount in [min, max] major units, rounded to `step`.
func (g *generator) money(min, max, step int64) core.Money {
	n := min + g.rnd.Int63n(max-min+1)
	n -= n % step
	if n < step {
		n = step
	}
	return core.Money(n * 100)
}

func (g *generator) phone() string {
	return fmt.Sprintf("+233%s%07d", g.pick(phonePrefixes), g.rnd.Intn(10000000))
}

func (g *generator) member(i int) member.Member {
	gender := g.pick(member.Genders)
	first := g.pick(maleNames)
	if gender == member.GenderFemale {
		first = g.pick(femaleNames)
	}
	last := g.pick(lastNames)

	age := 1 + g.rnd.Intn(85)
	dob := g.dateBetween(g.today.AddDays(-(age+1)*365+1), g.today.AddDays(-age*365))

	// a third of the members joined over the last year, for the growth chart
	joinFrom := g.today.AddDays(-10 * 365)
	if g.rnd.Intn(3) == 0 {
		joinFrom = g.today.AddDays(-365)
	}
	if joinFrom.Before(dob) {
		joinFrom = dob
	}
	join := g.dateBetween(joinFrom, g.today)

	m := member.Member{
		FirstName:   first,
		LastName:    last,
		Gender:      gender,
		DateOfBirth: dob,
		Occupation:  g.pick(occupations),
		Phone:       g.phone(),
		Email:       fmt.Sprintf("%s.%s%d@example.org", strings.ToLower(first), strings.ToLower(last), i+1),
		Address:     fmt.Sprintf("%d %s", 1+g.rnd.Intn(200), g.pick(streets)),
		City:        g.pick(cities),
		Status: g.weighted(member.Statuses, map[string]int{
			member.StatusActive: 70, member.StatusInactive: 10, member.StatusVisitor: 12,
			member.StatusTransferred: 5, member.StatusDeceased: 3,
		}),
		Department: g.pick(member.Departments),
		JoinDate:   join,
		CreatedAt:  g.now,
		UpdatedAt:  g.now,
	}

	switch {
	case age < 18:
		m.MaritalStatus = member.MaritalSingle
	default:
		m.MaritalStatus = g.weighted(member.MaritalStatuses, map[string]int{
			member.MaritalSingle: 35, member.MaritalMarried: 50, member.MaritalDivorced: 7, member.MaritalWidowed: 8,
		})
	}
	if age >= 12 && g.rnd.Intn(10) < 6 {
		m.Baptized = true
		from := dob.AddDays(12 * 365)
		if join.After(from) {
			from = join
		}
		m.BaptismDate = g.dateBetween(from, g.today)
	}
	if g.rnd.Intn(10) < 8 {
		m.EmergencyName = g.pick(femaleNames) + " " + last
		m.EmergencyPhone = g.phone()
		m.EmergencyRelationship = g.pick(relationships)
	}
	return m
}

// entries generates the finance entries of the last 12 months, oldest first. Outflows are capped
// so the balance never goes negative.
func (g *generator) entries(members []member.Member) []finance.Entry {
	var givers []member.Member
	for _, m := range members {
		if m.Status == member.StatusActive {
			givers = append(givers, m)
		}
	}

	var candidates []finance.Entry
	add := func(e finance.Entry) {
		if e.Date.After(g.today) {
			return
		}
		if e.PaymentMethod == "" {
			e.PaymentMethod = g.weighted(finance.PaymentMethods, map[string]int{
				finance.MethodCash: 50, finance.MethodMobileMoney: 30, finance.MethodBankTransfer: 12,
				finance.MethodCheque: 5, finance.MethodCard: 3,
			})
		}
		e.CreatedAt, e.UpdatedAt = g.now, g.now
		candidates = append(candidates, e)
	}

	start := g.today.MonthStart().Time.AddDate(0, -(months - 1), 0)
	for i := 0; i < months; i++ {
		monthStart := core.DateOf(start.AddDate(0, i, 0))
		monthEnd := monthStart.MonthEnd()

		// sunday offerings
		for d := monthStart; !d.After(monthEnd); d = d.AddDays(1) {
			if d.Weekday() != time.Sunday {
				continue
			}
			add(finance.Entry{Kind: finance.KindOffering, Category: finance.CategorySundayService,
				Amount: g.money(800, 4000, 5), Date: d, PaymentMethod: finance.MethodCash})
			if g.rnd.Intn(4) == 0 {
				add(finance.Entry{Kind: finance.KindOffering, Category: g.pick(finance.Categories[finance.KindOffering][1:]),
					Amount: g.money(100, 1500, 5), Date: d, Description: "Special collection"})
			}
		}

		for _, m := range givers {
			if g.rnd.Intn(2) == 0 {
				add(finance.Entry{Kind: finance.KindTithe, MemberID: m.ID, Amount: g.money(50, 600, 5),
					Date: g.dateBetween(monthStart, monthEnd)})
			}
			if g.rnd.Intn(5) == 0 {
				add(finance.Entry{Kind: finance.KindWelfare, Category: finance.CategoryContribution, MemberID: m.ID,
					Amount: g.money(10, 100, 5), Date: g.dateBetween(monthStart, monthEnd)})
			}
		}

		for n := 2 + g.rnd.Intn(4); n > 0; n-- {
			add(finance.Entry{Kind: finance.KindExpense, Category: g.pick(finance.Categories[finance.KindExpense]),
				Amount: g.money(50, 1500, 10), Date: g.dateBetween(monthStart, monthEnd),
				Payee: g.pick(payees), Reference: fmt.Sprintf("INV-%05d", g.rnd.Intn(100000))})
		}
		if g.rnd.Intn(3) == 0 && len(givers) > 0 {
			m := givers[g.rnd.Intn(len(givers))]
			add(finance.Entry{Kind: finance.KindWelfare, Category: finance.CategoryDisbursement, MemberID: m.ID,
				Amount: g.money(100, 800, 10), Date: g.dateBetween(monthStart, monthEnd),
				Description: "Support for " + m.FullName()})
		}
		if g.rnd.Intn(4) == 0 {
			add(finance.Entry{Kind: finance.KindWithdrawal, Amount: g.money(200, 2000, 50),
				Date: g.dateBetween(monthStart, monthEnd), Payee: "Church treasurer",
				PaymentMethod: finance.MethodBankTransfer, Description: "Bank withdrawal"})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Date.Equal(candidates[j].Date) {
			// income first on a given day
			return !candidates[i].IsOutflow() && candidates[j].IsOutflow()
		}
		return candidates[i].Date.Before(candidates[j].Date)
	})

	entries := make([]finance.Entry, 0, len(candidates))
	var balance core.Money
	for _, e := range candidates {
		if e.IsOutflow() {
			if limit := balance / 2; e.Amount > limit {
				e.Amount = limit - limit%100
			}
			if e.Amount < 100 {
				continue
			}
		}
		balance += e.SignedAmount()
		entries = append(entries, e)
	}
	return entries
}

func (g *generator) events() []content.Event {
	events := make([]content.Event, 0, len(eventTemplates))
	for _, tpl := range eventTemplates {
		day := g.dateBetween(g.today.AddDays(-180), g.today.AddDays(90))
		starts := day.Add(time.Duration(8+g.rnd.Intn(10)) * time.Hour)
		e := content.Event{
			Title:       tpl.title,
			Description: tpl.description,
			Location:    g.pick(venues),
			Category:    tpl.category,
			StartsAt:    starts,
			EndsAt:      starts.Add(time.Duration(1+g.rnd.Intn(4)) * time.Hour),
			Published:   g.rnd.Intn(5) > 0,
			CreatedAt:   g.now,
			UpdatedAt:   g.now,
		}
		if tpl.allDay {
			e.AllDay = true
			e.StartsAt = day.Time
			e.EndsAt = day.AddDays(1 + g.rnd.Intn(2)).Add(-time.Second)
		}
		events = append(events, e)
	}
	return events
}

// sermons generates one sermon per Sunday over the last 26 weeks.
func (g *generator) sermons() []content.Sermon {
	sunday := g.today
	for sunday.Weekday() != time.Sunday {
		sunday = sunday.AddDays(-1)
	}
	sermons := make([]content.Sermon, 0, 26)
	for i := 0; i < 26; i++ {
		tpl := sermonTemplates[g.rnd.Intn(len(sermonTemplates))]
		sermons = append(sermons, content.Sermon{
			Title:     tpl.title,
			Preacher:  g.pick(preachers),
			Scripture: tpl.scripture,
			Series:    tpl.series,
			Date:      sunday.AddDays(-7 * i),
			Summary:   tpl.summary,
			MediaURL:  fmt.Sprintf("https://media.example.org/sermons/%s.mp3", sunday.AddDays(-7*i)),
			Tags:      tpl.tags,
			CreatedAt: g.now,
			UpdatedAt: g.now,
		})
	}
	return sermons
}

func (g *generator) posts() []content.Post {
	posts := make([]content.Post, 0, len(postTemplates))
	for i, tpl := range postTemplates {
		p := content.Post{
			Title:     tpl.title,
			Slug:      content.Slugify(tpl.title),
			Excerpt:   core.Truncate(tpl.body, 200),
			Body:      tpl.body,
			Author:    g.pick(preachers),
			Status:    content.StatusDraft,
			CreatedAt: g.now,
			UpdatedAt: g.now,
		}
		if i%4 != 3 {
			published := g.now.Add(-time.Duration(g.rnd.Intn(90*24)) * time.Hour)
			p.Status = content.StatusPublished
			p.PublishedAt = &published
		}
		posts = append(posts, p)
	}
	return posts
}
