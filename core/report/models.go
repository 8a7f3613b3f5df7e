package report

import (
	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/finance"
)

// Chart types
const (
	ChartBar      = "bar"
	ChartLine     = "line"
	ChartPie      = "pie"
	ChartDoughnut = "doughnut"
)

// Chart names
const (
	FinanceMonthly    = "finance-monthly"
	IncomeVsExpense   = "income-vs-expense"
	MemberGrowth      = "member-growth"
	GenderChart       = "gender"
	MembershipStatus  = "membership-status"
	DepartmentChart   = "department"
	AgeGroups         = "age-groups"
	ExpenseCategories = "expense-categories"
)

var (
	ChartNames = []string{
		FinanceMonthly, IncomeVsExpense, MemberGrowth, GenderChart,
		MembershipStatus, DepartmentChart, AgeGroups, ExpenseCategories,
	}

	monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

	palette = []string{
		"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f", "#edc948",
		"#b07aa1", "#ff9da7", "#9c755f", "#bab0ac", "#86bcb6",
	}
)

// AgeGroup is an inclusive age bracket. Max < 0 means no upper bound.
type AgeGroup struct {
	Label    string
	Min, Max int
}

var AgeGroupBrackets = []AgeGroup{
	{"0-12", 0, 12},
	{"13-19", 13, 19},
	{"20-35", 20, 35},
	{"36-50", 36, 50},
	{"51-65", 51, 65},
	{"66+", 66, -1},
}

func (g AgeGroup) Contains(age int) bool {
	return age >= g.Min && (g.Max < 0 || age <= g.Max)
}

type Dataset struct {
	Label           string      `json:"label"`
	Data            []float64   `json:"data"`
	BackgroundColor interface{} `json:"backgroundColor,omitempty"` // one color or one per data point
	BorderColor     string      `json:"borderColor,omitempty"`
}

// Chart is ready to be handed to the frontend charting library.
type Chart struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
	Options  Options   `json:"options"`
}

// ChartParams select the data of a chart. Year applies to the monthly charts, Period to
// expense-categories. Options override the chart's defaults.
type ChartParams struct {
	Year    int
	Period  core.DateRange
	Options Options
}

// GroupCount is the number of rows sharing a column value.
type GroupCount struct {
	Value string `db:"value"`
	Count int    `db:"cnt"`
}

type MemberCards struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Visitors     int `json:"visitors"`
	NewThisMonth int `json:"new_this_month"`
	Baptized     int `json:"baptized"`
}

type FinanceCards struct {
	Month   finance.Summary `json:"month"`
	Balance core.Money      `json:"balance"` // all time, up to the dashboard date
}

type ContentCards struct {
	UpcomingEvents  int `json:"upcoming_events"`
	SermonsThisYear int `json:"sermons_this_year"`
	PublishedPosts  int `json:"published_posts"`
}

// Dashboard holds the dashboard cards for a given date.
type Dashboard struct {
	Date    core.Date    `json:"date"`
	Members MemberCards  `json:"members"`
	Finance FinanceCards `json:"finance"`
	Content ContentCards `json:"content"`
}

func colors(n int) []string {
	c := make([]string, n)
	for i := range c {
		c[i] = palette[i%len(palette)]
	}
	return c
}
