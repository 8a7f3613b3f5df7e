package finance

import (
	"time"

	"github.com/koinonia-app/koinonia/core"
)

// Entry kinds
const (
	KindTithe      = "tithe"
	KindOffering   = "offering"
	KindWelfare    = "welfare"
	KindWithdrawal = "withdrawal"
	KindExpense    = "expense"
)

// Categories
const (
	// offering
	CategorySundayService = "sunday_service"
	CategoryThanksgiving  = "thanksgiving"
	CategorySpecial       = "special"
	CategoryBuildingFund  = "building_fund"
	CategoryMidWeek       = "mid_week"

	// welfare
	CategoryContribution = "contribution"
	CategoryDisbursement = "disbursement"

	// expense
	CategoryUtilities   = "utilities"
	CategoryMaintenance = "maintenance"
	CategorySalaries    = "salaries"
	CategoryOutreach    = "outreach"
	CategorySupplies    = "supplies"
	CategoryTransport   = "transport"
	CategoryOther       = "other"
)

// Payment methods
const (
	MethodCash         = "cash"
	MethodMobileMoney  = "mobile_money"
	MethodBankTransfer = "bank_transfer"
	MethodCheque       = "cheque"
	MethodCard         = "card"
)

var (
	Kinds          = []string{KindTithe, KindOffering, KindWelfare, KindWithdrawal, KindExpense}
	PaymentMethods = []string{MethodCash, MethodMobileMoney, MethodBankTransfer, MethodCheque, MethodCard}

	// Categories lists the categories allowed per kind. Kinds without categories are absent.
	Categories = map[string][]string{
		KindOffering: {CategorySundayService, CategoryThanksgiving, CategorySpecial, CategoryBuildingFund, CategoryMidWeek},
		KindWelfare:  {CategoryContribution, CategoryDisbursement},
		KindExpense: {
			CategoryUtilities, CategoryMaintenance, CategorySalaries, CategoryOutreach,
			CategorySupplies, CategoryTransport, CategoryOther,
		},
	}

	defaultCategories = map[string]string{
		KindOffering: CategorySundayService,
		KindWelfare:  CategoryContribution,
		KindExpense:  CategoryOther,
	}
)

// IsOutflow reports whether an entry of `kind` & `category` takes money out of the church's funds.
func IsOutflow(kind, category string) bool {
	switch kind {
	case KindWithdrawal, KindExpense:
		return true
	case KindWelfare:
		return category == CategoryDisbursement
	default:
		return false
	}
}

type Entry struct {
	ID            string     `json:"id"`
	Kind          string     `json:"kind"`
	Amount        core.Money `json:"amount"`
	Date          core.Date  `json:"date"`
	MemberID      string     `json:"member_id,omitempty"`
	MemberName    string     `json:"member_name,omitempty"`
	Category      string     `json:"category"`
	PaymentMethod string     `json:"payment_method"`
	Reference     string     `json:"reference"`
	Payee         string     `json:"payee"`
	Description   string     `json:"description"`
	RecordedBy    string     `json:"recorded_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"` // UTC
	UpdatedAt     time.Time  `json:"updated_at"` // UTC
}

func (e Entry) IsOutflow() bool { return IsOutflow(e.Kind, e.Category) }

// SignedAmount is the entry's effect on the balance.
func (e Entry) SignedAmount() core.Money {
	if e.IsOutflow() {
		return -e.Amount
	}
	return e.Amount
}

// NewEntry contains information needed to record a finance Entry. It is also used for updates.
type NewEntry struct {
	Kind          string     `json:"kind" validate:"required,entry_kind"`
	Amount        core.Money `json:"amount" validate:"required,gt=0"`
	Date          core.Date  `json:"date" validate:"required,notfuture"`
	MemberID      string     `json:"member_id"`
	Category      string     `json:"category"`
	PaymentMethod string     `json:"payment_method" validate:"required,payment_method"`
	Reference     string     `json:"reference" validate:"max=100"`
	Payee         string     `json:"payee" validate:"max=150"`
	Description   string     `json:"description" validate:"max=500"`
}

// NewEntryFrom returns the editable data of `e`.
func NewEntryFrom(e Entry) NewEntry {
	return NewEntry{
		Kind:          e.Kind,
		Amount:        e.Amount,
		Date:          e.Date,
		MemberID:      e.MemberID,
		Category:      e.Category,
		PaymentMethod: e.PaymentMethod,
		Reference:     e.Reference,
		Payee:         e.Payee,
		Description:   e.Description,
	}
}

// Clean trims text fields, coerces enum values and applies defaults (today, cash, default category).
func (ne *NewEntry) Clean() {
	ne.Kind = core.NormalizeEnum(ne.Kind)
	ne.Category = core.NormalizeEnum(ne.Category)
	if ne.Category == "" {
		ne.Category = defaultCategories[ne.Kind]
	}
	ne.PaymentMethod = core.NormalizeEnum(ne.PaymentMethod)
	if ne.PaymentMethod == "" {
		ne.PaymentMethod = MethodCash
	}
	if ne.Date.IsZero() {
		ne.Date = core.Today()
	}
	ne.MemberID = core.CleanString(ne.MemberID)
	ne.Reference = core.CleanString(ne.Reference)
	ne.Payee = core.CleanString(ne.Payee)
	ne.Description = core.CleanString(ne.Description)
}

func (ne NewEntry) IsOutflow() bool { return IsOutflow(ne.Kind, ne.Category) }

func (ne NewEntry) apply(e *Entry) {
	e.Kind = ne.Kind
	e.Amount = ne.Amount
	e.Date = ne.Date
	e.MemberID = ne.MemberID
	e.Category = ne.Category
	e.PaymentMethod = ne.PaymentMethod
	e.Reference = ne.Reference
	e.Payee = ne.Payee
	e.Description = ne.Description
}

type QueryFilter struct {
	Search        string
	Kinds         []string
	MemberID      string
	Category      string
	PaymentMethod string
	Period        core.DateRange
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	kinds := make([]string, 0, len(qf.Kinds))
	for _, k := range qf.Kinds {
		if k = core.NormalizeEnum(k); k != "" {
			kinds = append(kinds, k)
		}
	}
	qf.Kinds = kinds
	qf.MemberID = core.CleanString(qf.MemberID)
	qf.Category = core.NormalizeEnum(qf.Category)
	qf.PaymentMethod = core.NormalizeEnum(qf.PaymentMethod)
}

// KindTotal is the sum of the entries of one kind & category.
type KindTotal struct {
	Kind     string     `db:"kind"`
	Category string     `db:"category"`
	Total    core.Money `db:"total"`
	Count    int        `db:"cnt"`
}

// Summary totals the entries recorded over a period.
type Summary struct {
	From                 core.Date  `json:"from"`
	To                   core.Date  `json:"to"`
	Tithes               core.Money `json:"tithes"`
	Offerings            core.Money `json:"offerings"`
	WelfareContributions core.Money `json:"welfare_contributions"`
	WelfareDisbursements core.Money `json:"welfare_disbursements"`
	Withdrawals          core.Money `json:"withdrawals"`
	Expenses             core.Money `json:"expenses"`
	Income               core.Money `json:"income"`
	Outflow              core.Money `json:"outflow"`
	Balance              core.Money `json:"balance"`
	EntryCount           int        `json:"entry_count"`
}

// NewSummary folds per kind totals into a Summary.
func NewSummary(period core.DateRange, totals []KindTotal) Summary {
	s := Summary{From: period.From, To: period.To}
	for _, t := range totals {
		switch t.Kind {
		case KindTithe:
			s.Tithes += t.Total
		case KindOffering:
			s.Offerings += t.Total
		case KindWelfare:
			if t.Category == CategoryDisbursement {
				s.WelfareDisbursements += t.Total
			} else {
				s.WelfareContributions += t.Total
			}
		case KindWithdrawal:
			s.Withdrawals += t.Total
		case KindExpense:
			s.Expenses += t.Total
		}
		if IsOutflow(t.Kind, t.Category) {
			s.Outflow += t.Total
		} else {
			s.Income += t.Total
		}
		s.EntryCount += t.Count
	}
	s.Balance = s.Income - s.Outflow
	return s
}

// Statement is a member's giving over a period.
type Statement struct {
	MemberID   string    `json:"member_id"`
	MemberName string    `json:"member_name"`
	From       core.Date `json:"from"`
	To         core.Date `json:"to"`
	Entries    []Entry   `json:"entries"`
	Summary    Summary   `json:"summary"`
}
