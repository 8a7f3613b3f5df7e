package finance

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/core"
)

func TestIsOutflow(t *testing.T) {
	tests := []struct {
		kind, category string
		want           bool
	}{
		{KindTithe, "", false},
		{KindOffering, CategorySundayService, false},
		{KindWelfare, CategoryContribution, false},
		{KindWelfare, CategoryDisbursement, true},
		{KindWithdrawal, "", true},
		{KindExpense, CategoryUtilities, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsOutflow(tt.kind, tt.category), tt.kind+"/"+tt.category)
	}

	e := Entry{Kind: KindExpense, Category: CategoryOther, Amount: 500}
	assert.Equal(t, core.Money(-500), e.SignedAmount())
	e.Kind, e.Category = KindTithe, ""
	assert.Equal(t, core.Money(500), e.SignedAmount())
}

func TestNewSummary(t *testing.T) {
	period := core.MonthRange(core.NewDate(2024, time.January, 1))
	s := NewSummary(period, []KindTotal{
		{Kind: KindTithe, Total: 15000, Count: 2},
		{Kind: KindOffering, Category: CategorySundayService, Total: 30000, Count: 1},
		{Kind: KindOffering, Category: CategoryThanksgiving, Total: 5000, Count: 1},
		{Kind: KindWelfare, Category: CategoryContribution, Total: 2000, Count: 1},
		{Kind: KindWelfare, Category: CategoryDisbursement, Total: 1500, Count: 1},
		{Kind: KindWithdrawal, Total: 10000, Count: 1},
		{Kind: KindExpense, Category: CategoryUtilities, Total: 12000, Count: 3},
	})

	assert.Equal(t, Summary{
		From:                 period.From,
		To:                   period.To,
		Tithes:               15000,
		Offerings:            35000,
		WelfareContributions: 2000,
		WelfareDisbursements: 1500,
		Withdrawals:          10000,
		Expenses:             12000,
		Income:               52000,
		Outflow:              23500,
		Balance:              28500,
		EntryCount:           10,
	}, s)

	empty := NewSummary(core.DateRange{}, nil)
	assert.Equal(t, core.Money(0), empty.Balance)
	assert.Equal(t, 0, empty.EntryCount)
}

func TestNewEntry_Clean(t *testing.T) {
	ne := NewEntry{Kind: " Offering ", PaymentMethod: "Mobile Money", Payee: "  ECG "}
	ne.Clean()
	assert.Equal(t, KindOffering, ne.Kind)
	assert.Equal(t, CategorySundayService, ne.Category)
	assert.Equal(t, MethodMobileMoney, ne.PaymentMethod)
	assert.Equal(t, "ECG", ne.Payee)
	assert.Equal(t, core.Today().String(), ne.Date.String())

	ne = NewEntry{Kind: "tithe"}
	ne.Clean()
	assert.Equal(t, "", ne.Category)
	assert.Equal(t, MethodCash, ne.PaymentMethod)

	qf := QueryFilter{Kinds: []string{"Tithe", " ", "WITHDRAWAL"}, Category: "Building Fund"}
	qf.Clean()
	assert.Equal(t, []string{KindTithe, KindWithdrawal}, qf.Kinds)
	assert.Equal(t, CategoryBuildingFund, qf.Category)
}

func TestEntryValidation(t *testing.T) {
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	jan7 := core.NewDate(2024, time.January, 7)
	tests := []struct {
		name string
		ne   NewEntry
		want map[string]string
	}{
		{
			name: "valid tithe",
			ne:   NewEntry{Kind: KindTithe, Amount: 1000, Date: jan7, MemberID: "m1"},
		},
		{
			name: "valid expense",
			ne:   NewEntry{Kind: KindExpense, Category: CategoryUtilities, Amount: 1000, Date: jan7, Payee: "ECG"},
		},
		{
			name: "tithe without member",
			ne:   NewEntry{Kind: KindTithe, Amount: 1000, Date: jan7},
			want: map[string]string{"member_id": "a tithe must be linked to a member"},
		},
		{
			name: "offering linked to a member",
			ne:   NewEntry{Kind: KindOffering, Amount: 1000, Date: jan7, MemberID: "m1"},
			want: map[string]string{"member_id": "this kind of entry cannot be linked to a member"},
		},
		{
			name: "category of another kind",
			ne:   NewEntry{Kind: KindWelfare, Category: CategoryUtilities, Amount: 1000, Date: jan7},
			want: map[string]string{"category": "invalid category for this kind of entry"},
		},
		{
			name: "withdrawal with a category",
			ne:   NewEntry{Kind: KindWithdrawal, Category: CategorySpecial, Amount: 1000, Date: jan7, Payee: "Bank"},
			want: map[string]string{"category": "this kind of entry takes no category"},
		},
		{
			name: "withdrawal without payee",
			ne:   NewEntry{Kind: KindWithdrawal, Amount: 1000, Date: jan7},
			want: map[string]string{"payee": "enter who the money was paid to"},
		},
		{
			name: "unknown kind & method",
			ne:   NewEntry{Kind: "gift", Amount: 1000, Date: jan7, PaymentMethod: "barter"},
			want: map[string]string{
				"kind":           "must be one of: tithe, offering, welfare, withdrawal, expense",
				"payment_method": "must be one of: cash, mobile_money, bank_transfer, cheque, card",
			},
		},
		{
			name: "future date & no amount",
			ne:   NewEntry{Kind: KindOffering, Date: core.Today().AddDays(2)},
			want: map[string]string{
				"amount": "this field is required",
				"date":   "date cannot be in the future",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ne.Clean()
			err := validate.Struct(tt.ne)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "want validator.ValidationErrors, got %v", err)
			got := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
