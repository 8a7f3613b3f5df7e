package member

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/koinonia-app/koinonia/core"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		in      string
		want    Step
		wantErr bool
	}{
		{in: "personal", want: StepPersonal},
		{in: "Contact", want: StepContact},
		{in: "1", want: StepPersonal},
		{in: "5", want: StepPhoto},
		{in: "0", wantErr: true},
		{in: "6", wantErr: true},
		{in: "payment", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStep(tt.in)
			if tt.wantErr {
				assert.Equal(t, ErrInvalidStep, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMember_Clean(t *testing.T) {
	nm := NewMember{
		PersonalDetails: PersonalDetails{FirstName: " Kwame ", LastName: "Owusu ", Gender: "MALE", MaritalStatus: "Married"},
		ContactDetails:  ContactDetails{Phone: "024 123-4567", Email: " Kwame@Test.GH "},
		ChurchDetails:   ChurchDetails{Department: "Choir"},
		EmergencyContact: EmergencyContact{
			EmergencyName:  " Ama ",
			EmergencyPhone: "(020) 000 0000",
		},
	}
	nm.Clean()

	assert.Equal(t, "Kwame", nm.FirstName)
	assert.Equal(t, "Owusu", nm.LastName)
	assert.Equal(t, GenderMale, nm.Gender)
	assert.Equal(t, MaritalMarried, nm.MaritalStatus)
	assert.Equal(t, "0241234567", nm.Phone)
	assert.Equal(t, "kwame@test.gh", nm.Email)
	assert.Equal(t, StatusActive, nm.Status)
	assert.Equal(t, DeptChoir, nm.Department)
	assert.Equal(t, "Ama", nm.EmergencyName)
	assert.Equal(t, "0200000000", nm.EmergencyPhone)

	var empty NewMember
	empty.Clean()
	assert.Equal(t, DeptNone, empty.Department)
}

func TestNewMember_apply(t *testing.T) {
	today := core.NewDate(2024, time.March, 1)

	nm := NewMember{
		PersonalDetails: PersonalDetails{FirstName: "Efua", LastName: "Asante"},
		ChurchDetails:   ChurchDetails{BaptismDate: core.NewDate(2020, time.April, 12)},
	}
	var m Member
	nm.apply(&m, today)
	assert.Equal(t, today.String(), m.JoinDate.String())
	// no baptism date without a baptism
	assert.True(t, m.BaptismDate.IsZero())

	nm.Baptized = true
	nm.JoinDate = core.NewDate(2019, time.June, 2)
	nm.apply(&m, today)
	assert.Equal(t, "2019-06-02", m.JoinDate.String())
	assert.Equal(t, "2020-04-12", m.BaptismDate.String())

	edited := NewMemberFrom(m)
	assert.Equal(t, nm, edited)
}

func TestMember_helpers(t *testing.T) {
	m := Member{FirstName: "Kwame", OtherNames: "", LastName: "Owusu"}
	assert.Equal(t, "Kwame Owusu", m.FullName())
	m.OtherNames = "Nana"
	assert.Equal(t, "Kwame Nana Owusu", m.FullName())

	on := core.NewDate(2024, time.May, 1)
	assert.Equal(t, -1, m.Age(on))
	m.DateOfBirth = core.NewDate(1990, time.May, 2)
	assert.Equal(t, 33, m.Age(on))
	assert.False(t, m.HasPhoto())
}
