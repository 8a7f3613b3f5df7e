package member

import (
	"strings"
	"time"

	"github.com/koinonia-app/koinonia/core"
)

// Genders
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Marital statuses
const (
	MaritalSingle   = "single"
	MaritalMarried  = "married"
	MaritalDivorced = "divorced"
	MaritalWidowed  = "widowed"
)

// Membership statuses
const (
	StatusActive      = "active"
	StatusInactive    = "inactive"
	StatusVisitor     = "visitor"
	StatusTransferred = "transferred"
	StatusDeceased    = "deceased"
)

// Departments
const (
	DeptUshering   = "ushering"
	DeptChoir      = "choir"
	DeptMedia      = "media"
	DeptChildren   = "children"
	DeptYouth      = "youth"
	DeptMen        = "men"
	DeptWomen      = "women"
	DeptWelfare    = "welfare"
	DeptEvangelism = "evangelism"
	DeptPrayer     = "prayer"
	DeptNone       = "none"
)

var (
	Genders         = []string{GenderMale, GenderFemale}
	MaritalStatuses = []string{MaritalSingle, MaritalMarried, MaritalDivorced, MaritalWidowed}
	Statuses        = []string{StatusActive, StatusInactive, StatusVisitor, StatusTransferred, StatusDeceased}
	Departments     = []string{
		DeptUshering, DeptChoir, DeptMedia, DeptChildren, DeptYouth, DeptMen,
		DeptWomen, DeptWelfare, DeptEvangelism, DeptPrayer, DeptNone,
	}
)

type Member struct {
	ID                    string    `json:"id"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	OtherNames            string    `json:"other_names"`
	Gender                string    `json:"gender"`
	DateOfBirth           core.Date `json:"date_of_birth"`
	MaritalStatus         string    `json:"marital_status"`
	Occupation            string    `json:"occupation"`
	Phone                 string    `json:"phone"`
	Email                 string    `json:"email"`
	Address               string    `json:"address"`
	City                  string    `json:"city"`
	Status                string    `json:"status"`
	Department            string    `json:"department"`
	JoinDate              core.Date `json:"join_date"`
	Baptized              bool      `json:"baptized"`
	BaptismDate           core.Date `json:"baptism_date"`
	EmergencyName         string    `json:"emergency_name"`
	EmergencyPhone        string    `json:"emergency_phone"`
	EmergencyRelationship string    `json:"emergency_relationship"`
	PhotoKey              string    `json:"photo_key,omitempty"`
	CreatedAt             time.Time `json:"created_at"` // UTC
	UpdatedAt             time.Time `json:"updated_at"` // UTC
}

func (m Member) FullName() string {
	return strings.Join(strings.Fields(m.FirstName+" "+m.OtherNames+" "+m.LastName), " ")
}

// Age returns the member's age in whole years on `on`, or -1 when the date of birth is unknown.
func (m Member) Age(on core.Date) int {
	if m.DateOfBirth.IsZero() {
		return -1
	}
	return m.DateOfBirth.YearsSince(on)
}

func (m Member) HasPhoto() bool { return m.PhotoKey != "" }

// PersonalDetails is the 1st onboarding step.
type PersonalDetails struct {
	FirstName     string    `json:"first_name" validate:"required,notblank,max=100"`
	LastName      string    `json:"last_name" validate:"required,notblank,max=100"`
	OtherNames    string    `json:"other_names" validate:"max=150"`
	Gender        string    `json:"gender" validate:"required,gender"`
	DateOfBirth   core.Date `json:"date_of_birth" validate:"omitempty,notfuture"`
	MaritalStatus string    `json:"marital_status" validate:"omitempty,marital_status"`
	Occupation    string    `json:"occupation" validate:"max=150"`
}

// ContactDetails is the 2nd onboarding step.
type ContactDetails struct {
	Phone   string `json:"phone" validate:"required,phone"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Address string `json:"address" validate:"max=255"`
	City    string `json:"city" validate:"max=100"`
}

// ChurchDetails is the 3rd onboarding step.
type ChurchDetails struct {
	Status      string    `json:"status" validate:"omitempty,member_status"`
	Department  string    `json:"department" validate:"omitempty,department"`
	JoinDate    core.Date `json:"join_date" validate:"omitempty,notfuture"`
	Baptized    bool      `json:"baptized"`
	BaptismDate core.Date `json:"baptism_date" validate:"omitempty,notfuture"`
}

// EmergencyContact is the 4th onboarding step.
type EmergencyContact struct {
	EmergencyName         string `json:"emergency_name" validate:"max=150"`
	EmergencyPhone        string `json:"emergency_phone" validate:"omitempty,phone"`
	EmergencyRelationship string `json:"emergency_relationship" validate:"max=50"`
}

// NewMember holds the data collected by the onboarding wizard (the photo is uploaded separately).
// It is also used for updates, prefilled with the current member data.
type NewMember struct {
	PersonalDetails
	ContactDetails
	ChurchDetails
	EmergencyContact
}

// NewMemberFrom returns the editable data of `m`.
func NewMemberFrom(m Member) NewMember {
	return NewMember{
		PersonalDetails: PersonalDetails{
			FirstName:     m.FirstName,
			LastName:      m.LastName,
			OtherNames:    m.OtherNames,
			Gender:        m.Gender,
			DateOfBirth:   m.DateOfBirth,
			MaritalStatus: m.MaritalStatus,
			Occupation:    m.Occupation,
		},
		ContactDetails: ContactDetails{
			Phone:   m.Phone,
			Email:   m.Email,
			Address: m.Address,
			City:    m.City,
		},
		ChurchDetails: ChurchDetails{
			Status:      m.Status,
			Department:  m.Department,
			JoinDate:    m.JoinDate,
			Baptized:    m.Baptized,
			BaptismDate: m.BaptismDate,
		},
		EmergencyContact: EmergencyContact{
			EmergencyName:         m.EmergencyName,
			EmergencyPhone:        m.EmergencyPhone,
			EmergencyRelationship: m.EmergencyRelationship,
		},
	}
}

// Clean trims text fields, coerces enum values and applies defaults.
func (nm *NewMember) Clean() {
	nm.FirstName = core.CleanString(nm.FirstName)
	nm.LastName = core.CleanString(nm.LastName)
	nm.OtherNames = core.CleanString(nm.OtherNames)
	nm.Gender = core.NormalizeEnum(nm.Gender)
	nm.MaritalStatus = core.NormalizeEnum(nm.MaritalStatus)
	nm.Occupation = core.CleanString(nm.Occupation)

	nm.Phone = core.NormalizePhone(nm.Phone)
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	nm.Address = core.CleanString(nm.Address)
	nm.City = core.CleanString(nm.City)

	nm.Status = core.NormalizeEnum(nm.Status)
	if nm.Status == "" {
		nm.Status = StatusActive
	}
	nm.Department = core.NormalizeEnum(nm.Department)
	if nm.Department == "" {
		nm.Department = DeptNone
	}

	nm.EmergencyName = core.CleanString(nm.EmergencyName)
	nm.EmergencyPhone = core.NormalizePhone(nm.EmergencyPhone)
	nm.EmergencyRelationship = core.CleanString(nm.EmergencyRelationship)
}

// apply copies the wizard data onto `m`. The join date defaults to `today`.
func (nm NewMember) apply(m *Member, today core.Date) {
	m.FirstName = nm.FirstName
	m.LastName = nm.LastName
	m.OtherNames = nm.OtherNames
	m.Gender = nm.Gender
	m.DateOfBirth = nm.DateOfBirth
	m.MaritalStatus = nm.MaritalStatus
	m.Occupation = nm.Occupation
	m.Phone = nm.Phone
	m.Email = nm.Email
	m.Address = nm.Address
	m.City = nm.City
	m.Status = nm.Status
	m.Department = nm.Department
	m.JoinDate = nm.JoinDate
	if m.JoinDate.IsZero() {
		m.JoinDate = today
	}
	m.Baptized = nm.Baptized
	m.BaptismDate = nm.BaptismDate
	if !m.Baptized {
		m.BaptismDate = core.Date{}
	}
	m.EmergencyName = nm.EmergencyName
	m.EmergencyPhone = nm.EmergencyPhone
	m.EmergencyRelationship = nm.EmergencyRelationship
}

type QueryFilter struct {
	Search     string
	Gender     string
	Status     string
	Department string
	Baptized   *bool
	Joined     core.DateRange
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Gender = core.NormalizeEnum(qf.Gender)
	qf.Status = core.NormalizeEnum(qf.Status)
	qf.Department = core.NormalizeEnum(qf.Department)
}
