package concession

import (
	"time"

	"github.com/uptrace/bun"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusServiced   Status = "serviced"
	StatusDownloaded Status = "downloaded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusServiced, StatusDownloaded:
		return true
	}
	return false
}

const (
	ServicedMessage = "Your request has been serviced!"
	PendingMessage  = "Your request is pending approval"
)

// Detail is the applicant's concession profile, keyed by the student id.
type Detail struct {
	bun.BaseModel `bun:"table:concession_details,alias:cd"`

	ID         string    `bun:"id,pk" json:"id"`
	FirstName  string    `bun:"first_name,notnull" json:"firstName"`
	MiddleName string    `bun:"middle_name" json:"middleName"`
	LastName   string    `bun:"last_name,notnull" json:"lastName"`
	Gender     string    `bun:"gender,notnull" json:"gender"`
	DOB        time.Time `bun:"dob,notnull,type:date" json:"dob"`
	AgeYears   int       `bun:"age_years" json:"ageYears"`
	AgeMonths  int       `bun:"age_months" json:"ageMonths"`
	Branch     string    `bun:"branch,notnull" json:"branch"`
	GradYear   string    `bun:"gradyear,notnull" json:"gradyear"`
	PhoneNum   int64     `bun:"phone_num,notnull" json:"phoneNum"`
	Address    string    `bun:"address,notnull" json:"address"`
	Class      string    `bun:"class,notnull" json:"class"`
	Duration   string    `bun:"duration,notnull" json:"duration"`
	TravelLane string    `bun:"travel_lane,notnull" json:"travelLane"`
	From       string    `bun:"from_station,notnull" json:"from"`
	To         string    `bun:"to_station,notnull" json:"to"`

	Status         Status     `bun:"status,notnull" json:"status"`
	StatusMessage  string     `bun:"status_message" json:"statusMessage"`
	LastPassIssued *time.Time `bun:"last_pass_issued,nullzero" json:"lastPassIssued,omitempty"`
}

// Request mirrors the lifecycle fields of a Detail and carries the pass number.
type Request struct {
	bun.BaseModel `bun:"table:concession_requests,alias:cr"`

	ID               string    `bun:"id,pk" json:"id"`
	UID              string    `bun:"uid,notnull" json:"uid"`
	PassNum          string    `bun:"pass_num" json:"passNum"`
	Status           Status    `bun:"status,notnull" json:"status"`
	StatusMessage    string    `bun:"status_message" json:"statusMessage"`
	NotificationTime time.Time `bun:"notification_time,notnull" json:"notificationTime"`
	Time             time.Time `bun:"time,notnull" json:"time"`
}

// Indexes backing the equality lookups of the approval and status views.
var Indexes = []string{
	`CREATE INDEX IF NOT EXISTS concession_details_name_phone_idx ON concession_details (first_name, phone_num)`,
	`CREATE INDEX IF NOT EXISTS concession_details_status_issued_idx ON concession_details (status, last_pass_issued)`,
	`CREATE INDEX IF NOT EXISTS concession_requests_uid_idx ON concession_requests (uid)`,
}

// Models lists the tables owned by this package, in creation order.
func Models() []interface{} {
	return []interface{}{(*Detail)(nil), (*Request)(nil)}
}
