package intake

// Form is the concession application as submitted by the student portal.
type Form struct {
	Email      string `json:"email" validate:"required,email"`
	FirstName  string `json:"firstName" validate:"required"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName" validate:"required"`
	Gender     string `json:"gender" validate:"required"`
	DOB        string `json:"dob" validate:"required,datetime=2006-01-02"`
	PhoneNum   string `json:"phoneNum" validate:"required,number,len=10"`
	Branch     string `json:"branch" validate:"required"`
	GradYear   string `json:"gradYear" validate:"required"`
	Address    string `json:"address" validate:"required"`
	Class      string `json:"class" validate:"required"`
	Duration   string `json:"duration" validate:"required"`
	TravelLane string `json:"travelLane" validate:"required"`
	From       string `json:"from" validate:"required"`
	To         string `json:"to" validate:"required"`
	CertNo     string `json:"certNo"`
}
