package student

import "github.com/uptrace/bun"

// Student is the account profile whose id keys a student's concession records.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID     string `bun:"id,pk" json:"id"`
	Name   string `bun:"name,notnull" json:"name" validate:"required"`
	Email  string `bun:"email,unique,notnull" json:"email" validate:"required,email"`
	Branch string `bun:"branch" json:"branch"`
}

// Autofill is the subset of a profile used to prefill the concession form.
type Autofill struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
	Branch     string `json:"branch"`
}
