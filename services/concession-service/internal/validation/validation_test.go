package validation_test

import (
	"errors"
	"testing"

	"railway/services/concession-service/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Email    string `json:"email" validate:"required,email"`
	DOB      string `json:"dob" validate:"required,datetime=2006-01-02"`
	PhoneNum string `json:"phoneNum" validate:"required,number,len=10"`
	Note     string `json:"note,omitempty"`
}

func TestStruct(t *testing.T) {
	v := validation.New()

	t.Run("Valid", func(t *testing.T) {
		err := validation.Struct(v, form{Email: "a@college.edu", DOB: "2004-02-29", PhoneNum: "9876543210"})
		assert.NoError(t, err)
	})

	t.Run("FieldsNamedByJSONTag", func(t *testing.T) {
		err := validation.Struct(v, form{Email: "nope", DOB: "29/02/2004", PhoneNum: "98765"})

		var verr *validation.Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, map[string]string{
			"email":    "must be a valid email address",
			"dob":      "must be a date in YYYY-MM-DD format",
			"phoneNum": "must be exactly 10 characters",
		}, verr.Fields)
	})

	t.Run("SignedNumber", func(t *testing.T) {
		err := validation.Struct(v, form{Email: "a@college.edu", DOB: "2004-02-29", PhoneNum: "-987654321"})

		var verr *validation.Error
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, map[string]string{"phoneNum": "must contain digits only"}, verr.Fields)
	})

	t.Run("Required", func(t *testing.T) {
		err := validation.Struct(v, form{})

		var verr *validation.Error
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 3)
		assert.Equal(t, "is required", verr.Fields["email"])
		assert.Contains(t, verr.Error(), "dob is required")
	})
}
