// Package export formats issued passes as CSV batches for the railway office.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Column maps a CSV header label to a record field key.
type Column struct {
	Label string `json:"label"`
	Key   string `json:"key"`
}

// DefaultColumns is the layout of the downloaded batch files.
var DefaultColumns = []Column{
	{Label: "Certificate No", Key: "certNo"},
	{Label: "First Name", Key: "firstName"},
	{Label: "Middle Name", Key: "middleName"},
	{Label: "Last Name", Key: "lastName"},
	{Label: "Gender", Key: "gender"},
	{Label: "Date of Birth", Key: "dob"},
	{Label: "Age (Years)", Key: "ageYears"},
	{Label: "Age (Months)", Key: "ageMonths"},
	{Label: "Branch", Key: "branch"},
	{Label: "Graduation Year", Key: "gradyear"},
	{Label: "Phone", Key: "phoneNum"},
	{Label: "Address", Key: "address"},
	{Label: "Class", Key: "class"},
	{Label: "Duration", Key: "duration"},
	{Label: "Travel Lane", Key: "travelLane"},
	{Label: "From", Key: "from"},
	{Label: "To", Key: "to"},
	{Label: "Date of Issue", Key: "doi"},
}

// Record is one exported row keyed by field name.
type Record map[string]interface{}

// WriteCSV writes a header of column labels followed by one line per record.
// Missing keys produce empty cells.
func WriteCSV(w io.Writer, columns []Column, records []Record) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	line := make([]string, len(columns))
	for _, rec := range records {
		for i, c := range columns {
			line[i] = formatValue(rec[c.Key])
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(dateLayout)
	case *time.Time:
		if val == nil || val.IsZero() {
			return ""
		}
		return val.Format(dateLayout)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}
