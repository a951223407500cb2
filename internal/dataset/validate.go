package dataset

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ValidationError is a rejected request parameter. Its message is safe to
// return to API clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Validator checks request parameters against the loaded table.
type Validator struct {
	table      *Table
	validYears []string
}

// NewValidator creates a validator for t accepting validYears.
func NewValidator(t *Table, validYears []string) *Validator {
	return &Validator{table: t, validYears: append([]string(nil), validYears...)}
}

// ValidYears returns the accepted census years.
func (v *Validator) ValidYears() []string { return append([]string(nil), v.validYears...) }

// ValidateYear checks that year is set, accepted, and present in the data.
func (v *Validator) ValidateYear(year, param string) error {
	if year == "" {
		return invalid("%s is required", param)
	}
	if !slices.Contains(v.validYears, year) {
		return invalid("Invalid %s: '%s'. Must be one of %s", param, year, quotedList(v.validYears))
	}
	if !v.table.HasYear(year) {
		return invalid("No data available for %s: %s", param, year)
	}
	return nil
}

// ValidateCity checks that city is set and present in the data.
func (v *Validator) ValidateCity(city string) error {
	if city == "" {
		return invalid("city is required")
	}
	if !v.table.HasTown(city) {
		return invalid("Invalid city: '%s'. City not found in dataset", city)
	}
	return nil
}

// ValidateRequest checks both years, the city, and that year1 precedes year2.
func (v *Validator) ValidateRequest(year1, year2, city string) error {
	if err := v.ValidateYear(year1, "year1"); err != nil {
		return err
	}
	if err := v.ValidateYear(year2, "year2"); err != nil {
		return err
	}
	if err := v.ValidateCity(city); err != nil {
		return err
	}

	y1, err1 := strconv.Atoi(year1)
	y2, err2 := strconv.Atoi(year2)
	if err1 != nil || err2 != nil || y1 >= y2 {
		return invalid("year1 (%s) must be before year2 (%s)", year1, year2)
	}
	return nil
}

// quotedList renders years as ['1990', '2000'].
func quotedList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
