// Package validation holds the pure field rules shared by every entry
// form. Format runs on each keystroke and coerces input into canonical
// shape; Validate runs on blur/submit and produces the rejection reason.
// Keeping the two separate means partial input is never rejected while
// the user is still typing.
package validation

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	nameRe       = regexp.MustCompile(`^[a-zA-Z\s]{2,50}$`)
	contactRe    = regexp.MustCompile(`^\d{10}$`)
	vehicleRe    = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z]{1,2}\d{4}$`)
	idNumberRe   = regexp.MustCompile(`(?i)^[A-Z0-9-/]{4,20}$`)
	companyRe    = regexp.MustCompile(`^[a-zA-Z0-9\s&.,'-]{2,50}$`)
	departmentRe = regexp.MustCompile(`^[a-zA-Z0-9\s&-]{2,50}$`)

	nonDigits   = regexp.MustCompile(`[^0-9]`)
	nonUpperNum = regexp.MustCompile(`[^A-Z0-9]`)
	nonDecimal  = regexp.MustCompile(`[^0-9.]`)
)

var visitTypes = []string{"Personal", "Business", "Official", "Other"}

var idTypes = []string{"Passport", "Driving License", "National ID", "Other"}

// Validate checks a single field value and returns a user-displayable
// error message, or "" when the value is acceptable. Unknown fields are
// accepted as-is. It never mutates the value; run Format first.
func Validate(field, value string) string {
	switch field {
	case "name":
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "Name is required"
		}
		if !nameRe.MatchString(trimmed) {
			return "Name should be 2-50 characters and contain only letters and spaces"
		}
	case "address":
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "Address is required"
		}
		if len(trimmed) < 5 {
			return "Address should be at least 5 characters"
		}
	case "contactNumber":
		if value == "" {
			return "Contact number is required"
		}
		if !contactRe.MatchString(value) {
			return "Contact number must be exactly 10 digits"
		}
	case "vehicleNumber":
		if value == "" {
			return "" // optional field
		}
		if !vehicleRe.MatchString(strings.ReplaceAll(value, " ", "")) {
			return "Invalid vehicle number format (e.g., KA01AB1234)"
		}
	case "purposeOfVisit":
		if strings.TrimSpace(value) == "" {
			return "Purpose of visit is required"
		}
	case "typeOfVisit":
		if !contains(visitTypes, value) {
			return "Please select a valid visit type"
		}
	case "idType":
		if value == "" {
			return "ID type is required"
		}
		if !contains(idTypes, value) {
			return "Please select a valid ID type"
		}
	case "idNumber":
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "ID number is required"
		}
		if len(trimmed) < 4 {
			return "ID number should be at least 4 characters"
		}
		if !idNumberRe.MatchString(trimmed) {
			return "Invalid ID number format"
		}
	case "temperature":
		if value == "" {
			return "Temperature is required"
		}
		temp, err := strconv.ParseFloat(value, 64)
		if err != nil || temp < 35 || temp > 42 {
			return "Temperature must be between 35°C and 42°C"
		}
	case "company":
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "Company name is required"
		}
		if len(trimmed) < 2 {
			return "Company name should be at least 2 characters"
		}
		if !companyRe.MatchString(trimmed) {
			return "Invalid company name format"
		}
	case "personToMeet", "whomToMeet":
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "Person to meet is required"
		}
		if !nameRe.MatchString(trimmed) {
			return "Person name should be 2-50 characters and contain only letters and spaces"
		}
	case "department":
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return "Department is required"
		}
		if len(trimmed) < 2 {
			return "Department should be at least 2 characters"
		}
		if !departmentRe.MatchString(trimmed) {
			return "Invalid department name format"
		}
	case "cabProvider":
		if value == "" {
			return "Cab provider is required"
		}
	case "driverName":
		if value == "" {
			return "" // optional
		}
		if !nameRe.MatchString(strings.TrimSpace(value)) {
			return "Driver name should be 2-50 characters and contain only letters and spaces"
		}
	case "driverNumber":
		if value == "" {
			return "" // optional
		}
		if !contactRe.MatchString(value) {
			return "Driver number must be exactly 10 digits"
		}
	case "documentType":
		if value == "" {
			return "Document type is required"
		}
	}
	return ""
}

// Format coerces raw keystroke input into the canonical shape for a
// field. Fields without a formatter are trimmed only.
func Format(field, value string) string {
	switch field {
	case "contactNumber", "driverNumber":
		digits := nonDigits.ReplaceAllString(value, "")
		if len(digits) > 10 {
			digits = digits[:10]
		}
		return digits
	case "vehicleNumber", "cabNumber":
		return nonUpperNum.ReplaceAllString(strings.ToUpper(value), "")
	case "temperature":
		return nonDecimal.ReplaceAllString(value, "")
	default:
		return strings.TrimSpace(value)
	}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
