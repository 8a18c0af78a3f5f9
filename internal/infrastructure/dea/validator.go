package dea

import (
	"fmt"
	"regexp"
	"strings"

	"CredentialScanner/internal/domain"
	"CredentialScanner/internal/ports"
)

var deaFormat = regexp.MustCompile(`^[A-Z]{2}\d{7}$`)

// registrantTypes maps the first letter of a DEA number to its registrant
// category as assigned by the DEA.
var registrantTypes = map[byte]string{
	'A': "Deprecated - Hospital/Clinic",
	'B': "Hospital/Clinic",
	'C': "Practitioner",
	'D': "Teaching Institution",
	'E': "Manufacturer",
	'F': "Distributor",
	'G': "Researcher",
	'H': "Analytical Laboratory",
	'J': "Importer",
	'K': "Exporter",
	'L': "Reverse Distributor",
	'M': "Mid-Level Practitioner",
	'P': "Narcotic Treatment Program",
	'R': "Narcotic Treatment Program",
	'S': "Narcotic Treatment Program",
	'T': "Narcotic Treatment Program",
	'U': "Narcotic Treatment Program",
	'X': "Suboxone/Buprenorphine Waiver",
}

// prescriberLicenseTypes are the license types that typically carry DEA
// registration. Anything unrecognized is conservatively assumed not to.
var prescriberLicenseTypes = map[string]bool{
	"md":                  true,
	"do":                  true,
	"physician":           true,
	"psychiatrist":        true,
	"np":                  true,
	"nurse practitioner":  true,
	"pa":                  true,
	"physician assistant": true,
	"dds":                 true,
	"dmd":                 true,
	"dentist":             true,
}

// Validator checks DEA registration numbers entirely offline.
type Validator struct{}

var _ ports.DEAValidator = Validator{}

// NewValidator returns the stateless DEA validator.
func NewValidator() Validator {
	return Validator{}
}

// Validate checks format, registrant type, last-name initial, and check
// digit. Problems accumulate: the result carries every error found in one
// pass, except a format failure, which makes further checks meaningless.
func (Validator) Validate(deaNumber, lastName string) domain.DEAValidation {
	number := strings.ToUpper(strings.TrimSpace(deaNumber))
	result := domain.DEAValidation{}

	if !deaFormat.MatchString(number) {
		result.Errors = append(result.Errors, "DEA number must be 2 letters followed by 7 digits")
		return result
	}

	result.RegistrantType = string(number[0])
	result.LastNameInitial = string(number[1])

	desc, known := registrantTypes[number[0]]
	if known {
		result.RegistrantTypeDescription = desc
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("unknown registrant type code %q", string(number[0])))
	}

	// Mid-level practitioners may carry the supervising physician's
	// last-name initial instead of their own, so 'M' skips this check.
	initial := lastNameInitial(lastName)
	if initial != "" && result.LastNameInitial != initial && number[0] != 'M' {
		result.Errors = append(result.Errors,
			fmt.Sprintf("second letter %q does not match last name initial %q", result.LastNameInitial, initial))
	}

	result.CheckDigitValid = checkDigitValid(number[2:])
	if !result.CheckDigitValid {
		result.Errors = append(result.Errors, "check digit mismatch")
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// checkDigitValid applies the DEA checksum to the 7-digit suffix: the sum of
// the odd-position digits plus twice the sum of the even-position digits,
// mod 10, must equal the final digit.
func checkDigitValid(digits string) bool {
	odd := int(digits[0]-'0') + int(digits[2]-'0') + int(digits[4]-'0')
	even := int(digits[1]-'0') + int(digits[3]-'0') + int(digits[5]-'0')
	expected := (odd + even*2) % 10
	return expected == int(digits[6]-'0')
}

func lastNameInitial(lastName string) string {
	trimmed := strings.TrimSpace(lastName)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(trimmed[:1])
}

// RequiresDEA reports whether a license type typically requires DEA
// registration. Unrecognized types never require it.
func RequiresDEA(licenseType string) bool {
	return prescriberLicenseTypes[strings.ToLower(strings.TrimSpace(licenseType))]
}

// IsMidLevel reports whether the number belongs to a mid-level practitioner.
func IsMidLevel(deaNumber string) bool {
	return firstLetter(deaNumber) == 'M'
}

// IsSuboxoneWaiver reports whether the number is a buprenorphine-waiver
// registration.
func IsSuboxoneWaiver(deaNumber string) bool {
	return firstLetter(deaNumber) == 'X'
}

func firstLetter(deaNumber string) byte {
	trimmed := strings.ToUpper(strings.TrimSpace(deaNumber))
	if trimmed == "" {
		return 0
	}
	return trimmed[0]
}
