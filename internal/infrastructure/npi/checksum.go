package npi

// npiPrefix is the card-issuer prefix prepended before computing the Luhn
// check digit, per the NPI enumeration standard.
const npiPrefix = "80840"

// ValidateNPIChecksum verifies the Luhn check digit embedded in a 10-digit
// NPI. Pure and offline; useful for pre-validation without a registry call.
func ValidateNPIChecksum(npi string) bool {
	if len(npi) != 10 {
		return false
	}
	for i := 0; i < len(npi); i++ {
		if npi[i] < '0' || npi[i] > '9' {
			return false
		}
	}

	payload := npiPrefix + npi[:9]

	sum := 0
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	check := (10 - sum%10) % 10
	return check == int(npi[9]-'0')
}
