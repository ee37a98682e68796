// Package phone canonicalizes patient phone numbers, the natural key of
// patient records.
package phone

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalid = errors.New("invalid phone number")

// unknownRegion makes the parser require an explicit "+" country code.
const unknownRegion = "ZZ"

// Canonicalize reduces raw to an international digit string (E.164 without
// the plus sign). Numbers written without a country code are read as national
// numbers of defaultCountry, given either as a calling code ("55") or a
// region ("BR"). A "00" prefix is read as an international prefix.
func Canonicalize(raw, defaultCountry string) (string, error) {
	s := strings.TrimSpace(raw)
	if !ValidChars(s) {
		return "", ErrInvalid
	}
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}

	num, err := phonenumbers.Parse(s, Region(defaultCountry))
	if err != nil {
		return "", ErrInvalid
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", ErrInvalid
	}
	return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+"), nil
}

// Region maps a calling code ("55", "+1") or a region code ("br") to the
// region used for national numbers. Unknown values yield "ZZ".
func Region(defaultCountry string) string {
	v := strings.TrimPrefix(strings.TrimSpace(defaultCountry), "+")
	if v == "" {
		return unknownRegion
	}
	if code, err := strconv.Atoi(v); err == nil {
		return phonenumbers.GetRegionCodeForCountryCode(code)
	}
	region := strings.ToUpper(v)
	if phonenumbers.GetCountryCodeForRegion(region) == 0 {
		return unknownRegion
	}
	return region
}

// ValidChars reports whether s only contains characters a phone number may
// be written with.
func ValidChars(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	s = strings.TrimPrefix(s, "+")
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits > 0
}
