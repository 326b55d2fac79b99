package utils

import (
	"regexp"
	"strings"
)

// FormatPhoneNumber formats a phone number to a standard format.
// Removes all non-digit characters and ensures it starts with country code.
func FormatPhoneNumber(phoneNumber string) string {
	re := regexp.MustCompile(`\D`)
	digits := re.ReplaceAllString(phoneNumber, "")

	// If it doesn't start with country code, assume Colombia (+57)
	if len(digits) > 0 && !strings.HasPrefix(digits, "57") {
		digits = strings.TrimLeft(digits, "0")
		digits = "57" + digits
	}

	return digits
}

// ValidatePhoneNumber validates if a phone number is a Colombian mobile number
func ValidatePhoneNumber(phoneNumber string) bool {
	re := regexp.MustCompile(`\D`)
	cleaned := re.ReplaceAllString(phoneNumber, "")

	// Strip country code if present
	if strings.HasPrefix(cleaned, "57") && len(cleaned) == 12 {
		cleaned = cleaned[2:]
	}

	// Colombian mobile numbers are 10 digits starting with 3
	if len(cleaned) != 10 {
		return false
	}

	return strings.HasPrefix(cleaned, "3")
}

// NormalizePhoneNumber normalizes phone number for database storage
func NormalizePhoneNumber(phoneNumber string) string {
	return FormatPhoneNumber(phoneNumber)
}

// DisplayPhoneNumber formats phone number for display
func DisplayPhoneNumber(phoneNumber string) string {
	formatted := FormatPhoneNumber(phoneNumber)
	if len(formatted) == 12 && strings.HasPrefix(formatted, "57") {
		// Format as +57 XXX XXX XXXX
		return "+" + formatted[:2] + " " + formatted[2:5] + " " + formatted[5:8] + " " + formatted[8:]
	}
	return phoneNumber
}
