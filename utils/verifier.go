package utils

import (
	"strings"

	"github.com/badoux/checkmail"
	"github.com/likexian/whois"
	"github.com/sirupsen/logrus"
)

// VerificationResult is the outcome of verifying a captured lead email.
type VerificationResult struct {
	Email        string `json:"email"`
	Status       string `json:"status"` // valid, invalid, disposable, unknown
	Details      string `json:"details"`
	IsBounceRisk bool   `json:"is_bounce_risk"`
}

var disposableDomains = map[string]bool{
	"mailinator.com":    true,
	"guerrillamail.com": true,
	"10minutemail.com":  true,
	"tempmail.com":      true,
	"throwaway.email":   true,
	"yopmail.com":       true,
	"trashmail.com":     true,
	"sharklasers.com":   true,
}

// Common email typos worth rejecting at capture time
var commonTypos = map[string]string{
	"gmai.com":   "gmail.com",
	"gmal.com":   "gmail.com",
	"gmail.co":   "gmail.com",
	"yaho.com":   "yahoo.com",
	"hotmai.com": "hotmail.com",
	"outlok.com": "outlook.com",
}

// VerifyLeadEmail checks a lead email at capture time: syntax, obvious typos,
// disposable domains and MX records. WHOIS is consulted best-effort so a slow
// registry never blocks lead capture.
func VerifyLeadEmail(email string, logger *logrus.Logger) *VerificationResult {
	email = strings.ToLower(strings.TrimSpace(email))
	result := &VerificationResult{
		Email:        email,
		Status:       "unknown",
		IsBounceRisk: true,
	}

	if err := checkmail.ValidateFormat(email); err != nil {
		result.Status = "invalid"
		result.Details = "Invalid email format: " + err.Error()
		return result
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		result.Status = "invalid"
		result.Details = "Invalid email format"
		return result
	}
	localPart, domain := parts[0], parts[1]

	if suggested, ok := commonTypos[domain]; ok {
		result.Status = "invalid"
		result.Details = "Possible typo, did you mean " + localPart + "@" + suggested + "?"
		return result
	}

	if disposableDomains[domain] {
		result.Status = "disposable"
		result.Details = "Disposable email domain"
		return result
	}

	if err := checkmail.ValidateHost(domain); err != nil {
		result.Status = "invalid"
		result.Details = "Domain validation failed: " + err.Error()
		return result
	}

	if _, err := whois.Whois(domain); err != nil {
		logger.WithField("domain", domain).WithError(err).Debug("WHOIS lookup failed")
	}

	result.Status = "valid"
	result.IsBounceRisk = false
	return result
}
