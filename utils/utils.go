package utils

import (
	"regexp"
	"strings"
	"time"

	"nazigi-sms/types"

	"github.com/gofiber/fiber/v2"
)

var nonDialable = regexp.MustCompile(`[^\d+]`)

// NormalizePhoneNumber canonicalizes a raw phone string into a dialable
// format: strip everything that is not a digit or '+', replace a leading 0
// with the country code prefix, otherwise ensure a '+' prefix. Idempotent.
func NormalizePhoneNumber(phone, countryPrefix string) string {
	phone = nonDialable.ReplaceAllString(phone, "")

	if strings.HasPrefix(phone, "0") {
		phone = countryPrefix + phone[1:]
	} else if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	return phone
}

// ValidatePhoneNumber reports whether a normalized number looks like a
// dialable international number: a '+' followed by 9 to 15 digits.
func ValidatePhoneNumber(phone string) bool {
	phone = strings.TrimSpace(phone)

	pattern := `^\+[0-9]{9,15}$`
	re := regexp.MustCompile(pattern)

	return re.MatchString(phone)
}

// CreateSanitizedLogEntry creates a deep copied log entry for the async
// request logger. Copies guard against fasthttp buffer reuse after the
// handler returns.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))
	requestBody := string(append([]byte(nil), c.Body()...))
	responseBody := string(append([]byte(nil), c.Response().Body()...))

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	return types.LogEntry{
		Method:          method,
		URL:             url,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}
