package stops

import (
	"fmt"
	"strings"
)

// Catalog is the fixed, ordered list of pickup stops. It is built once at
// startup from configuration and never mutated afterwards.
type Catalog struct {
	stops []string
}

func NewCatalog(stops []string) *Catalog {
	owned := make([]string, len(stops))
	copy(owned, stops)
	return &Catalog{stops: owned}
}

func (c *Catalog) Count() int {
	return len(c.stops)
}

// ByIndex returns the stop at the 1-based position n.
func (c *Catalog) ByIndex(n int) (string, error) {
	if n < 1 || n > len(c.stops) {
		return "", fmt.Errorf("stop number %d out of range (valid: 1-%d)", n, len(c.stops))
	}
	return c.stops[n-1], nil
}

// MatchByName finds the first stop whose name contains the input or is
// contained in it, case-insensitively. Catalog order breaks ties, which
// keeps short inputs predictable for passengers who learned the old
// behavior; do not replace with scored fuzzy matching.
func (c *Catalog) MatchByName(text string) (string, bool) {
	textLower := strings.ToLower(text)
	for _, stop := range c.stops {
		stopLower := strings.ToLower(stop)
		if strings.Contains(textLower, stopLower) || strings.Contains(stopLower, textLower) {
			return stop, true
		}
	}
	return "", false
}

// MenuText renders the numbered stop listing sent to passengers.
func (c *Catalog) MenuText() string {
	var b strings.Builder
	b.WriteString("Please reply with the number of your preferred stop:\n\n")
	for idx, stop := range c.stops {
		fmt.Fprintf(&b, "%d. %s\n", idx+1, stop)
	}
	return b.String()
}
