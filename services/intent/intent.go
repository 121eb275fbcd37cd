package intent

import (
	"strconv"
	"strings"
)

// State is the conversation state derived from the passenger row: no row
// yet, row with opted_in=false, or row with opted_in=true.
type State int

const (
	StateUnknown State = iota
	StatePending
	StateActive
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Kind identifies which handler an inbound message routes to. Exactly one
// kind is produced per message.
type Kind int

const (
	KindOptInRequest Kind = iota
	KindOptInConfirm
	KindOptOut
	KindStopByNumber
	KindStopByName
)

func (k Kind) String() string {
	switch k {
	case KindOptInRequest:
		return "opt_in_request"
	case KindOptInConfirm:
		return "opt_in_confirm"
	case KindOptOut:
		return "opt_out"
	case KindStopByNumber:
		return "stop_by_number"
	default:
		return "stop_by_name"
	}
}

// Intent is the classified form of one inbound message.
type Intent struct {
	Kind       Kind
	StopNumber int    // set for KindStopByNumber
	Text       string // trimmed original text, set for KindStopByName
}

var yesWords = map[string]bool{
	"yes": true, "y": true, "opt in": true, "optin": true,
}

var noWords = map[string]bool{
	"no": true, "n": true, "opt out": true, "optout": true, "stop": true,
}

// Classify maps an inbound message to exactly one intent. Precedence is
// fixed: opt-in keyword, then state-aware 1/2 and yes/no replies, then
// all-digit stop numbers, then free-text stop names.
func Classify(state State, keyword, rawText string) Intent {
	text := strings.TrimSpace(rawText)
	textLower := strings.ToLower(text)
	keywordLower := strings.ToLower(keyword)

	// The opt-in keyword wins regardless of state. Carriers deliver
	// either the bare keyword or the keyword followed by extra text.
	if textLower == keywordLower || strings.HasPrefix(textLower, keywordLower) {
		return Intent{Kind: KindOptInRequest}
	}

	// A pending passenger answers the opt-in prompt with 1 or 2.
	if state == StatePending {
		if text == "1" || yesWords[textLower] {
			return Intent{Kind: KindOptInConfirm}
		}
		if text == "2" || noWords[textLower] {
			return Intent{Kind: KindOptOut}
		}
	}

	if yesWords[textLower] {
		return Intent{Kind: KindOptInConfirm}
	}
	if noWords[textLower] {
		return Intent{Kind: KindOptOut}
	}

	if isAllDigits(text) {
		n, err := strconv.Atoi(text)
		if err != nil {
			// Digit strings too long for an int still classify as a
			// number; the handler rejects them as out of range.
			n = -1
		}
		return Intent{Kind: KindStopByNumber, StopNumber: n}
	}

	return Intent{Kind: KindStopByName, Text: text}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
