// Package reconcile turns the carrier's message log into wallet credits: it
// classifies inbound-transfer notifications, resolves senders to customers,
// and credits each record exactly once.
package reconcile

import (
	"regexp"
	"strconv"
	"strings"
)

// Match is a classified inbound-transfer notification.
type Match struct {
	AmountIQD  int64
	SenderHint string // phone-shaped token found in the body, if any
}

// Classifier decides whether a message body announces an inbound balance
// transfer. Implementations are pure and table-testable.
type Classifier interface {
	Classify(body string) (Match, bool)
}

// Transfer notifications from the carrier mix Arabic and English wording.
var defaultKeywords = []string{
	"تحويل",  // transfer
	"استلمت", // you received
	"رصيد",   // balance
	"received",
	"transfer",
	"balance",
}

var numericToken = regexp.MustCompile(`[0-9][0-9,]*`)

// KeywordClassifier matches on transfer/balance keywords plus a numeric
// amount token.
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier builds a classifier; nil keywords selects the default set.
func NewKeywordClassifier(keywords []string) *KeywordClassifier {
	if keywords == nil {
		keywords = defaultKeywords
	}
	return &KeywordClassifier{keywords: keywords}
}

// Classify reports whether body looks like an inbound-transfer notification.
// The amount is the first numeric token short enough not to be a phone
// number; longer tokens are kept as a sender hint for records whose
// counterparty field is empty.
func (k *KeywordClassifier) Classify(body string) (Match, bool) {
	lowered := strings.ToLower(body)
	keyword := false
	for _, kw := range k.keywords {
		if strings.Contains(lowered, kw) {
			keyword = true
			break
		}
	}
	if !keyword {
		return Match{}, false
	}

	var match Match
	for _, token := range numericToken.FindAllString(body, -1) {
		digits := strings.ReplaceAll(token, ",", "")
		if len(digits) >= 10 {
			if match.SenderHint == "" {
				match.SenderHint = digits
			}
			continue
		}
		if match.AmountIQD == 0 {
			amount, err := strconv.ParseInt(digits, 10, 64)
			if err != nil || amount <= 0 {
				continue
			}
			match.AmountIQD = amount
		}
	}

	if match.AmountIQD == 0 {
		return Match{}, false
	}
	return match, true
}
