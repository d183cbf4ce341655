package ledger

// IQDToCents converts a carrier-side IQD amount into USD cents at the fixed
// 1000 IQD = $1 rate, truncating to whole cents.
func IQDToCents(amountIQD int64) int64 {
	return amountIQD / 10
}

// CentsToUSD renders cents as a dollar amount for API responses.
func CentsToUSD(cents int64) float64 {
	return float64(cents) / 100
}
