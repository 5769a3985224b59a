package metrics

import (
	"github.com/shopspring/decimal"
)

// Put/call ratio interpretation labels.
const (
	PutCallVeryBearish   = "Very Bearish"
	PutCallBearish       = "Bearish"
	PutCallNeutral       = "Neutral"
	PutCallBullish       = "Bullish"
	PutCallVeryBullish   = "Very Bullish"
	PutCallIndeterminate = "Indeterminate"
)

// Put/call interpretation cut points. A high ratio means heavy put activity,
// read as bearish positioning.
var (
	putCallVeryBearishAbove = decimal.NewFromFloat(1.3)
	putCallBearishAbove     = decimal.NewFromFloat(1.0)
	putCallNeutralAbove     = decimal.NewFromFloat(0.7)
	putCallBullishAbove     = decimal.NewFromFloat(0.5)
)

// InterpretPutCall labels a put/call ratio. A nil ratio (zero denominator)
// is indeterminate.
func InterpretPutCall(ratio *decimal.Decimal) string {
	switch {
	case ratio == nil:
		return PutCallIndeterminate
	case ratio.GreaterThan(putCallVeryBearishAbove):
		return PutCallVeryBearish
	case ratio.GreaterThan(putCallBearishAbove):
		return PutCallBearish
	case ratio.GreaterThan(putCallNeutralAbove):
		return PutCallNeutral
	case ratio.GreaterThan(putCallBullishAbove):
		return PutCallBullish
	default:
		return PutCallVeryBullish
	}
}
