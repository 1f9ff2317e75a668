package calc

import "fmt"

// PatentEstimate is a rough filing cost range.
type PatentEstimate struct {
	Type    string `json:"type"`
	Method  string `json:"method"`
	Low     int    `json:"low"`
	High    int    `json:"high"`
	Details string `json:"details"`
}

const patentSpread = 5000

type patentCost struct {
	self     int
	attorney int
	details  string
}

var patentCosts = map[string]patentCost{
	"utility": {
		self:     300,
		attorney: 8000,
		details:  "Utility patents protect how an invention works. Includes filing fees for micro-entity ($75), small entity ($150), or standard entity ($300).",
	},
	"design": {
		self:     200,
		attorney: 2000,
		details:  "Design patents protect how something looks. Generally simpler and cheaper than utility patents.",
	},
	"provisional": {
		self:     100,
		attorney: 2000,
		details:  "Provisional patents give you 12 months to file a full patent. Good for early-stage startups.",
	},
}

// PatentCost estimates filing costs for a patent type ("utility", "design",
// "provisional") and filing method ("self", "attorney").
func PatentCost(patentType, method string) (PatentEstimate, error) {
	c, ok := patentCosts[patentType]
	if !ok {
		return PatentEstimate{}, fmt.Errorf("unknown patent type %q", patentType)
	}

	var total int
	switch method {
	case "self":
		total = c.self
	case "attorney":
		total = c.attorney
	default:
		return PatentEstimate{}, fmt.Errorf("unknown filing method %q", method)
	}

	return PatentEstimate{
		Type:    patentType,
		Method:  method,
		Low:     total,
		High:    total + patentSpread,
		Details: c.details,
	}, nil
}

// Range formats the estimate as "$low - $high".
func (p PatentEstimate) Range() string {
	return Money(float64(p.Low)) + " - " + Money(float64(p.High))
}
