package calc

import (
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// ErrNoExpenses is returned when the monthly burn is not positive.
var ErrNoExpenses = errors.New("monthly expenses must be greater than zero")

const (
	defaultRunwayMonths = 12
	bufferShare         = 0.2
	minTipMonths        = 6
)

// FundingEstimate breaks down how much money a runway needs.
type FundingEstimate struct {
	NetBurn      float64 `json:"net_burn"`
	RunwayMonths float64 `json:"runway_months"`
	Base         float64 `json:"base"`
	Buffer       float64 `json:"buffer"`
	Total        float64 `json:"total"`
	TipMonths    int     `json:"tip_months"`
}

// Funding estimates the money needed to cover runwayMonths of net burn plus
// a 20% buffer. A non-positive runway means 12 months.
func Funding(monthlyBurn, revenue, runwayMonths float64) (FundingEstimate, error) {
	if monthlyBurn <= 0 || math.IsNaN(monthlyBurn) {
		return FundingEstimate{}, ErrNoExpenses
	}
	if runwayMonths <= 0 || math.IsNaN(runwayMonths) {
		runwayMonths = defaultRunwayMonths
	}

	net := monthlyBurn - revenue
	base := net * runwayMonths
	buffer := base * bufferShare

	return FundingEstimate{
		NetBurn:      net,
		RunwayMonths: runwayMonths,
		Base:         base,
		Buffer:       buffer,
		Total:        base + buffer,
		TipMonths:    max(minTipMonths, int(math.Floor(runwayMonths/2))),
	}, nil
}

// Lines renders the estimate as human-readable breakdown lines.
func (f FundingEstimate) Lines() []string {
	return []string{
		"Total: " + Money(f.Total),
		"Monthly net burn: " + Money(f.NetBurn),
		fmt.Sprintf("Runway needed: %s months", humanize.Ftoa(f.RunwayMonths)),
		"Base funding: " + Money(f.Base),
		"Buffer (20%): " + Money(f.Buffer),
		fmt.Sprintf("Tip: Start with %d months runway, then raise more as you prove traction.", f.TipMonths),
	}
}

// Money formats a dollar amount with thousands separators.
func Money(v float64) string {
	if v < 0 {
		return "-$" + humanize.Commaf(-v)
	}
	return "$" + humanize.Commaf(v)
}
