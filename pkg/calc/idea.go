// Package calc holds the site's planning calculators: idea validation score,
// funding needs, patent cost and the recommended learning path.
package calc

import (
	"math"
	"unicode/utf8"
)

// IdeaInput holds answers to the idea validator questions.
type IdeaInput struct {
	Problem          string `json:"problem"`
	Audience         string `json:"audience"`
	CurrentSolutions string `json:"current_solutions"`
	YourSolution     string `json:"your_solution"`
	WillingnessToPay string `json:"willingness_to_pay"` // high, medium, low
	MarketSize       string `json:"market_size"`        // large, medium, small
	MVPFeasibility   string `json:"mvp_feasibility"`    // yes, maybe, no
}

// IdeaScore is the validator verdict.
type IdeaScore struct {
	Points          int      `json:"points"`
	Max             int      `json:"max"`
	Percent         int      `json:"percent"`
	Rating          string   `json:"rating"`
	Class           string   `json:"class"`
	Recommendations []string `json:"recommendations"`
}

const (
	textPoints    = 15
	choicePoints  = 20
	detailedAfter = 20 // characters
)

var (
	payPoints    = map[string]int{"high": 20, "medium": 10, "low": 0}
	marketPoints = map[string]int{"large": 20, "medium": 15, "small": 5}
	mvpPoints    = map[string]int{"yes": 20, "maybe": 10, "no": 0}
)

// ScoreIdea scores validator answers. Free-text answers only count toward the
// maximum once answered; the three choice questions always do.
func ScoreIdea(in IdeaInput) IdeaScore {
	var points, max int

	for _, answer := range []string{in.Problem, in.Audience, in.CurrentSolutions, in.YourSolution} {
		n := utf8.RuneCountInString(answer)
		if n == 0 {
			continue
		}
		max += textPoints
		if n > detailedAfter {
			points += textPoints
		}
	}

	for _, c := range []struct {
		table  map[string]int
		answer string
	}{
		{payPoints, in.WillingnessToPay},
		{marketPoints, in.MarketSize},
		{mvpPoints, in.MVPFeasibility},
	} {
		max += choicePoints
		points += c.table[c.answer]
	}

	pct := 0
	if max > 0 {
		pct = int(math.Round(float64(points) / float64(max) * 100))
	}

	s := IdeaScore{Points: points, Max: max, Percent: pct}
	switch {
	case pct >= 80:
		s.Rating, s.Class = "Excellent!", "score-high"
		s.Recommendations = []string{
			"Start building your MVP immediately",
			"Talk to potential customers this week",
			"Create a landing page to gauge interest",
			"Set a launch date within 4-6 weeks",
		}
	case pct >= 60:
		s.Rating, s.Class = "Good Potential", "score-medium"
		s.Recommendations = []string{
			"Refine your problem definition",
			"Talk to 10+ potential users",
			"Research competitors more deeply",
			"Validate willingness to pay before building",
		}
	default:
		s.Rating, s.Class = "Needs Work", "score-low"
		s.Recommendations = []string{
			"Talk to more potential users about the problem",
			"Research existing solutions thoroughly",
			"Consider if this is the right problem to solve",
			"Look for problems people actively complain about",
		}
	}
	return s
}
