package calc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailed = "students keep missing internship deadlines"

func TestScoreIdea(t *testing.T) {
	tests := []struct {
		name    string
		in      IdeaInput
		points  int
		max     int
		percent int
		rating  string
	}{
		{
			name: "strong idea",
			in: IdeaInput{
				Problem: detailed, Audience: detailed, CurrentSolutions: detailed, YourSolution: detailed,
				WillingnessToPay: "high", MarketSize: "large", MVPFeasibility: "yes",
			},
			points: 120, max: 120, percent: 100, rating: "Excellent!",
		},
		{
			name: "short answers count toward max only",
			in: IdeaInput{
				Problem: "too short", Audience: detailed,
				WillingnessToPay: "medium", MarketSize: "medium", MVPFeasibility: "maybe",
			},
			points: 50, max: 90, percent: 56, rating: "Needs Work",
		},
		{
			name: "unanswered text is ignored",
			in: IdeaInput{
				WillingnessToPay: "high", MarketSize: "medium", MVPFeasibility: "maybe",
			},
			points: 45, max: 60, percent: 75, rating: "Good Potential",
		},
		{
			name:   "nothing answered",
			points: 0, max: 60, percent: 0, rating: "Needs Work",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ScoreIdea(tt.in)
			assert.Equal(t, tt.points, s.Points)
			assert.Equal(t, tt.max, s.Max)
			assert.Equal(t, tt.percent, s.Percent)
			assert.Equal(t, tt.rating, s.Rating)
			assert.Len(t, s.Recommendations, 4)
		})
	}
}

func TestScoreIdea_RatingBoundaries(t *testing.T) {
	s := ScoreIdea(IdeaInput{WillingnessToPay: "high", MarketSize: "large", MVPFeasibility: "no"})
	assert.Equal(t, 67, s.Percent)
	assert.Equal(t, "score-medium", s.Class)

	s = ScoreIdea(IdeaInput{YourSolution: detailed, WillingnessToPay: "high", MarketSize: "large", MVPFeasibility: "maybe"})
	assert.Equal(t, 87, s.Percent)
	assert.Equal(t, "score-high", s.Class)
}

func TestFunding(t *testing.T) {
	f, err := Funding(5000, 1000, 0)
	require.NoError(t, err)

	assert.Equal(t, 4000.0, f.NetBurn)
	assert.Equal(t, 12.0, f.RunwayMonths)
	assert.Equal(t, 48000.0, f.Base)
	assert.Equal(t, 9600.0, f.Buffer)
	assert.Equal(t, 57600.0, f.Total)
	assert.Equal(t, 6, f.TipMonths)

	lines := f.Lines()
	assert.Equal(t, "Total: $57,600", lines[0])
	assert.Equal(t, "Runway needed: 12 months", lines[2])
}

func TestFunding_LongRunwayTip(t *testing.T) {
	f, err := Funding(2000, 0, 18)
	require.NoError(t, err)
	assert.Equal(t, 9, f.TipMonths)
	assert.Equal(t, 43200.0, f.Total)
}

func TestFunding_RequiresExpenses(t *testing.T) {
	_, err := Funding(0, 100, 12)
	assert.ErrorIs(t, err, ErrNoExpenses)

	_, err = Funding(-5, 0, 12)
	assert.ErrorIs(t, err, ErrNoExpenses)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$1,234,567", Money(1234567))
	assert.Equal(t, "-$1,200", Money(-1200))
	assert.Equal(t, "$0", Money(0))
}

func TestPatentCost(t *testing.T) {
	tests := []struct {
		kind, method string
		low, high    int
		rng          string
	}{
		{"utility", "self", 300, 5300, "$300 - $5,300"},
		{"utility", "attorney", 8000, 13000, "$8,000 - $13,000"},
		{"design", "self", 200, 5200, "$200 - $5,200"},
		{"provisional", "attorney", 2000, 7000, "$2,000 - $7,000"},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.method, func(t *testing.T) {
			p, err := PatentCost(tt.kind, tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.low, p.Low)
			assert.Equal(t, tt.high, p.High)
			assert.Equal(t, tt.rng, p.Range())
			assert.NotEmpty(t, p.Details)
		})
	}
}

func TestPatentCost_Unknown(t *testing.T) {
	_, err := PatentCost("trademark", "self")
	assert.Error(t, err)

	_, err = PatentCost("utility", "friend")
	assert.Error(t, err)
}

func TestLearningPath(t *testing.T) {
	p := LearningPath("idea")
	assert.Equal(t, "idea", p.Stage)
	require.Len(t, p.Steps, 3)
	assert.True(t, strings.HasPrefix(p.Steps[0].Title, "1. Validate"))

	p = LearningPath("building")
	assert.Equal(t, "1. Finish Your MVP", p.Steps[0].Title)

	p = LearningPath("")
	assert.Equal(t, "growing", p.Stage)
	assert.Equal(t, "1. Grow Your User Base", p.Steps[0].Title)
}
