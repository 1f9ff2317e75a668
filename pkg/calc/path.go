package calc

// PathStep is one block of a learning path.
type PathStep struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Path is the learning path recommended for a founder stage.
type Path struct {
	Stage string     `json:"stage"`
	Steps []PathStep `json:"steps"`
}

var paths = map[string][]PathStep{
	"idea": {
		{"1. Validate Your Idea", []string{"Use the Idea Validator tool", "Talk to 10 potential users", "Research competitors"}},
		{"2. Start Building", []string{"Create a simple landing page", "Build an MVP (2-4 weeks)", "Get first 10 users"}},
		{"Recommended Resources", []string{"Startups 101 page", "MVP Progress Tracker", "Templates page for landing page"}},
	},
	"validating": {
		{"1. Complete Validation", []string{"Talk to 20+ potential users", "Validate willingness to pay", "Build a prototype/MVP"}},
		{"2. Iterate Quickly", []string{"Get feedback from early users", "Improve based on feedback", "Focus on core features only"}},
		{"Recommended Resources", []string{"Customer Interview Script (Templates)", "Discussion board for feedback", "Open Data page for market research"}},
	},
	"building": {
		{"1. Finish Your MVP", []string{"Use MVP Progress Tracker", "Focus on core features only", "Deploy and launch"}},
		{"2. Get Users", []string{"Launch on Product Hunt", "Share in relevant communities", "Collect feedback actively"}},
		{"Recommended Resources", []string{"Tools & Resources page", "Success Stories for inspiration", "Discussion board for support"}},
	},
	"growing": {
		{"1. Grow Your User Base", []string{"Focus on retention", "Improve product-market fit", "Scale marketing channels"}},
		{"2. Consider Next Steps", []string{"Raise funding if needed", "Build team if necessary", "Expand to new markets"}},
		{"Recommended Resources", []string{"Funding Calculator tool", "Patents & IP page", "Tools & Resources for scaling"}},
	},
}

// LearningPath returns the path for a stage. Unknown stages get the path for
// founders who already have users.
func LearningPath(stage string) Path {
	steps, ok := paths[stage]
	if !ok {
		stage = "growing"
		steps = paths[stage]
	}
	return Path{Stage: stage, Steps: steps}
}
