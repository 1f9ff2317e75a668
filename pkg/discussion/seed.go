package discussion

import "time"

type seedThread struct {
	age      time.Duration
	topic    string
	category string
	message  string
	replies  []string
}

var seedThreads = []seedThread{
	{
		age:      2 * 24 * time.Hour,
		topic:    "How do I validate my startup idea without spending money?",
		category: "startups",
		message:  "I have an idea for an app but I'm not sure if people would actually use it. What are some free ways to test if there's demand?",
		replies: []string{
			"Try creating a simple landing page with a signup form. If people sign up, there's interest!",
			"Talk to potential users directly. Go to places where your target audience hangs out and ask them questions.",
			"Use social media polls and surveys. Twitter, Reddit, and Facebook groups are great for this.",
			"Build a minimal prototype (MVP) and show it to people. You don't need a full app to test the concept.",
			"Check if similar products exist and how they're doing. If competitors are successful, that's actually a good sign!",
		},
	},
	{
		age:      5 * 24 * time.Hour,
		topic:    "Best AI tools for student projects?",
		category: "ai",
		message:  "Looking for recommendations on AI tools that are actually useful for building a small project. What have you tried?",
		replies: []string{
			"ChatGPT is great for generating code and debugging. I use it all the time for my projects.",
			"Claude (Anthropic) is excellent for longer conversations and analyzing documents.",
			"For image generation, try DALL-E or Midjourney. Both have free tiers for students.",
			"GitHub Copilot is amazing if you're coding. It's like having a pair programmer.",
			"For data analysis, try Google's Bard or Microsoft Copilot. Both integrate well with other tools.",
			"Don't forget about Hugging Face - it has tons of free AI models you can use.",
			"For text-to-speech, ElevenLabs has a great free tier. Perfect for adding voice to projects.",
			"If you need AI for video, Runway ML has some cool features. The free tier is limited but useful.",
			"For API access, OpenAI and Anthropic both have student-friendly pricing.",
			"Check out Replicate - it lets you run AI models without setting up infrastructure.",
			"For AI-powered search, Perplexity is great. It cites sources which is helpful for research.",
			"Don't overlook browser extensions like Monica or AIPRM - they add AI to your workflow.",
		},
	},
	{
		age:      7 * 24 * time.Hour,
		topic:    "Do I need a patent for my app idea?",
		category: "ip",
		message:  "I'm building a mobile app and wondering if I should file for a patent. Is it worth it for a student project?",
		replies: []string{
			"For most student projects, patents aren't necessary. Focus on building and getting users first.",
			"Patents are expensive (thousands of dollars) and take years. For a student project, that money is better spent on development.",
			"Software patents are also hard to get. Most apps don't qualify because they're not novel enough.",
			"If you're really concerned, you can file a provisional patent yourself for much cheaper (~$100-200).",
			"Focus on trademarks for your app name instead - that's more practical and affordable.",
			"Keep good records of your development process. That can help if you ever need to prove you created it first.",
			"Most successful startups file patents later, after they have traction and funding. Don't worry about it now.",
			"If your app becomes successful and you get investors, they'll help you with IP strategy. Focus on building first!",
		},
	},
}

// Seed builds the sample discussions relative to now. Ids derive from now, so
// two seedings at different times produce different ids.
func Seed(now time.Time) []Discussion {
	out := make([]Discussion, 0, len(seedThreads))
	for _, st := range seedThreads {
		base := now.Add(-st.age).UnixMilli()
		label, _ := CategoryLabel(st.category)

		replies := make([]Reply, len(st.replies))
		for i, msg := range st.replies {
			at := base + int64(i+1)*time.Second.Milliseconds()
			replies[i] = Reply{ID: at, Message: msg, Timestamp: at}
		}

		out = append(out, Discussion{
			ID:            base,
			Topic:         st.topic,
			Category:      st.category,
			CategoryLabel: label,
			Message:       st.message,
			Timestamp:     base,
			Replies:       len(replies),
			IsSample:      true,
			RepliesList:   replies,
		})
	}
	return out
}
