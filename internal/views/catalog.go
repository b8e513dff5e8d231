package views

// Card is a titled blurb shown on the home and features panels
type Card struct {
	Title       string
	Description string
}

// Suggestion is a prompt the user can send with one key press
type Suggestion struct {
	Label  string
	Prompt string
}

// Page is the static content of one panel
type Page struct {
	View     View
	NavLabel string
	Title    string
	Subtitle string
	Cards    []Card
	Prompts  []Suggestion
}

var pages = map[View]Page{
	Home: {
		View:     Home,
		NavLabel: "What is AGI",
		Title:    "Artificial General Intelligence",
		Subtitle: "Understands, analyzes, and responds to human intelligence at a high level.",
		Cards: []Card{
			{Title: "Understand", Description: "Processes information like a human brain"},
			{Title: "Analyze", Description: "Evaluates data and contexts deeply"},
			{Title: "Decide", Description: "Makes autonomous high-level decisions"},
		},
	},
	Conversation: {
		View:     Conversation,
		NavLabel: "Chat Panel",
		Title:    "How can I help you today?",
		Subtitle: "I am ready to analyze data, write code, and solve complex problems with high precision.",
		Prompts: []Suggestion{
			{Label: "Explain Quantum Computing", Prompt: "Explain Quantum Computing"},
			{Label: "Python Data Analysis Script", Prompt: "Write a Python script for data analysis"},
		},
	},
	Features: {
		View:     Features,
		NavLabel: "Features",
		Title:    "System Capabilities",
		Subtitle: "Advanced neural modules activated for high-performance tasks.",
		Cards: []Card{
			{
				Title:       "GK Analysis Engine",
				Description: "Deep scanning of general knowledge databases to answer complex historical, scientific, and cultural queries with high precision.",
			},
			{
				Title:       "Code Generation",
				Description: "Production-grade code synthesis in Python, TypeScript, Rust, and Go. Supports complex algorithms and full-stack architecture.",
			},
			{
				Title:       "Logical Reasoning",
				Description: "Step-by-step chain of thought processing for riddles, math problems, and strategic decision making.",
			},
			{
				Title:       "Creative Studio",
				Description: "Generative text for storytelling, poetry, and scriptwriting with nuanced emotional intelligence.",
			},
		},
	},
	Examples: {
		View:     Examples,
		NavLabel: "Examples",
		Title:    "Example Prompts",
		Subtitle: "Test the AGI with these complex scenarios.",
		Prompts: []Suggestion{
			{Label: "3D dashboard component", Prompt: "Generate a React component for a 3D data visualization dashboard using Three.js"},
			{Label: "Quantum geopolitics", Prompt: "Analyze the geopolitical implications of quantum computing in the next decade"},
			{Label: "Riddle", Prompt: "Solve this riddle: I speak without a mouth and hear without ears. I have no body, but I come alive with wind. What am I?"},
			{Label: "NeRF for kids", Prompt: "Explain the concept of Neural Radiance Fields (NeRF) to a 10-year-old"},
		},
	},
	Safety: {
		View:     Safety,
		NavLabel: "Safety",
		Title:    "Safety Protocols",
		Subtitle: "Core directives ensuring safe and ethical operation.",
		Cards: []Card{
			{
				Title:       "Ethical Alignment",
				Description: "The AGI is aligned with human values, prioritizing helpfulness, harmlessness, and honesty. It refuses to generate harmful, biased, or malicious content.",
			},
			{
				Title:       "Data Privacy",
				Description: "All interactions are processed with strict privacy standards. No personal data is permanently stored in the training set without consent.",
			},
		},
	},
}

// PageFor returns the catalog entry for v. The second result is false for
// views outside the enumeration.
func PageFor(v View) (Page, bool) {
	p, ok := pages[v]
	if !ok {
		return Page{}, false
	}
	p.Cards = append([]Card(nil), p.Cards...)
	p.Prompts = append([]Suggestion(nil), p.Prompts...)
	return p, true
}
