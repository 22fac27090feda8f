package learning

import "slices"

var catalog = []Module{
	{
		ID:            "html-basics",
		Title:         "HTML Fundamentals",
		Description:   "Learn the basics of HTML including tags, attributes, and semantic markup.",
		Duration:      120,
		Category:      "Web Development",
		Difficulty:    Beginner,
		Icon:          "🌐",
		Prerequisites: []string{},
		LearningObjectives: []string{
			"Understand HTML document structure",
			"Master common HTML tags and attributes",
			"Learn semantic HTML best practices",
			"Create accessible web content",
		},
		Topics: []string{"HTML Elements", "Attributes", "Semantic Markup", "Accessibility", "Forms"},
		Resources: []Resource{{
			ID:          "mdn-html",
			Title:       "MDN HTML Documentation",
			Type:        ResourceDocumentation,
			URL:         "https://developer.mozilla.org/en-US/docs/Web/HTML",
			Description: "Comprehensive HTML reference guide",
		}},
	},
	{
		ID:            "css-basics",
		Title:         "CSS Essentials",
		Description:   "Master CSS fundamentals including selectors, properties, and layout techniques.",
		Duration:      180,
		Category:      "Web Development",
		Difficulty:    Beginner,
		Icon:          "🎨",
		Prerequisites: []string{"HTML Fundamentals"},
		LearningObjectives: []string{
			"Understand CSS syntax and selectors",
			"Master the box model and positioning",
			"Learn Flexbox and CSS Grid layouts",
			"Create responsive designs with media queries",
			"Apply modern CSS features and best practices",
		},
		Topics: []string{"CSS Selectors", "Box Model", "Flexbox", "CSS Grid", "Responsive Design", "Transitions", "Animations"},
		Resources: []Resource{{
			ID:          "mdn-css",
			Title:       "MDN CSS Documentation",
			Type:        ResourceDocumentation,
			URL:         "https://developer.mozilla.org/en-US/docs/Web/CSS",
			Description: "Comprehensive CSS reference guide",
		}},
	},
	{
		ID:            "javascript-basics",
		Title:         "JavaScript Fundamentals",
		Description:   "Learn JavaScript programming concepts, DOM manipulation, and basic algorithms.",
		Duration:      240,
		Category:      "Web Development",
		Difficulty:    Beginner,
		Icon:          "⚡",
		Prerequisites: []string{"HTML Fundamentals", "CSS Essentials"},
		LearningObjectives: []string{
			"Understand JavaScript syntax and data types",
			"Master functions, scope, and closures",
			"Learn DOM manipulation and event handling",
			"Implement asynchronous programming with promises",
			"Apply modern ES6+ features and best practices",
		},
		Topics: []string{"Variables & Data Types", "Functions", "DOM Manipulation", "Events", "Async Programming", "ES6+", "Error Handling"},
		Resources: []Resource{
			{
				ID:          "mdn-js",
				Title:       "MDN JavaScript Guide",
				Type:        ResourceDocumentation,
				URL:         "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Guide",
				Description: "Complete JavaScript learning guide",
			},
			{
				ID:          "javascript-info",
				Title:       "Modern JavaScript Tutorial",
				Type:        ResourceCourse,
				URL:         "https://javascript.info/",
				Description: "Comprehensive JavaScript tutorial",
			},
		},
	},
	{
		ID:          "react-basics",
		Title:       "React Fundamentals",
		Description: "Introduction to React, components, state management, and hooks.",
		Duration:    300,
		Category:    "Web Development",
		Difficulty:  Intermediate,
		Icon:        "⚛️",
	},
	{
		ID:          "nodejs-basics",
		Title:       "Node.js Fundamentals",
		Description: "Server-side JavaScript with Node.js, Express, and basic API development.",
		Duration:    280,
		Category:    "Backend Development",
		Difficulty:  Intermediate,
		Icon:        "🟢",
	},
	{
		ID:          "database-basics",
		Title:       "Database Fundamentals",
		Description: "Introduction to SQL, NoSQL databases, and data modeling concepts.",
		Duration:    200,
		Category:    "Backend Development",
		Difficulty:  Intermediate,
		Icon:        "🗄️",
	},
	{
		ID:          "git-basics",
		Title:       "Git Version Control",
		Description: "Master Git commands, branching, merging, and collaborative workflows.",
		Duration:    150,
		Category:    "DevOps",
		Difficulty:  Beginner,
		Icon:        "📦",
	},
	{
		ID:          "docker-basics",
		Title:       "Docker Fundamentals",
		Description: "Containerization with Docker, images, containers, and Docker Compose.",
		Duration:    220,
		Category:    "DevOps",
		Difficulty:  Intermediate,
		Icon:        "🐳",
	},
	{
		ID:          "react-native-basics",
		Title:       "React Native Fundamentals",
		Description: "Build mobile apps with React Native, components, and platform-specific code.",
		Duration:    320,
		Category:    "Mobile Development",
		Difficulty:  Intermediate,
		Icon:        "📱",
	},
	{
		ID:          "python-basics",
		Title:       "Python Programming",
		Description: "Learn Python fundamentals, data structures, and basic algorithms.",
		Duration:    260,
		Category:    "Data Science",
		Difficulty:  Beginner,
		Icon:        "🐍",
	},
	{
		ID:          "communication-skills",
		Title:       "Effective Communication",
		Description: "Develop verbal and written communication skills for technical professionals.",
		Duration:    180,
		Category:    "Soft Skills",
		Difficulty:  Beginner,
		Icon:        "💬",
	},
	{
		ID:          "project-management",
		Title:       "Agile Project Management",
		Description: "Learn Scrum, Kanban, and agile methodologies for software projects.",
		Duration:    200,
		Category:    "Soft Skills",
		Difficulty:  Intermediate,
		Icon:        "📋",
	},
}

// Catalog returns the built-in modules. Each call returns fresh copies
// with status not-started.
func Catalog() []Module {
	out := slices.Clone(catalog)
	for i := range out {
		out[i].Status = StatusNotStarted
	}
	return out
}

// CatalogModule returns the catalog module with id.
func CatalogModule(id string) (Module, bool) {
	for _, m := range Catalog() {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}
