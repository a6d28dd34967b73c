package tour

// Step tables for the two built-in tours. Targets name anchors in the
// dashboard layout; the hosting view maps them to rectangles via its
// AnchorResolver.

// DashboardSteps returns the dashboard walkthrough shown on the first
// visit after login.
func DashboardSteps() []Step {
	return []Step{
		{
			ID:          "welcome",
			Title:       "Welcome to KeyPilot",
			Description: "This dashboard manages your API keys and shows how the semantic router handles your traffic.",
			Target:      "dashboard-header",
			Placement:   PlacementBottom,
		},
		{
			ID:          "stats",
			Title:       "Usage at a glance",
			Description: "These cards summarize requests, cache hits, and routing decisions for your keys.",
			Target:      "stats-cards",
			Placement:   PlacementBottom,
			Highlighted: true,
		},
		{
			ID:          "key-table",
			Title:       "Your API keys",
			Description: "Every key you create is listed here with its template and rate limits.",
			Target:      "key-table",
			Placement:   PlacementRight,
			Highlighted: true,
		},
		{
			ID:          "add-key",
			Title:       "Create a key",
			Description: "Add a new API key from a template. A short tutorial walks you through the form.",
			Target:      "add-key-button",
			Placement:   PlacementBottomLeft,
			Highlighted: true,
			Action:      "click",
		},
		{
			ID:          "playground",
			Title:       "Try the playground",
			Description: "Send test prompts through the router and inspect intents, cache hits, and trends.",
			Target:      "playground-tab",
			Placement:   PlacementBottomRight,
			Highlighted: true,
		},
	}
}

// AddKeySteps returns the add-key form tutorial shown the first time
// the form is opened.
func AddKeySteps() []Step {
	return []Step{
		{
			ID:          "key-name",
			Title:       "Name your key",
			Description: "Pick a name that identifies where this key will be used.",
			Target:      "key-name-field",
			Placement:   PlacementRight,
			Highlighted: true,
		},
		{
			ID:          "template",
			Title:       "Choose a template",
			Description: "Templates preset routing rules and rate limits for common workloads.",
			Target:      "template-select",
			Placement:   PlacementRight,
			Highlighted: true,
		},
		{
			ID:          "rate-limit",
			Title:       "Set limits",
			Description: "Adjust the per-minute budget. You can change this later.",
			Target:      "rate-limit-field",
			Placement:   PlacementTop,
			Highlighted: true,
		},
		{
			ID:          "submit",
			Title:       "Create it",
			Description: "Submit the form and your key appears in the table, ready to use.",
			Target:      "submit-button",
			Placement:   PlacementTop,
			Action:      "click",
		},
	}
}
