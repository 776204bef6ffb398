package catalog

// Companion captures the selectable eco-buddy attributes exposed to the frontend.
type Companion struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Species     string   `json:"species"`
	ImageURL    string   `json:"imageUrl"`
	Habitat     string   `json:"habitat"`
	Color       string   `json:"color"`
	Glyph       string   `json:"glyph"`
	OpeningLine string   `json:"openingLine"`
	Tips        []string `json:"tips,omitempty"`
	Facts       []string `json:"facts,omitempty"`
	Actions     []Action `json:"actions"`
}

// Action is a sustainability task owned by exactly one companion.
type Action struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Glyph  string `json:"glyph"`
}

// Seed provides the default companions required by the product spec.
func Seed() []Companion {
	return []Companion{
		{
			ID:          "red-panda",
			Name:        "Rusty",
			Species:     "Red Panda",
			ImageURL:    "https://media.tenor.com/3NBIXb4SaC4AAAAM/bear.gif",
			Habitat:     "Eastern Himalayan forests",
			Color:       "#c0562f",
			Glyph:       "🦊",
			OpeningLine: "Hi, I'm Rusty! My bamboo forests need friends like you.",
			Tips: []string{
				"Reducing your paper use helps save trees in my forest!",
				"Buying bamboo products from sustainable sources helps protect my habitat.",
			},
			Facts: []string{
				"My bamboo forests are shrinking due to deforestation and climate change.",
				"There are fewer than 10,000 of us left in the wild today.",
			},
			Actions: []Action{
				{Name: "Save Water", Points: 10, Glyph: "💧"},
				{Name: "Recycle", Points: 10, Glyph: "♻️"},
				{Name: "Plant Trees", Points: 15, Glyph: "🌳"},
				{Name: "Clean Up", Points: 10, Glyph: "🧹"},
			},
		},
		{
			ID:          "koala",
			Name:        "Kiki",
			Species:     "Koala",
			ImageURL:    "https://media.tenor.com/5XKP-A-hxQIAAAAj/koala-day-koala-day-nft.gif",
			Habitat:     "Eucalyptus forests of Eastern Australia",
			Color:       "#7b8a72",
			Glyph:       "🐨",
			OpeningLine: "G'day, I'm Kiki! Ready to help my eucalyptus home?",
			Tips: []string{
				"Conserving water helps prevent drought that can lead to bushfires in my home.",
				"Reducing plastic waste helps protect wildlife in Australia like me!",
			},
			Facts: []string{
				"Bushfires have destroyed millions of acres of my home.",
				"Urban development is breaking up our forests.",
			},
			Actions: []Action{
				{Name: "Bring Your Own Bag", Points: 5, Glyph: "🛍️"},
				{Name: "Refill Your Water Bottle", Points: 5, Glyph: "🚰"},
				{Name: "Turn Off Lights", Points: 5, Glyph: "💡"},
				{Name: "Walk or Bike Instead of Driving", Points: 10, Glyph: "🚲"},
				{Name: "Eat a Plant-Based Meal", Points: 10, Glyph: "🥗"},
				{Name: "Pick Up 3 Pieces of Litter", Points: 10, Glyph: "🧹"},
				{Name: "Unplug Electronics", Points: 5, Glyph: "🔌"},
				{Name: "Take a 5-Minute Shower", Points: 5, Glyph: "🚿"},
				{Name: "Recycle Something Today", Points: 5, Glyph: "♻️"},
				{Name: "Educate a Friend", Points: 5, Glyph: "📚"},
			},
		},
	}
}
