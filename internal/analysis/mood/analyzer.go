// Package mood derives a companion mood from the happiness meter and the
// user's latest utterance, used to tint generated dialogue.
package mood

import "strings"

// Label is a mood the prompt builder knows how to phrase.
type Label string

const (
	Thriving   Label = "thriving"
	Content    Label = "content"
	Okay       Label = "okay"
	Glum       Label = "glum"
	Worried    Label = "worried"
	Cheering   Label = "cheering"
	Comforting Label = "comforting"
)

// Decision carries the chosen mood and its strength on a 1-5 scale.
type Decision struct {
	Mood  Label
	Scale float32
	Score int
}

var keywordBuckets = map[Label][]string{
	Cheering: {
		"thanks", "thank you", "awesome", "great", "amazing", "love", "yay",
		"did it", "completed", "finished", "recycled", "planted", "cool", "wow",
	},
	Comforting: {
		"sad", "worried", "scared", "hopeless", "anxious", "upset", "guilty",
		"too hard", "can't", "cant", "give up", "pointless", "afraid",
	},
}

const exclamationBoost = 2

// Analyze picks the mood for a reply given the pet's happiness [0,100]
// and the user's latest message (may be empty on page entry).
func Analyze(happiness int, userUtterance string) Decision {
	// User sentiment wins over the meter: a discouraged user gets
	// comforted even by a thriving pet, and vice versa.
	if d, ok := scoreText(userUtterance); ok {
		return d
	}

	switch {
	case happiness >= 85:
		return Decision{Mood: Thriving, Scale: 4}
	case happiness >= 60:
		return Decision{Mood: Content, Scale: 3}
	case happiness >= 35:
		return Decision{Mood: Okay, Scale: 2}
	case happiness >= 15:
		return Decision{Mood: Glum, Scale: 2}
	default:
		return Decision{Mood: Worried, Scale: 3}
	}
}

// Hint renders the decision as a prompt instruction fragment.
func Hint(d Decision) string {
	switch d.Mood {
	case Thriving:
		return "You are thriving and energetic; celebrate the user's efforts."
	case Content:
		return "You are content and warm; keep an encouraging, friendly tone."
	case Okay:
		return "You are doing okay but could use help; gently nudge the user toward eco actions."
	case Glum:
		return "You are a little glum; be honest about needing help but stay hopeful."
	case Worried:
		return "You are worried about your habitat; ask earnestly for the user's help without guilt-tripping."
	case Cheering:
		return "The user just did something good; cheer them on enthusiastically."
	case Comforting:
		return "The user sounds discouraged; comfort them and suggest one small achievable action."
	default:
		return ""
	}
}

func scoreText(text string) (Decision, bool) {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if normalized == "" {
		return Decision{}, false
	}

	scores := make(map[Label]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	if n := strings.Count(text, "!"); n > 0 {
		scores[Cheering] += n * exclamationBoost
	}

	bestLabel := Label("")
	bestScore := 0
	for label, s := range scores {
		if s > bestScore {
			bestScore = s
			bestLabel = label
		}
	}
	if bestScore == 0 {
		return Decision{}, false
	}

	scale := 2 + float32(bestScore)/4
	if scale > 5 {
		scale = 5
	}
	return Decision{Mood: bestLabel, Scale: scale, Score: bestScore}, true
}
