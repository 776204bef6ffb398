package session

import (
	"time"

	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
)

// Screen is a top-level state of the visit.
type Screen string

const (
	ScreenIntro      Screen = "intro"
	ScreenOnboarding Screen = "onboarding"
	ScreenSelection  Screen = "selection"
	ScreenCompanion  Screen = "companion"
)

// Companion-flow page indices. Navigation is mostly linear with two
// excursions (Identify, Chat) that always return to Actions, so a flat
// integer plus "go home targets PageActions" is all the sub-state needed.
const (
	PageMeet = iota
	PageActions
	PageIdentify
	PageChat
	PageTaskDetail
)

// ExpandMode selects which drill-down of a suggestion is open.
type ExpandMode string

const (
	ExpandHow ExpandMode = "how"
	ExpandWhy ExpandMode = "why"
)

// Expansion records the single open suggestion drill-down, if any.
type Expansion struct {
	Index int        `json:"index"`
	Mode  ExpandMode `json:"mode"`
	Text  string     `json:"text"`
}

// Profile is the onboarding quiz record. It only personalizes prompts.
type Profile struct {
	Age            int    `json:"age"`
	Student        bool   `json:"student"`
	IncomeLevel    string `json:"incomeLevel"`
	TimeCommitment string `json:"timeCommitment"`
	Topic          string `json:"topic"`
}

// ChatMessage is one turn of the companion conversation.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the full mutable state of one visit. It is owned by the
// session service; everything outside mutates it only through flow
// transitions and reads it through snapshots.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Screen      Screen   `json:"screen"`
	Profile     *Profile `json:"profile,omitempty"`
	CompanionID string   `json:"companionId,omitempty"`
	PageNumber  int      `json:"pageNumber"`

	Happiness      int      `json:"happiness"`
	TotalPoints    int      `json:"totalPoints"`
	ActionCount    int      `json:"actionCount"`
	CompletedTasks []string `json:"completedTasks"`

	CurrentTask *catalog.Action `json:"currentTask,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Expanded    *Expansion      `json:"expanded,omitempty"`

	ChatHistory        []ChatMessage `json:"chatHistory"`
	IntroLine          string        `json:"introLine,omitempty"`
	LastIdentification string        `json:"lastIdentification,omitempty"`

	CurrentTip int  `json:"currentTip"`
	ShowTip    bool `json:"showTip"`

	// Epoch advances on every navigation-relevant transition. In-flight
	// gateway results tagged with an older epoch must be discarded.
	Epoch uint64 `json:"-"`
}

// Completed reports whether the named task has already been awarded.
func (s *Session) Completed(name string) bool {
	for _, done := range s.CompletedTasks {
		if done == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to renderers.
func (s *Session) Clone() Session {
	out := *s
	out.CompletedTasks = append([]string(nil), s.CompletedTasks...)
	out.Suggestions = append([]string(nil), s.Suggestions...)
	out.ChatHistory = append([]ChatMessage(nil), s.ChatHistory...)
	if s.Profile != nil {
		profile := *s.Profile
		out.Profile = &profile
	}
	if s.CurrentTask != nil {
		task := *s.CurrentTask
		out.CurrentTask = &task
	}
	if s.Expanded != nil {
		expanded := *s.Expanded
		out.Expanded = &expanded
	}
	return out
}
