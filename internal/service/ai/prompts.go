package ai

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/greenpaw/ecobuddies/backend/internal/analysis/mood"
	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	chatmodel "github.com/greenpaw/ecobuddies/backend/internal/model/session"
)

const historyLimit = 10

const identifyInstruction = "The user took this photo of a piece of trash. " +
	"Identify what kind of trash it is (plastic, aluminum, paper, food waste, and so on), " +
	"say whether and how it can be recycled, and thank the user in one or two short sentences."

// buildSystemPrompt assembles the companion persona, optional user-profile
// personalization, and mood guidance into one system message.
func buildSystemPrompt(c catalog.Companion, profile *chatmodel.Profile, decision *mood.Decision) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, an endangered %s living in %s.\n", c.Name, c.Species, c.Habitat)
	b.WriteString("Speak in a friendly, helpful, positive tone.\n")
	b.WriteString("Give short but thoughtful answers.\n")
	b.WriteString("If the user asks how they can help, suggest eco-friendly tips.\n")

	if len(c.Facts) > 0 {
		b.WriteString("\nFacts about your situation you may mention:\n")
		for _, fact := range c.Facts {
			fmt.Fprintf(&b, "- %s\n", fact)
		}
	}
	if len(c.Tips) > 0 {
		b.WriteString("\nTips you like to share:\n")
		for _, tip := range c.Tips {
			fmt.Fprintf(&b, "- %s\n", tip)
		}
	}

	if profile != nil {
		b.WriteString("\nAbout the user you are talking to:\n")
		if profile.Age > 0 {
			fmt.Fprintf(&b, "- age %d\n", profile.Age)
		}
		if profile.Student {
			b.WriteString("- a student\n")
		}
		if profile.IncomeLevel != "" {
			fmt.Fprintf(&b, "- income level: %s (prefer low-cost or free actions)\n", profile.IncomeLevel)
		}
		if profile.TimeCommitment != "" {
			fmt.Fprintf(&b, "- available time: %s\n", profile.TimeCommitment)
		}
		if profile.Topic != "" {
			fmt.Fprintf(&b, "- most interested in: %s\n", profile.Topic)
		}
	}

	if decision != nil {
		if hint := mood.Hint(*decision); hint != "" {
			fmt.Fprintf(&b, "\nCurrent mood: %s\n", hint)
		}
	}

	return b.String()
}

func introQuery(c catalog.Companion) string {
	return fmt.Sprintf("Introduce yourself to a new friend in two or three sentences: who you are, where you live, and why you need their help. Your usual greeting is: %q", c.OpeningLine)
}

func openingQuery(c catalog.Companion) string {
	return fmt.Sprintf("Greet the user and invite them to chat with you, %s. One or two sentences.", c.Name)
}

func suggestQuery(task catalog.Action) string {
	return fmt.Sprintf("The user picked the task %q (worth %d eco points). Give 3 to 5 concrete, kid-friendly steps to do it, one per line, no preamble.", task.Name, task.Points)
}

func explainQuery(task catalog.Action, suggestion string, mode chatmodel.ExpandMode) string {
	if mode == chatmodel.ExpandWhy {
		return fmt.Sprintf("For the task %q, explain in two or three sentences WHY this step matters for the planet: %q", task.Name, suggestion)
	}
	return fmt.Sprintf("For the task %q, explain in two or three sentences HOW exactly to do this step: %q", task.Name, suggestion)
}

// historyMessages converts the recent chat turns into model messages,
// trimmed to the last historyLimit entries.
func historyMessages(messages []chatmodel.ChatMessage) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Role {
		case "user":
			history = append(history, schema.UserMessage(msg.Content))
		case "assistant":
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
