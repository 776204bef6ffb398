package mood

import "testing"

func TestAnalyzeHappinessLevels(t *testing.T) {
	if d := Analyze(90, ""); d.Mood != Thriving {
		t.Fatalf("expected thriving at happiness 90, got %s", d.Mood)
	}
	if d := Analyze(50, ""); d.Mood != Okay {
		t.Fatalf("expected okay at happiness 50, got %s", d.Mood)
	}
	if d := Analyze(10, ""); d.Mood != Worried {
		t.Fatalf("expected worried at happiness 10, got %s", d.Mood)
	}
}

func TestAnalyzeDiscouragedUserGetsComfort(t *testing.T) {
	d := Analyze(90, "this feels pointless, I can't make a difference")
	if d.Mood != Comforting {
		t.Fatalf("expected comforting mood, got %s", d.Mood)
	}
	if d.Scale < 1 || d.Scale > 5 {
		t.Fatalf("mood scale out of range: %f", d.Scale)
	}
}

func TestAnalyzeExcitedUserGetsCheering(t *testing.T) {
	d := Analyze(20, "I did it!!! I recycled everything")
	if d.Mood != Cheering {
		t.Fatalf("expected cheering mood, got %s", d.Mood)
	}
}

func TestHintNeverEmptyForKnownMoods(t *testing.T) {
	for _, label := range []Label{Thriving, Content, Okay, Glum, Worried, Cheering, Comforting} {
		if Hint(Decision{Mood: label}) == "" {
			t.Fatalf("empty hint for mood %s", label)
		}
	}
}
