package coach

import (
	"regexp"
	"time"
)

// ProgressionTracker records how a conversation is advancing inside a
// stage. Stored as JSONB in client_stages.stage_metadata.
type ProgressionTracker struct {
	Stage           Stage     `json:"stage"`
	Substage        int       `json:"substage"`
	QuestionsAsked  []string  `json:"questions_asked"`
	TopicsCovered   []string  `json:"topics_covered"`
	LastProgressAt  time.Time `json:"last_progress_at"`
	StagnationCount int       `json:"stagnation_count"`
}

const (
	stagnationWindow   = 5 * time.Minute
	topicCoverageGoal  = 4
	topicCoverageRatio = 0.75
)

var frustrationRe = regexp.MustCompile(`(?i)(cansado|frustrado|não aguento|repete|de novo|já falei)`)

// ShouldForceProgression reports whether the conversation must be pushed
// forward instead of staying in the current stage: the stage is stagnant,
// the coach keeps asking the same question, the stage's topics are mostly
// covered, or the user sounds frustrated.
func ShouldForceProgression(tracker ProgressionTracker, userMessage string, now time.Time) bool {
	if !tracker.LastProgressAt.IsZero() && now.Sub(tracker.LastProgressAt) > stagnationWindow {
		return true
	}

	if n := len(tracker.QuestionsAsked); n >= 3 {
		last := tracker.QuestionsAsked[n-1]
		if tracker.QuestionsAsked[n-2] == last && tracker.QuestionsAsked[n-3] == last {
			return true
		}
	}

	if float64(len(tracker.TopicsCovered))/topicCoverageGoal >= topicCoverageRatio {
		return true
	}

	return frustrationRe.MatchString(userMessage)
}
