package coach

import (
	"testing"
	"time"
)

func TestShouldForceProgression(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name    string
		tracker ProgressionTracker
		message string
		want    bool
	}{
		{
			name: "stagnant for over five minutes",
			tracker: ProgressionTracker{
				Stage:          StageSpecialist,
				QuestionsAsked: []string{"dor", "dor", "dor"},
				TopicsCovered:  []string{"físico"},
				LastProgressAt: now.Add(-6 * time.Minute),
			},
			message: "Estou aqui",
			want:    true,
		},
		{
			name: "same question three times",
			tracker: ProgressionTracker{
				Stage:          StageSpecialist,
				QuestionsAsked: []string{"dor", "dor", "dor"},
				TopicsCovered:  []string{"físico"},
				LastProgressAt: now,
			},
			message: "Tudo bem",
			want:    true,
		},
		{
			name: "topic coverage reached",
			tracker: ProgressionTracker{
				Stage:          StageSpecialist,
				QuestionsAsked: []string{"dor", "alimento", "emoção", "espiritual"},
				TopicsCovered:  []string{"físico", "alimentar", "emocional", "espiritual"},
				LastProgressAt: now,
			},
			message: "Ok",
			want:    true,
		},
		{
			name: "user frustration",
			tracker: ProgressionTracker{
				Stage:          StageSpecialist,
				QuestionsAsked: []string{"dor", "alimento"},
				TopicsCovered:  []string{"físico", "alimentar"},
				LastProgressAt: now,
			},
			message: "Estou cansado de repetir",
			want:    true,
		},
		{
			name: "healthy conversation",
			tracker: ProgressionTracker{
				Stage:          StageSpecialist,
				QuestionsAsked: []string{"dor", "alimento"},
				TopicsCovered:  []string{"físico", "alimentar"},
				LastProgressAt: now,
			},
			message: "Tudo certo",
			want:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldForceProgression(tc.tracker, tc.message, now); got != tc.want {
				t.Errorf("ShouldForceProgression() = %v, want %v", got, tc.want)
			}
		})
	}
}
