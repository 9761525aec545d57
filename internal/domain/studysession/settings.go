package studysession

// Settings holds the user-tunable session constraints.
type Settings struct {
	QuestionCount    int `json:"questionCount"`
	TimeLimitMinutes int `json:"timeLimit"`
}

// DefaultSettings returns the out-of-the-box constraints.
func DefaultSettings() Settings {
	return Settings{
		QuestionCount:    25,
		TimeLimitMinutes: 90,
	}
}

// Merge overlays persisted values onto the defaults, ignoring
// non-positive fields from a corrupted or partial snapshot.
func (s Settings) Merge(saved Settings) Settings {
	if saved.QuestionCount > 0 {
		s.QuestionCount = saved.QuestionCount
	}
	if saved.TimeLimitMinutes > 0 {
		s.TimeLimitMinutes = saved.TimeLimitMinutes
	}
	return s
}
