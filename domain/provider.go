package domain

// CommandProvider is one online participant addressable from the terminal.
// ShortID is unique within the current presence set at all times and is
// recomputed whenever the set changes.
type CommandProvider struct {
	ParticipantID ParticipantID
	DisplayName   string
	ShortID       string
}
