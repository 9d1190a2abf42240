package domain

// ContentTypeCLI tags command-routed traffic. Envelopes carrying any other
// content type are routed but never parsed.
const ContentTypeCLI = "cli"

// Envelope is one message in flight between two participants. Envelopes are
// transient: created by Send, consumed by the target handler.
type Envelope struct {
	From        ParticipantID
	To          ParticipantID
	ContentType string
	Body        string
}

// Terminal control commands, sent on the "cli" content type.

func OnlineCommand(id ParticipantID) string { return "online " + id.String() }

func OfflineCommand(id ParticipantID) string { return "offline " + id.String() }

func ShowCommand(text string) string { return "show " + text }
