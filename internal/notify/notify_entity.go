package notify

import "time"

// Audience selects which chats a message is meant for.
type Audience string

const (
	AudienceAttendance Audience = "attendance"
	AudienceOperators  Audience = "operators"
)

type Kind string

const (
	KindEntry           Kind = "entry"
	KindExit            Kind = "exit"
	KindUnknownEmployee Kind = "unknown-employee"
	KindUnknownTerminal Kind = "unknown-terminal"
	KindRemoteUnlock    Kind = "remote-unlock"
	KindStartup         Kind = "startup"
)

// Message is a human-readable alert. Text is Telegram Markdown; the other
// fields travel with it so structured destinations do not parse the text.
type Message struct {
	Kind       Kind
	Audience   Audience
	Text       string
	EmployeeID int64
	SourceAddr string
	At         time.Time
}
