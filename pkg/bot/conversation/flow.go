// Package conversation implements the two short interactive flows: choosing
// a reminder time and choosing a display language. Each flow is a tiny state
// machine; transitions are pure functions of the incoming text and the
// resulting state is persisted per chat by Manager.
package conversation

import (
	"fmt"
	"strings"

	"github.com/smith3v/tg-bible-reminder/pkg/bot/reminders"
	"github.com/smith3v/tg-bible-reminder/pkg/language"
)

type Flow string

const (
	FlowReminderTime Flow = "reminder_time"
	FlowLanguage     Flow = "language"
)

type State string

const (
	StateAwaitingInput State = "awaiting_input"
	StateTerminated    State = "terminated"
)

const CancelCommand = "/cancel"

const (
	textReminderWelcome   = "Hey, it is great that you want to read the Bible daily. I will help you with that."
	textReminderAskTime   = "Please enter the time when you want to receive the daily reminder in the format HH:MM. The timezone is UTC."
	textReminderCancelNow = "You can cancel this process by typing /cancel"
	textInvalidTime       = "Invalid time format. Please use the format HH:MM."
	textReminderCancelled = "Cancelled Bible study reminder creation."
	textReminderActivated = "Activated Bible study reminder daily at %s UTC."
	textSingleShotUsage   = "Please provide a time in the format HH:MM, for example /sst 08:00."
	textLanguagePrompt    = "Please select your language:"
	textLanguageCancelled = "Cancelled language setting."
)

var languageConfirmations = map[string]string{
	language.English: "Language set to English",
	language.German:  "Sprache auf Deutsch gesetzt",
}

// Reply is one outbound message. Keyboard, when set, is shown as a single
// row of one-time reply buttons.
type Reply struct {
	Text           string
	Keyboard       []string
	RemoveKeyboard bool
}

// Outcome is the result of feeding one message into a flow.
type Outcome struct {
	State   State
	Replies []Reply
	// Time is set when the reminder flow accepted a time.
	Time *reminders.TimeOfDay
	// Language is the chosen code; empty when the preference stays as is.
	Language  string
	Cancelled bool
}

func (o Outcome) Terminated() bool {
	return o.State == StateTerminated
}

func awaiting(replies ...Reply) Outcome {
	return Outcome{State: StateAwaitingInput, Replies: replies}
}

func terminated(replies ...Reply) Outcome {
	return Outcome{State: StateTerminated, Replies: replies}
}

func text(s string) Reply {
	return Reply{Text: s}
}

// IsCancel reports whether text is the cancel command, with or without a
// bot mention suffix.
func IsCancel(input string) bool {
	command, _ := splitCommand(input)
	return command == CancelCommand
}

// Controller consumes the messages of one flow.
type Controller interface {
	Handle(text string) Outcome
}

// ControllerFor returns nil for flows this build does not know.
func ControllerFor(flow Flow) Controller {
	switch flow {
	case FlowReminderTime:
		return ReminderFlow{}
	case FlowLanguage:
		return LanguageFlow{}
	default:
		return nil
	}
}

// ReminderFlow asks for the daily reminder time.
type ReminderFlow struct{}

func (ReminderFlow) Begin() Outcome {
	return awaiting(
		text(textReminderWelcome),
		text(textReminderAskTime),
		text(textReminderCancelNow),
	)
}

func (ReminderFlow) Handle(input string) Outcome {
	if IsCancel(input) {
		out := terminated(text(textReminderCancelled))
		out.Cancelled = true
		return out
	}
	t, err := reminders.ParseTimeOfDay(input)
	if err != nil {
		return awaiting(text(textInvalidTime))
	}
	out := terminated()
	out.Time = &t
	return out
}

// SingleShotReminder handles "/sst HH:MM" without entering a flow.
func SingleShotReminder(message string) Outcome {
	_, arg := splitCommand(message)
	if arg == "" {
		return terminated(text(textSingleShotUsage))
	}
	fields := strings.Fields(arg)
	t, err := reminders.ParseTimeOfDay(fields[0])
	if err != nil {
		return terminated(text(textInvalidTime))
	}
	out := terminated()
	out.Time = &t
	return out
}

func ActivatedText(t reminders.TimeOfDay) string {
	return fmt.Sprintf(textReminderActivated, t.String())
}

// ClassifyLanguage matches the exact button labels. Commands never match.
func ClassifyLanguage(input string) (language.Language, bool) {
	return language.FromLabel(strings.TrimSpace(input))
}

// LanguageFlow asks for the display language.
type LanguageFlow struct{}

// Begin accepts "/setlang German" directly and prompts otherwise.
func (LanguageFlow) Begin(message string) Outcome {
	_, arg := splitCommand(message)
	if lang, ok := ClassifyLanguage(arg); ok {
		return languageChosen(lang)
	}
	return languagePrompt()
}

// Handle re-prompts on anything that is neither a label nor the cancel
// command.
func (LanguageFlow) Handle(input string) Outcome {
	if IsCancel(input) {
		out := terminated(Reply{Text: textLanguageCancelled, RemoveKeyboard: true})
		out.Cancelled = true
		return out
	}
	if lang, ok := ClassifyLanguage(input); ok {
		return languageChosen(lang)
	}
	return languagePrompt()
}

func languageChosen(lang language.Language) Outcome {
	out := terminated(Reply{Text: languageConfirmations[lang.Code], RemoveKeyboard: true})
	out.Language = lang.Code
	return out
}

// Prompt shows the language keyboard again without choosing anything.
func (LanguageFlow) Prompt() Outcome {
	return languagePrompt()
}

func languagePrompt() Outcome {
	return awaiting(Reply{Text: textLanguagePrompt, Keyboard: language.Labels()})
}

// splitCommand separates "/cmd@bot rest" into "/cmd" and "rest". Text that is
// not a command comes back as the argument.
func splitCommand(message string) (string, string) {
	message = strings.TrimSpace(message)
	if !strings.HasPrefix(message, "/") {
		return "", message
	}
	command, rest, _ := strings.Cut(message, " ")
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	return command, strings.TrimSpace(rest)
}
