// Package notify builds and delivers the daily reading reminder: a localized
// message naming today's readings followed by a yes/no poll.
package notify

import (
	"fmt"
	"html"

	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/language"
	"github.com/smith3v/tg-bible-reminder/pkg/schedule"
)

type EntryResolver interface {
	Today() (schedule.Entry, bool, error)
}

type Poll struct {
	Question    string
	Options     []string
	IsAnonymous bool
}

type Notification struct {
	Text      string
	ParseMode models.ParseMode
	Poll      Poll
}

type catalog struct {
	headline     string
	oldLabel     string
	newLabel     string
	pollQuestion string
	pollYes      string
	pollNo       string
}

var catalogs = map[string]catalog{
	language.English: {
		headline:     "This is a reminder to read the Bible.",
		oldLabel:     "OT",
		newLabel:     "NT",
		pollQuestion: "Have you read the Bible today?",
		pollYes:      "Yes",
		pollNo:       "No",
	},
	language.German: {
		headline:     "Dies ist eine Erinnerung, die Bibel zu lesen.",
		oldLabel:     "AT",
		newLabel:     "NT",
		pollQuestion: "Hast du heute schon die Bibel gelesen?",
		pollYes:      "Ja",
		pollNo:       "Nein",
	},
}

type Composer struct {
	Schedule EntryResolver
}

func NewComposer(resolver EntryResolver) *Composer {
	return &Composer{Schedule: resolver}
}

// Compose builds the reminder for a chat. Without a reading for today the
// message falls back to the plain headline; the poll is always attached.
func (c *Composer) Compose(chatID int64, lang string) (Notification, error) {
	entry, found, err := c.Schedule.Today()
	if err != nil {
		return Notification{}, fmt.Errorf("resolve reading for chat %d: %w", chatID, err)
	}
	return Build(entry, found, lang), nil
}

// Build renders the notification for an already resolved entry.
func Build(entry schedule.Entry, found bool, lang string) Notification {
	texts := catalogs[language.Normalize(lang)]
	n := Notification{
		Poll: Poll{
			Question:    texts.pollQuestion,
			Options:     []string{texts.pollYes, texts.pollNo},
			IsAnonymous: false,
		},
	}
	if !found {
		n.Text = texts.headline
		return n
	}
	n.ParseMode = models.ParseModeHTML
	n.Text = fmt.Sprintf("<b>%s</b>\n\n%s: %s\n%s: %s",
		html.EscapeString(texts.headline),
		texts.oldLabel, html.EscapeString(entry.OldTestament),
		texts.newLabel, html.EscapeString(entry.NewTestament),
	)
	return n
}
