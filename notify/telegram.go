// Package notify sends run updates to a Telegram chat.
package notify

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the bot API used here
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts progress and run summaries to one chat
type Telegram struct {
	bot    Sender
	chatID int64
}

// NewTelegram connects to the bot API with token
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Infof("Authorized on Telegram account %s", bot.Self.UserName)
	return NewTelegramWithSender(bot, chatID), nil
}

// NewTelegramWithSender uses an existing bot connection
func NewTelegramWithSender(bot Sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// Report implements progress.Reporter
func (t *Telegram) Report(fraction float64, label string) {
	t.send(fmt.Sprintf("🔄 %.0f%% %s", fraction*100, label))
}

// Summary describes a finished run
type Summary struct {
	Dataset string
	Pages   int
	Phones  int
	Failed  []string
	Stopped string
}

// RunFinished posts the run summary
func (t *Telegram) RunFinished(s Summary) {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Scraped %d page%s into '%s', found %d phone%s", s.Pages, plural(s.Pages), s.Dataset, s.Phones, plural(s.Phones))
	if s.Stopped != "" {
		fmt.Fprintf(&b, "\n⏹ %s", s.Stopped)
	}
	if len(s.Failed) > 0 {
		fmt.Fprintf(&b, "\n❌ Failed: %s", strings.Join(s.Failed, ", "))
	}
	t.send(b.String())
}

// RunFailed posts a fatal error
func (t *Telegram) RunFailed(err error) {
	t.send(fmt.Sprintf("❌ Error processing run: %v", err))
}

func (t *Telegram) send(text string) {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		log.Errorf("Error sending status update: %v", err)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
