package mail

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/mailgun/mailgun-go/v3"
	"github.com/sirupsen/logrus"
)

const reminderSubject = "Don't Break Your Streak!"

const reminderBody = `<div style="font-family: Arial; padding:20px;">
  <h2>Habit Reminder</h2>
  <p>You haven't completed your habit today:</p>
  <h3 style="color: orange;">%s</h3>
  <p>Keep your streak alive!</p>
  <hr/>
  <small>Habitloop</small>
</div>`

// Notifier sends streak reminder emails through Mailgun.
type Notifier struct {
	mg     *mailgun.MailgunImpl
	sender string
}

func NewNotifier(domain, apiKey, sender string) *Notifier {
	return &Notifier{
		mg:     mailgun.NewMailgun(domain, apiKey),
		sender: sender,
	}
}

// Notify sends one reminder for habitTitle to the given address.
func (n *Notifier) Notify(ctx context.Context, to, habitTitle string) error {
	message := n.mg.NewMessage(n.sender, reminderSubject, "", to)
	message.SetHtml(fmt.Sprintf(reminderBody, html.EscapeString(habitTitle)))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, _, err := n.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mail: send reminder: %w", err)
	}
	return nil
}

// LogNotifier stands in when Mailgun credentials are not configured. It logs
// the reminder instead of sending anything.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, to, habitTitle string) error {
	logrus.WithFields(logrus.Fields{
		"to":    to,
		"habit": habitTitle,
	}).Info("mail: delivery disabled, reminder logged only")
	return nil
}
