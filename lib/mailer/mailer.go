// Package mailer delivers a finished change report by e-mail.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("readstats.lib.mailer")

type Config struct {
	Host          string   `json:"host"`
	Port          int      `json:"port"`
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	From          string   `json:"from"`
	To            []string `json:"to"`
	SubjectPrefix string   `json:"subject_prefix"`
}

// Enabled reports whether there is enough configured to send anything.
func (c Config) Enabled() bool {
	return c.Host != "" && len(c.To) > 0
}

func (c Config) addr() string {
	port := c.Port
	if port == 0 {
		port = 587
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

func (c Config) sender() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

// NewMessage builds the plain text message for a report.
func NewMessage(config Config, now time.Time, report string) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("readstats <%s>", config.sender())
	mail.To = config.To
	mail.Subject = strings.TrimSpace(fmt.Sprintf(
		"%s readership changes %s",
		config.SubjectPrefix,
		now.Format("2006-01-02 15:04"),
	))
	mail.Text = []byte(report)
	return mail
}

// Send mails the report, an empty report is not sent.
func Send(ctx context.Context, config Config, now time.Time, report string) error {
	_, span := tracer.Start(ctx, "Send")
	defer span.End()

	if strings.TrimSpace(report) == "" {
		return nil
	}

	mail := NewMessage(config, now, report)
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	err := mail.Send(config.addr(), auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(config.addr(), nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
