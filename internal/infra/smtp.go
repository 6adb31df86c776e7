package infra

import (
	"fmt"
	"net/smtp"

	"github.com/AlexArancibia/AmbientalDashboard-sub001/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending plain-text notifications.
// Envíos pass through a circuit breaker so a dead relay doesn't tie up
// the worker pool retrying connections that cannot succeed.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	breaker  *Breaker
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  NewBreaker(BreakerConfig{}),
	}
}

// SendResumen sends a short document summary to the given address.
// With the circuit open it fails fast with ErrCircuitoAbierto.
func (m *Mailer) SendResumen(to, subject, body string) error {
	return m.breaker.Execute(func() error {
		e := email.NewEmail()
		e.From = m.user
		e.To = []string{to}
		e.Subject = subject
		e.Text = []byte(body)

		auth := smtp.PlainAuth("", m.user, m.password, m.host)
		return e.Send(m.addr, auth)
	})
}
