// Package mail delivers verification links over SMTP.
package mail

import (
	"fmt"
	"os"
	"strconv"

	gomail "gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// AppURL is the public base URL embedded in verification links.
	AppURL string
}

// ConfigFromEnv reads SMTP settings from the environment.
func ConfigFromEnv() Config {
	port := 587
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && p > 0 {
		port = p
	}
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:3005"
	}
	return Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		AppURL:   appURL,
	}
}

// SMTPMailer sends verification mail through a plain SMTP dialer.
type SMTPMailer struct {
	cfg Config
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendVerificationLink mails the verification URL for the given token.
func (m *SMTPMailer) SendVerificationLink(to, tok, firstName string) error {
	link := fmt.Sprintf("%s/api/users/verifyemail/%s", m.cfg.AppURL, tok)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify your email")
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>Hi %s,</p><p>Please verify your email within 2 hours by clicking "+
			"<a href=%q>this link</a>.</p>", firstName, link))

	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}
