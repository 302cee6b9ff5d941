package email

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strconv"
	"time"

	"github.com/Dan9191/savings-planner/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendPlanExport mails a plan export as an attachment
func (s *Sender) SendPlanExport(to, username, planID string, attachment []byte, filename, contentType string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP is not configured")
	}

	e := email.NewEmail()
	e.From = s.cfg.SMTPFrom
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Your savings plan %s", planID)

	body := fmt.Sprintf("Dear %s,\n\n", username)
	body += fmt.Sprintf(
		"Attached is the export of your savings plan %s, generated %s.\n"+
			"Figures for tax-saving purchases and goal allocations are monthly unless stated otherwise.\n",
		planID, time.Now().Format("2006-01-02 15:04"),
	)
	body += "\nBest regards,\nSavings Planner"
	e.Text = []byte(body)

	if _, err := e.Attach(bytes.NewReader(attachment), filename, contentType); err != nil {
		return fmt.Errorf("failed to attach export: %w", err)
	}

	addr := s.cfg.SMTPHost + ":" + strconv.Itoa(s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send plan %s to %s: %v", planID, to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
