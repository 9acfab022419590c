package service

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mrz1836/postmark"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/issuetracker/internal/config"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

var ErrMailNotConfigured = errors.New("mail not configured")

func NewEmailSender(cfg config.MailConfig) (EmailSender, error) {
	switch cfg.Type {
	case "smtp":
		return &smtpSender{cfg: cfg}, nil
	case "postmark":
		if cfg.PostmarkServerToken == "" || cfg.From == "" {
			return nil, ErrMailNotConfigured
		}
		return &postmarkSender{
			client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
			from:   cfg.From,
		}, nil
	case "", "log":
		return logSender{}, nil
	default:
		return nil, fmt.Errorf("unsupported mail type: %s", cfg.Type)
	}
}

type smtpSender struct {
	cfg config.MailConfig
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	from := strings.TrimSpace(s.cfg.From)
	if s.cfg.Host == "" || s.cfg.Port == 0 || from == "" {
		return ErrMailNotConfigured
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	msg := []byte("From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" + body)
	return smtp.SendMail(addr, auth, from, []string{to}, msg)
}

type postmarkSender struct {
	client *postmark.Client
	from   string
}

func (s *postmarkSender) Send(ctx context.Context, to, subject, body string) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       to,
		Subject:  subject,
		TextBody: body,
		Tag:      "issuetracker",
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return nil
}

// logSender only records that a message would have been sent.
type logSender struct{}

func (logSender) Send(ctx context.Context, to, subject, body string) error {
	logutil.GetLogger(ctx).Info("mail not delivered, log sender in use",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
