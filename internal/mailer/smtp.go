package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ntqsdigital/renewal/internal/retry"
)

// SMTPOptions configures the SMTP mailer.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	Retry    retry.Config
}

// SMTPMailer implements Mailer over a submission relay with STARTTLS and
// AUTH PLAIN.
type SMTPMailer struct {
	opts SMTPOptions
}

// NewSMTP creates an SMTPMailer with the given options.
func NewSMTP(opts SMTPOptions) *SMTPMailer {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}
	return &SMTPMailer{opts: opts}
}

// Send composes the MIME message and delivers it to every recipient in one
// SMTP transaction.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	recipients := cleanRecipients(msg.To)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	payload, err := buildMessage(msg, recipients)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.opts.Host, fmt.Sprintf("%d", m.opts.Port))
	cfg := m.opts.Retry
	cfg.ShouldRetry = func(err error) bool {
		// A bad credential never fixes itself mid-run.
		return !eris.Is(err, ErrAuth) && retry.IsTransient(err)
	}
	err = retry.Do(ctx, cfg, func(ctx context.Context) error {
		return m.transact(ctx, addr, msg.From, recipients, payload)
	})
	if err != nil {
		return err
	}

	zap.L().Info("mail sent",
		zap.Strings("to", recipients),
		zap.String("subject", msg.Subject),
	)
	return nil
}

func (m *SMTPMailer) transact(ctx context.Context, addr, from string, to []string, payload []byte) error {
	dialer := &net.Dialer{Timeout: m.opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return eris.Wrapf(err, "smtp connect to %s", addr)
	}

	c, err := smtp.NewClient(conn, m.opts.Host)
	if err != nil {
		conn.Close()
		return eris.Wrap(err, "smtp client")
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.opts.Host}); err != nil {
			return eris.Wrap(err, "smtp starttls")
		}
	}

	if m.opts.Username != "" && m.opts.Password != "" {
		auth := smtp.PlainAuth("", m.opts.Username, m.opts.Password, m.opts.Host)
		if err := c.Auth(auth); err != nil {
			return eris.Wrap(ErrAuth, err.Error())
		}
	}

	if err := c.Mail(from); err != nil {
		return eris.Wrap(err, "smtp mail from")
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return eris.Wrapf(err, "smtp rcpt to %s", rcpt)
		}
	}

	w, err := c.Data()
	if err != nil {
		return eris.Wrap(err, "smtp data")
	}
	if _, err := w.Write(payload); err != nil {
		return eris.Wrap(err, "smtp write")
	}
	if err := w.Close(); err != nil {
		return eris.Wrap(err, "smtp data close")
	}

	return c.Quit()
}

// buildMessage renders the RFC 5322 payload. Messages with a readable
// attachment become multipart/mixed; anything else is plain text.
func buildMessage(msg Message, recipients []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", headerValue(msg.From)))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", headerValue(strings.Join(recipients, ", "))))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(msg.Subject))))
	buf.WriteString(fmt.Sprintf("Message-ID: <%s@renewal>\r\n", uuid.New().String()))
	buf.WriteString("MIME-Version: 1.0\r\n")

	attachment, attachName := readAttachment(msg.AttachmentPath)
	if attachment == nil {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		buf.WriteString(msg.Body)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	boundary := fmt.Sprintf("=_%s", uuid.New().String()[:16])
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary))

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: application/octet-stream\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", attachName))
	writeBase64(&buf, attachment)
	buf.WriteString(fmt.Sprintf("\r\n--%s--\r\n", boundary))

	return buf.Bytes(), nil
}

// readAttachment loads the attachment bytes. A missing or unreadable file
// is a degraded condition, not a send failure.
func readAttachment(path string) ([]byte, string) {
	if path == "" {
		return nil, ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		zap.L().Warn("attachment unreadable, sending without it",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, ""
	}
	return data, filepath.Base(path)
}

// writeBase64 encodes data in 76-character lines per RFC 2045.
func writeBase64(buf *bytes.Buffer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
}

// headerValue strips CR/LF so untrusted values cannot inject headers.
func headerValue(v string) string {
	v = strings.ReplaceAll(v, "\r", "")
	v = strings.ReplaceAll(v, "\n", "")
	return strings.TrimSpace(v)
}

func cleanRecipients(to []string) []string {
	var out []string
	for _, r := range to {
		if r = headerValue(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
