package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"eco-alarm/common/config"
	"eco-alarm/internal/models"

	"go.uber.org/zap"
)

const (
	emailSubject = "Environmental alert"
	// defaultSMTPTimeout 未配置 Timeout 时的单次投递时限
	defaultSMTPTimeout = 30 * time.Second
)

// EmailTransport 通过 SMTP 发送邮件
type EmailTransport struct {
	config config.SMTPConfig
	auth   smtp.Auth
	dialer *net.Dialer
	logger *zap.Logger
}

// NewEmailTransport 创建 SMTP 传输
func NewEmailTransport(cfg config.SMTPConfig, logger *zap.Logger) *EmailTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var auth smtp.Auth
	if cfg.User != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &EmailTransport{
		config: cfg,
		auth:   auth,
		dialer: &net.Dialer{Timeout: 10 * time.Second},
		logger: logger,
	}
}

func (t *EmailTransport) Deliver(ctx context.Context, channel models.Channel, address, message string) error {
	if channel != models.ChannelEmail {
		return fmt.Errorf("email transport cannot deliver %s", channel)
	}
	if !t.config.IsConfigured() {
		return fmt.Errorf("%w: smtp host or sender missing", ErrChannelNotConfigured)
	}

	addr := net.JoinHostPort(t.config.Host, t.config.Port)
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	// 服务端不应答时也必须返回：读写一律带截止时间，ctx 取消时直接关连接
	_ = conn.SetDeadline(t.deadline(ctx))
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, t.config.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: t.config.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if t.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(t.auth); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := c.Mail(t.config.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(sanitizeHeader(address)); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(t.buildBody(address, message)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	// DATA 已被接受即视为投递成功，QUIT 失败只记录
	if err := c.Quit(); err != nil {
		t.logger.Warn("SMTP QUIT failed after message accepted",
			zap.String("host", t.config.Host),
			zap.Error(err),
		)
	}
	return nil
}

// deadline 取 ctx 截止时间与 now+Timeout 中较早者
func (t *EmailTransport) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(t.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		return d
	}
	return deadline
}

func (t *EmailTransport) buildBody(to, message string) []byte {
	fromHeader := t.config.From
	if strings.TrimSpace(t.config.FromName) != "" {
		fromHeader = fmt.Sprintf("%s <%s>", t.config.FromName, t.config.From)
	}

	lines := []string{
		fmt.Sprintf("From: %s", sanitizeHeader(fromHeader)),
		fmt.Sprintf("To: %s", sanitizeHeader(to)),
		fmt.Sprintf("Subject: %s", emailSubject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		strings.ReplaceAll(message, "\n", "\r\n"),
	}
	return []byte(strings.Join(lines, "\r\n"))
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
