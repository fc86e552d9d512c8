package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eco-alarm/common/config"
	"eco-alarm/internal/models"

	"github.com/go-resty/resty/v2"
)

// smsRequest 短信网关请求体
type smsRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

// smsResponse 短信网关响应体
type smsResponse struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// SMSTransport 通过 HTTP 短信网关发送短信
// 不启用 resty 自动重试：失败由 Notifier 转给备用联系人
type SMSTransport struct {
	httpClient *resty.Client
	sender     string
}

// NewSMSTransport 创建短信传输
func NewSMSTransport(cfg config.SMSGatewayConfig) *SMSTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &SMSTransport{
		httpClient: client,
		sender:     cfg.Sender,
	}
}

func (t *SMSTransport) Deliver(ctx context.Context, channel models.Channel, address, message string) error {
	if channel != models.ChannelSMS {
		return fmt.Errorf("sms transport cannot deliver %s", channel)
	}

	var result smsResponse
	resp, err := t.httpClient.R().
		SetContext(ctx).
		SetBody(smsRequest{To: address, From: t.sender, Text: message}).
		SetResult(&result).
		SetError(&result).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("failed to call sms gateway: %w", err)
	}

	if resp.IsError() {
		if result.Error != "" {
			return fmt.Errorf("sms gateway error: %s (status: %d)", result.Error, resp.StatusCode())
		}
		return fmt.Errorf("sms gateway error (status: %d)", resp.StatusCode())
	}

	if strings.EqualFold(result.Status, "rejected") || strings.EqualFold(result.Status, "failed") {
		return fmt.Errorf("sms gateway rejected message: %s", result.Status)
	}

	return nil
}
