package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"eco-alarm/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Type 建议类型
type Type string

const (
	TypeWarning Type = "warning"
	TypeSuccess Type = "success"
	TypeEcoTip  Type = "eco-tip"
)

// Source 建议来源
const (
	SourceAI    = "ai"
	SourceRules = "rules"
)

// ErrInvalidReading 读数不合法（湿度需在 0-100，CO2 不能为负）
var ErrInvalidReading = errors.New("invalid environmental data")

// Recommendation 一条环境改善建议
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        Type   `json:"type"`
}

// aiRequest 生成式 AI 代理请求体
type aiRequest struct {
	CO2Level    float64 `json:"co2Level"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// Client 环境建议客户端：优先调用 AI 代理，失败时使用规则建议
type Client struct {
	httpClient *resty.Client
	enabled    bool
	logger     *zap.Logger
}

// NewClient 创建建议客户端，endpoint 为空时只使用规则建议
func NewClient(endpoint, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &Client{
		httpClient: client,
		enabled:    endpoint != "",
		logger:     logger,
	}
}

// Recommend 返回建议和来源（ai / rules）
func (c *Client) Recommend(ctx context.Context, reading models.Reading) ([]Recommendation, string, error) {
	if err := validateReading(reading); err != nil {
		return nil, "", err
	}

	if c.enabled {
		recs, err := c.fetch(ctx, reading)
		if err == nil && len(recs) > 0 {
			return recs, SourceAI, nil
		}
		c.logger.Warn("AI recommendations unavailable, using rule-based tips",
			zap.Error(err),
		)
	}

	return Rules(reading), SourceRules, nil
}

func (c *Client) fetch(ctx context.Context, reading models.Reading) ([]Recommendation, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(aiRequest{
			CO2Level:    reading.CO2,
			Temperature: reading.Temperature,
			Humidity:    reading.Humidity,
		}).
		Post("/recommendations")
	if err != nil {
		return nil, fmt.Errorf("failed to call recommendation service: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("recommendation service error (status: %d)", resp.StatusCode())
	}

	body := resp.Body()

	// 代理直接返回结构化数组
	var recs []Recommendation
	if err := json.Unmarshal(body, &recs); err == nil {
		return filterValid(recs), nil
	}

	// 或返回模型原文 {"text": "..."}
	var raw struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation response: %w", err)
	}
	recs = Parse(raw.Text)
	if len(recs) == 0 {
		return nil, fmt.Errorf("no valid recommendations generated")
	}
	return recs, nil
}

// Parse 解析模型输出，每条建议以 "- " 开头，包含 Title / Description / Type 三行
// 缺字段或类型不合法的条目跳过
func Parse(text string) []Recommendation {
	var recs []Recommendation
	text = "\n" + strings.TrimSpace(text)
	for _, block := range strings.Split(text, "\n- ") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		var title, description, typ string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
			switch {
			case hasLabel(line, "title:"):
				title = strings.TrimSpace(line[len("title:"):])
			case hasLabel(line, "description:"):
				description = strings.TrimSpace(line[len("description:"):])
			case hasLabel(line, "type:"):
				typ = strings.ToLower(strings.TrimSpace(line[len("type:"):]))
			}
		}
		if title == "" || description == "" || typ == "" {
			continue
		}
		rec := Recommendation{Title: title, Description: description, Type: Type(typ)}
		if !rec.Type.valid() {
			continue
		}
		recs = append(recs, rec)
	}
	return recs
}

func hasLabel(line, label string) bool {
	return len(line) >= len(label) && strings.EqualFold(line[:len(label)], label)
}

func (t Type) valid() bool {
	return t == TypeWarning || t == TypeSuccess || t == TypeEcoTip
}

func filterValid(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, 0, len(recs))
	for _, r := range recs {
		if r.Title != "" && r.Type.valid() {
			out = append(out, r)
		}
	}
	return out
}

func validateReading(r models.Reading) error {
	for _, v := range []float64{r.Temperature, r.Humidity, r.CO2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: values must be finite numbers", ErrInvalidReading)
		}
	}
	if r.CO2 < 0 {
		return fmt.Errorf("%w: co2 must not be negative", ErrInvalidReading)
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		return fmt.Errorf("%w: humidity must be between 0 and 100", ErrInvalidReading)
	}
	return nil
}

// Rules 规则建议：每个指标一条，另附一条节能提示
func Rules(r models.Reading) []Recommendation {
	recs := make([]Recommendation, 0, 4)

	switch {
	case r.CO2 > 800:
		recs = append(recs, Recommendation{"CO₂ levels too high!", "Open windows or use air purification to lower CO₂ levels.", TypeWarning})
	case r.CO2 > 600:
		recs = append(recs, Recommendation{"CO₂ levels rising!", "Try opening a window for better ventilation.", TypeWarning})
	default:
		recs = append(recs, Recommendation{"CO₂ levels optimal", "CO₂ levels are in a healthy range, keep it up!", TypeSuccess})
	}

	switch {
	case r.Temperature > 26:
		recs = append(recs, Recommendation{"Temperature too high!", "Consider lowering the AC or increasing ventilation.", TypeWarning})
	case r.Temperature < 22:
		recs = append(recs, Recommendation{"Temperature too low!", "Raise the temperature for energy efficiency and comfort.", TypeWarning})
	default:
		recs = append(recs, Recommendation{"Optimal temperature", "Temperature is in an ideal range for efficiency and comfort.", TypeSuccess})
	}

	switch {
	case r.Humidity > 60:
		recs = append(recs, Recommendation{"Humidity too high!", "Use a dehumidifier to reduce moisture levels.", TypeWarning})
	case r.Humidity < 40:
		recs = append(recs, Recommendation{"Humidity too low!", "Consider a humidifier to prevent dry air issues.", TypeWarning})
	default:
		recs = append(recs, Recommendation{"Optimal humidity", "Humidity is in a comfortable range.", TypeSuccess})
	}

	recs = append(recs, Recommendation{"Eco-Tip: Smart Ventilation", "Using timed ventilation can improve air quality while maintaining energy efficiency.", TypeEcoTip})
	return recs
}
