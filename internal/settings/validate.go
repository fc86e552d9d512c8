package settings

import (
	"fmt"
	"strings"

	"eco-alarm/internal/models"
)

// Issue 配置问题
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	// Blocking 为 true 时拒绝保存
	Blocking bool `json:"blocking"`
}

// ValidationError 包含所有阻断性问题
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Field+": "+issue.Message)
	}
	return "invalid alert settings: " + strings.Join(msgs, "; ")
}

// Validate 检查配置
// critical < high 视为配置错误（不做自动纠正）；未配置联系人只作提示
func Validate(s models.AlertSettings) []Issue {
	var issues []Issue

	if !s.AlertMethod.Valid() {
		issues = append(issues, Issue{
			Field:    "alertMethod",
			Message:  fmt.Sprintf("unknown alert method %q (expected email, sms or both)", s.AlertMethod),
			Blocking: true,
		})
	}

	for _, metric := range models.Metrics {
		pair := s.Thresholds.For(metric)
		if pair.Critical < pair.High {
			issues = append(issues, Issue{
				Field:    "thresholds." + string(metric),
				Message:  fmt.Sprintf("critical (%g) is below high (%g)", pair.Critical, pair.High),
				Blocking: true,
			})
		}
	}

	if s.Enabled {
		if s.AlertMethod.UsesEmail() && s.ContactInfo.Email == "" {
			issues = append(issues, Issue{
				Field:   "contactInfo.email",
				Message: "email channel selected but no primary email configured",
			})
		}
		if s.AlertMethod.UsesSMS() && s.ContactInfo.Phone == "" {
			issues = append(issues, Issue{
				Field:   "contactInfo.phone",
				Message: "sms channel selected but no primary phone configured",
			})
		}
	}

	return issues
}

// CheckBlocking 存在阻断性问题时返回 *ValidationError
func CheckBlocking(issues []Issue) error {
	var blocking []Issue
	for _, issue := range issues {
		if issue.Blocking {
			blocking = append(blocking, issue)
		}
	}
	if len(blocking) == 0 {
		return nil
	}
	return &ValidationError{Issues: blocking}
}
