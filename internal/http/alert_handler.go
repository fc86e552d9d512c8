package httpapi

import (
	"context"
	"errors"
	"net/http"

	"eco-alarm/internal/models"
	"eco-alarm/internal/recommend"
	"eco-alarm/internal/service"
	"eco-alarm/internal/settings"

	"go.uber.org/zap"
)

// ReadingCache 最新读数缓存（consumer.CacheManager 实现）
type ReadingCache interface {
	SetReading(ctx context.Context, userID string, reading models.Reading) error
}

// Recommender 环境建议（recommend.Client 实现）
type Recommender interface {
	Recommend(ctx context.Context, reading models.Reading) ([]recommend.Recommendation, string, error)
}

// AlertHandler 报警配置 / 读数评估 / 通知结果
type AlertHandler struct {
	alerts      *service.AlertService
	readings    ReadingCache
	recommender Recommender
	logger      *zap.Logger
}

// NewAlertHandler 创建报警 Handler，readings / recommender 可为 nil
func NewAlertHandler(alerts *service.AlertService, readings ReadingCache, recommender Recommender, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alerts:      alerts,
		readings:    readings,
		recommender: recommender,
		logger:      logger,
	}
}

type saveSettingsResult struct {
	Settings models.AlertSettings `json:"settings"`
	Issues   []settings.Issue     `json:"issues"`
}

type readingResult struct {
	models.EvaluationResult
	Stored bool `json:"stored"`
}

type recommendationsResult struct {
	Source          string                     `json:"source"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// Settings GET 读取 / PUT 保存
func (h *AlertHandler) Settings(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, Ok(h.alerts.GetSettings(r.Context(), userID)))
	case http.MethodPut:
		body, err := readBody(r, maxBodyBytes)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, Fail("failed to read request body"))
			return
		}

		saved, issues, err := h.alerts.SaveSettings(r.Context(), userID, body)
		if err != nil {
			var verr *settings.ValidationError
			switch {
			case errors.As(err, &verr):
				writeJSON(w, http.StatusBadRequest, FailWith(verr.Error(), verr.Issues))
			case errors.Is(err, service.ErrInvalidSettings):
				writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
			default:
				h.logger.Error("Failed to save alert settings",
					zap.String("user_id", userID),
					zap.Error(err),
				)
				writeJSON(w, http.StatusInternalServerError, Fail("failed to save alert settings"))
			}
			return
		}
		if issues == nil {
			issues = []settings.Issue{}
		}
		writeJSON(w, http.StatusOK, Ok(saveSettingsResult{Settings: saved, Issues: issues}))
	default:
		methodNotAllowed(w)
	}
}

// DefaultSettings 返回内置默认配置
func (h *AlertHandler) DefaultSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, Ok(models.DefaultAlertSettings()))
}

// EvaluateReading 仅评估，不通知
func (h *AlertHandler) EvaluateReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	reading, ok := h.decodeReading(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.alerts.Evaluate(r.Context(), userID, reading)))
}

// SubmitReading 写入最新读数并执行评估 + 通知
func (h *AlertHandler) SubmitReading(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	reading, ok := h.decodeReading(w, r)
	if !ok {
		return
	}

	stored := false
	if h.readings != nil {
		if err := h.readings.SetReading(r.Context(), userID, reading); err != nil {
			h.logger.Warn("Failed to cache reading",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else {
			stored = true
		}
	}

	result := h.alerts.NotifyUser(r.Context(), userID, reading)
	writeJSON(w, http.StatusOK, Ok(readingResult{EvaluationResult: result, Stored: stored}))
}

// Outcomes 最近的通知结果（toast）
func (h *AlertHandler) Outcomes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	userID, ok := userIDFromReq(w, r)
	if !ok {
		return
	}

	count := parseInt(r.URL.Query().Get("count"), 10)
	if count > 100 {
		count = 100
	}
	outcomes, err := h.alerts.LatestOutcomes(r.Context(), userID, int64(count))
	if err != nil {
		h.logger.Error("Failed to read alert outcomes",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("failed to read alert outcomes"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(outcomes))
}

// Recommendations 环境改善建议
func (h *AlertHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if _, ok := userIDFromReq(w, r); !ok {
		return
	}
	if h.recommender == nil {
		writeJSON(w, http.StatusOK, Fail("recommendations are not enabled"))
		return
	}

	reading, ok := h.decodeReading(w, r)
	if !ok {
		return
	}

	recs, source, err := h.recommender.Recommend(r.Context(), reading)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(recommendationsResult{Source: source, Recommendations: recs}))
}

func (h *AlertHandler) decodeReading(w http.ResponseWriter, r *http.Request) (models.Reading, bool) {
	var reading models.Reading
	if err := readBodyJSON(r, maxBodyBytes, &reading); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid reading payload"))
		return reading, false
	}
	return reading, true
}
