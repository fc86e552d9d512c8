package evaluator

import (
	"eco-alarm/internal/models"
)

// Evaluate 评估一组读数，返回越限事件
// 规则（每个指标独立）：
//   - 配置未启用时直接返回空结果
//   - 先比较 critical，>= critical 产生 critical 事件；否则 >= high 产生 high 事件
//   - 每个指标最多一个事件
//
// critical < high 的错误配置下，介于两者之间的读数仍按 critical 处理
func Evaluate(reading models.Reading, settings models.AlertSettings) models.EvaluationResult {
	alerts := make([]models.BreachEvent, 0, len(models.Metrics))

	if !settings.Enabled {
		return models.EvaluationResult{IsAlert: false, Alerts: alerts}
	}

	for _, metric := range models.Metrics {
		if event, ok := evaluateMetric(metric, reading.Value(metric), settings.Thresholds.For(metric)); ok {
			alerts = append(alerts, event)
		}
	}

	return models.EvaluationResult{
		IsAlert: len(alerts) > 0,
		Alerts:  alerts,
	}
}

func evaluateMetric(metric models.Metric, value float64, pair models.ThresholdPair) (models.BreachEvent, bool) {
	switch {
	case value >= pair.Critical:
		return models.BreachEvent{Type: metric, Level: models.LevelCritical, Value: value}, true
	case value >= pair.High:
		return models.BreachEvent{Type: metric, Level: models.LevelHigh, Value: value}, true
	}
	return models.BreachEvent{}, false
}

// Metrics 返回事件涉及的指标（保持顺序）
func Metrics(alerts []models.BreachEvent) []models.Metric {
	out := make([]models.Metric, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Type)
	}
	return out
}
