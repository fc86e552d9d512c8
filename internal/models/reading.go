package models

// Metric 监测指标
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricCO2         Metric = "co2"
)

// Metrics 评估顺序固定
var Metrics = []Metric{MetricTemperature, MetricHumidity, MetricCO2}

// Level 报警级别
type Level string

const (
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Reading 环境读数（°C / % / ppm）
type Reading struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CO2         float64 `json:"co2"`
	Timestamp   int64   `json:"timestamp,omitempty"` // Unix 秒
}

// Value 返回指标对应的读数
func (r Reading) Value(metric Metric) float64 {
	switch metric {
	case MetricTemperature:
		return r.Temperature
	case MetricHumidity:
		return r.Humidity
	case MetricCO2:
		return r.CO2
	}
	return 0
}

// BreachEvent 越限事件，每次评估新生成，不持久化
type BreachEvent struct {
	Type  Metric  `json:"type"`
	Level Level   `json:"level"`
	Value float64 `json:"value"`
}

// EvaluationResult 评估结果
type EvaluationResult struct {
	IsAlert bool          `json:"isAlert"`
	Alerts  []BreachEvent `json:"alerts"`
}
