package models

// AlertMethod 通知方式
type AlertMethod string

const (
	AlertMethodEmail AlertMethod = "email"
	AlertMethodSMS   AlertMethod = "sms"
	AlertMethodBoth  AlertMethod = "both"
)

// Valid 是否为已知的通知方式
func (m AlertMethod) Valid() bool {
	switch m {
	case AlertMethodEmail, AlertMethodSMS, AlertMethodBoth:
		return true
	}
	return false
}

// UsesEmail 是否需要尝试邮件通道
func (m AlertMethod) UsesEmail() bool {
	return m == AlertMethodEmail || m == AlertMethodBoth
}

// UsesSMS 是否需要尝试短信通道
func (m AlertMethod) UsesSMS() bool {
	return m == AlertMethodSMS || m == AlertMethodBoth
}

// AlertSettings 用户报警配置（整体保存，整体覆盖）
type AlertSettings struct {
	Enabled     bool        `json:"enabled" yaml:"enabled"`
	AlertMethod AlertMethod `json:"alertMethod" yaml:"alertMethod"`
	ContactInfo ContactInfo `json:"contactInfo" yaml:"contactInfo"`
	Thresholds  Thresholds  `json:"thresholds" yaml:"thresholds"`
}

// ContactInfo 联系方式，空字符串表示未配置
type ContactInfo struct {
	Email          string `json:"email" yaml:"email"`
	SecondaryEmail string `json:"secondaryEmail" yaml:"secondaryEmail"`
	Phone          string `json:"phone" yaml:"phone"`
	SecondaryPhone string `json:"secondaryPhone" yaml:"secondaryPhone"`
}

// Thresholds 各指标阈值
type Thresholds struct {
	Temperature ThresholdPair `json:"temperature" yaml:"temperature"`
	Humidity    ThresholdPair `json:"humidity" yaml:"humidity"`
	CO2         ThresholdPair `json:"co2" yaml:"co2"`
}

// ThresholdPair high/critical 两级阈值，critical 应 >= high
type ThresholdPair struct {
	High     float64 `json:"high" yaml:"high"`
	Critical float64 `json:"critical" yaml:"critical"`
}

// For 返回指标对应的阈值
func (t Thresholds) For(metric Metric) ThresholdPair {
	switch metric {
	case MetricTemperature:
		return t.Temperature
	case MetricHumidity:
		return t.Humidity
	case MetricCO2:
		return t.CO2
	}
	return ThresholdPair{}
}

// DefaultAlertSettings 内置默认配置
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		Enabled:     true,
		AlertMethod: AlertMethodEmail,
		ContactInfo: ContactInfo{},
		Thresholds: Thresholds{
			Temperature: ThresholdPair{High: 27, Critical: 30},
			Humidity:    ThresholdPair{High: 65, Critical: 80},
			CO2:         ThresholdPair{High: 800, Critical: 1200},
		},
	}
}
