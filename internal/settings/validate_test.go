package settings

import (
	"testing"

	"eco-alarm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	issues := Validate(models.DefaultAlertSettings())

	// 默认配置只缺少联系人（非阻断）
	require.Len(t, issues, 1)
	assert.Equal(t, "contactInfo.email", issues[0].Field)
	assert.False(t, issues[0].Blocking)
	assert.NoError(t, CheckBlocking(issues))
}

func TestValidate_CriticalBelowHigh(t *testing.T) {
	s := models.DefaultAlertSettings()
	s.ContactInfo.Email = "a@example.com"
	s.Thresholds.Humidity = models.ThresholdPair{High: 80, Critical: 70}

	issues := Validate(s)

	require.Len(t, issues, 1)
	assert.Equal(t, "thresholds.humidity", issues[0].Field)
	assert.True(t, issues[0].Blocking)

	err := CheckBlocking(issues)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "critical (70) is below high (80)")
}

func TestValidate_UnknownMethod(t *testing.T) {
	s := models.DefaultAlertSettings()
	s.AlertMethod = "fax"

	issues := Validate(s)

	require.NotEmpty(t, issues)
	assert.Equal(t, "alertMethod", issues[0].Field)
	assert.Error(t, CheckBlocking(issues))
}

func TestValidate_BothChannelsMissingContacts(t *testing.T) {
	s := models.DefaultAlertSettings()
	s.AlertMethod = models.AlertMethodBoth

	issues := Validate(s)

	require.Len(t, issues, 2)
	assert.Equal(t, "contactInfo.email", issues[0].Field)
	assert.Equal(t, "contactInfo.phone", issues[1].Field)
}

func TestValidate_DisabledSkipsContactHints(t *testing.T) {
	s := models.DefaultAlertSettings()
	s.Enabled = false

	assert.Empty(t, Validate(s))
}
