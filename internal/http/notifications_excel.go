package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eco-alarm/internal/models"
	"eco-alarm/internal/notifier"

	"github.com/xuri/excelize/v2"
)

const notificationsSheet = "Notifications"

// NotificationsExportHeader 导出表头
var NotificationsExportHeader = []string{
	"Time",
	"Alert Method",
	"Result",
	"Breaches",
	"Attempts",
	"Message",
	"Notification ID",
}

var notificationsColumnWidths = []float64{
	22, // Time
	14, // Alert Method
	10, // Result
	40, // Breaches
	50, // Attempts
	60, // Message
	38, // Notification ID
}

// GenerateNotificationsExport 生成通知历史 Excel 文件
func GenerateNotificationsExport(records []*models.NotificationRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(notificationsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range NotificationsExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(notificationsSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(notificationsSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(notificationsSheet, name, name, notificationsColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rec := range records {
		row := []any{
			rec.CreatedAt.UTC().Format(time.RFC3339),
			string(rec.AlertMethod),
			resultLabel(rec.Success),
			describeBreaches(rec.Alerts),
			describeAttempts(rec.Attempts),
			rec.Message,
			rec.NotificationID,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2) // 第1行是表头
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(notificationsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func resultLabel(ok bool) string {
	if ok {
		return "sent"
	}
	return "failed"
}

// describeBreaches temperature 31.0°C (critical); co2 1200 ppm (high)
func describeBreaches(raw json.RawMessage) string {
	var alerts []models.BreachEvent
	if err := json.Unmarshal(raw, &alerts); err != nil {
		return string(raw)
	}
	parts := make([]string, 0, len(alerts))
	for _, a := range alerts {
		parts = append(parts, fmt.Sprintf("%s %s (%s)", a.Type, notifier.FormatValue(a.Type, a.Value), a.Level))
	}
	return strings.Join(parts, "; ")
}

// describeAttempts email/primary ops@example.com ok; sms/secondary +1555 failed
func describeAttempts(raw json.RawMessage) string {
	var attempts []models.DeliveryAttempt
	if err := json.Unmarshal(raw, &attempts); err != nil {
		return string(raw)
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		status := "ok"
		if !a.Success {
			status = "failed"
		}
		parts = append(parts, fmt.Sprintf("%s/%s %s %s", a.Channel, a.Tier, a.Address, status))
	}
	return strings.Join(parts, "; ")
}
