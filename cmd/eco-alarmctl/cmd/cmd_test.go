package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"eco-alarm/internal/auth"
	"eco-alarm/internal/models"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newEvaluateCmd(t *testing.T, flags map[string]string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().Float64("temperature", 0, "")
	cmd.Flags().Float64("humidity", 0, "")
	cmd.Flags().Float64("co2", 0, "")
	cmd.Flags().String("settings", "", "")
	cmd.Flags().Bool("json", false, "")
	for k, v := range flags {
		if err := cmd.Flags().Set(k, v); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return cmd, &buf
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestEvaluate_DefaultSettings(t *testing.T) {
	cmd, buf := newEvaluateCmd(t, map[string]string{"temperature": "31", "humidity": "50", "co2": "500"})

	if err := runEvaluate(cmd, nil); err != nil {
		t.Fatalf("runEvaluate() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "1 threshold(s) breached") {
		t.Errorf("expected one breach, got: %s", out)
	}
	if !strings.Contains(out, "- temperature: 31.0°C (critical)") {
		t.Errorf("expected temperature line, got: %s", out)
	}
}

func TestEvaluate_NoBreach(t *testing.T) {
	cmd, buf := newEvaluateCmd(t, map[string]string{"temperature": "20"})

	if err := runEvaluate(cmd, nil); err != nil {
		t.Fatalf("runEvaluate() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No thresholds breached.") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestEvaluate_YAMLSettingsAndJSONOutput(t *testing.T) {
	path := writeFile(t, "alerts.yaml", `
thresholds:
  co2:
    high: 800
    critical: 2000
`)
	cmd, buf := newEvaluateCmd(t, map[string]string{"co2": "900", "settings": path, "json": "true"})

	if err := runEvaluate(cmd, nil); err != nil {
		t.Fatalf("runEvaluate() error = %v", err)
	}

	var result models.EvaluationResult
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if !result.IsAlert || len(result.Alerts) != 1 || result.Alerts[0].Level != models.LevelHigh {
		t.Errorf("expected one high co2 breach, got %+v", result)
	}
}

func TestEvaluate_DisabledSettings(t *testing.T) {
	path := writeFile(t, "alerts.json", `{"enabled": false}`)
	cmd, buf := newEvaluateCmd(t, map[string]string{"temperature": "99", "settings": path})

	if err := runEvaluate(cmd, nil); err != nil {
		t.Fatalf("runEvaluate() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No thresholds breached.") {
		t.Errorf("disabled settings must not alert, got: %s", buf.String())
	}
}

func TestValidate_ReportsBlockingIssues(t *testing.T) {
	path := writeFile(t, "bad.json", `{"alertMethod":"fax","thresholds":{"humidity":{"high":80,"critical":70}}}`)

	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	err := runValidate(cmd, []string{path})
	if err == nil {
		t.Fatal("expected validation error")
	}
	out := buf.String()
	if !strings.Contains(out, "error: alertMethod") || !strings.Contains(out, "error: thresholds.humidity") {
		t.Errorf("expected both blocking issues, got: %s", out)
	}
}

func TestValidate_WarningsOnly(t *testing.T) {
	path := writeFile(t, "ok.json", `{"alertMethod":"email"}`)

	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := runValidate(cmd, []string{path}); err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "warning: contactInfo.email") || !strings.Contains(out, "is valid") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestDefaults_YAML(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := writeFormatted(cmd, models.DefaultAlertSettings(), "yaml"); err != nil {
		t.Fatalf("writeFormatted() error = %v", err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if doc["alertMethod"] != "email" {
		t.Errorf("expected alertMethod email, got %v", doc["alertMethod"])
	}
	if _, ok := doc["contactInfo"]; !ok {
		t.Errorf("expected contactInfo key, got: %s", buf.String())
	}
}

func TestDefaults_UnknownFormat(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	if err := writeFormatted(cmd, models.DefaultAlertSettings(), "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestToken_MintsValidToken(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("secret", "", "")
	cmd.Flags().Duration("ttl", time.Hour, "")
	cmd.Flags().String("email", "", "")
	_ = cmd.Flags().Set("secret", "cli-secret")
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := runToken(cmd, []string{"user-7"}); err != nil {
		t.Fatalf("runToken() error = %v", err)
	}

	claims, err := auth.ValidateToken(strings.TrimSpace(buf.String()), []byte("cli-secret"))
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "user-7" {
		t.Errorf("Subject = %q, want user-7", claims.Subject)
	}
}

func TestToken_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cmd := &cobra.Command{}
	cmd.Flags().String("secret", "", "")
	cmd.Flags().Duration("ttl", time.Hour, "")
	cmd.Flags().String("email", "", "")
	cmd.SetOut(&bytes.Buffer{})

	if err := runToken(cmd, []string{"user-7"}); err == nil {
		t.Fatal("expected error without secret")
	}
}
