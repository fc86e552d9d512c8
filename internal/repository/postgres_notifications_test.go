package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"eco-alarm/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupMockNotificationsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresNotificationsRepo) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewPostgresNotificationsRepo(db, logger)

	return db, mock, repo
}

var notificationColumns = []string{
	"notification_id", "user_id", "alert_method", "alerts", "attempts",
	"success", "message", "created_at",
}

func TestEnsureSchema(t *testing.T) {
	db, mock, repo := setupMockNotificationsDB(t)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS alert_notifications`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNotification_Success(t *testing.T) {
	db, mock, repo := setupMockNotificationsDB(t)
	defer db.Close()

	ctx := context.Background()
	id := uuid.New().String()
	now := time.Now()

	record := &models.NotificationRecord{
		NotificationID: id,
		UserID:         "user-1",
		AlertMethod:    models.AlertMethodEmail,
		Alerts:         json.RawMessage(`[{"type":"temperature","level":"critical","value":31}]`),
		Success:        true,
		Message:        "Alert notification sent via email: temperature (critical)",
		CreatedAt:      now,
	}

	mock.ExpectExec(`INSERT INTO alert_notifications`).
		WithArgs(
			id, "user-1", "email",
			`[{"type":"temperature","level":"critical","value":31}]`, `[]`,
			true, "Alert notification sent via email: temperature (critical)", now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateNotification(ctx, record)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNotification_MissingUser(t *testing.T) {
	db, mock, repo := setupMockNotificationsDB(t)
	defer db.Close()

	err := repo.CreateNotification(context.Background(), &models.NotificationRecord{NotificationID: "x"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "user_id is required")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNotification_DBError(t *testing.T) {
	db, mock, repo := setupMockNotificationsDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO alert_notifications`).
		WillReturnError(errors.New("connection reset"))

	err := repo.CreateNotification(context.Background(), &models.NotificationRecord{
		NotificationID: uuid.New().String(),
		UserID:         "user-1",
		AlertMethod:    models.AlertMethodSMS,
		CreatedAt:      time.Now(),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create notification")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListNotifications_Success(t *testing.T) {
	db, mock, repo := setupMockNotificationsDB(t)
	defer db.Close()

	ctx := context.Background()
	created := time.Now()
	success := false

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM alert_notifications WHERE user_id = \$1 AND success = \$2`).
		WithArgs("user-1", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	rows := sqlmock.NewRows(notificationColumns).
		AddRow("n-1", "user-1", "both", []byte(`[{"type":"co2","level":"high","value":1200}]`), []byte(`[]`), false, "Failed", created).
		AddRow("n-2", "user-1", "email", nil, nil, false, "Failed", created.Add(-time.Minute))

	mock.ExpectQuery(`SELECT`).
		WithArgs("user-1", false, 2, 0).
		WillReturnRows(rows)

	records, total, err := repo.ListNotifications(ctx, "user-1", NotificationFilters{Success: &success}, 1, 2)

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, records, 2)
	assert.Equal(t, "n-1", records[0].NotificationID)
	assert.Equal(t, models.AlertMethodBoth, records[0].AlertMethod)
	assert.JSONEq(t, `[{"type":"co2","level":"high","value":1200}]`, string(records[0].Alerts))
	assert.Equal(t, "[]", string(records[1].Alerts))
	assert.Equal(t, "[]", string(records[1].Attempts))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListNotifications_TimeRangeAndPaging(t *testing.T) {
	db, mock, repo := setupMockNotificationsDB(t)
	defer db.Close()

	start := time.Now().Add(-time.Hour)
	end := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("user-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`LIMIT \$4 OFFSET \$5`).
		WithArgs("user-1", start, end, 10, 20).
		WillReturnRows(sqlmock.NewRows(notificationColumns))

	records, total, err := repo.ListNotifications(context.Background(), "user-1",
		NotificationFilters{StartTime: &start, EndTime: &end}, 3, 10)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListNotifications_InvalidUser(t *testing.T) {
	db, mock, repo := setupMockNotificationsDB(t)
	defer db.Close()

	records, _, err := repo.ListNotifications(context.Background(), "", NotificationFilters{}, 1, 20)

	assert.Error(t, err)
	assert.Nil(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}
