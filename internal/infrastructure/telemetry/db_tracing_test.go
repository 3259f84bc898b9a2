package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRecord struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRecord{}))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop()))
}

func TestRegisterDBTracing_RecordsSpans(t *testing.T) {
	recorder := useRecorder(t)
	db := setupTestDB(t)

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop()))
	require.NoError(t, db.Create(&tracedRecord{Name: "a"}).Error)

	var out []tracedRecord
	require.NoError(t, db.Find(&out).Error)
	assert.Len(t, out, 1)
	assert.NotEmpty(t, recorder.Ended())
}
