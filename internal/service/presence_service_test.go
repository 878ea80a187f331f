package service

import (
	"testing"

	"curanet/internal/domain"
	"curanet/internal/models"
	"curanet/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPresenceService(t *testing.T) (*PresenceService, *fakeGateway, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UserPresence{}))
	gw := &fakeGateway{}
	return NewPresenceService(repository.NewPresenceRepository(db), gw), gw, db
}

func TestPresenceOnlineOfflineCycle(t *testing.T) {
	svc, gw, db := newPresenceService(t)

	svc.SetOnline(4)
	var p models.UserPresence
	require.NoError(t, db.Where("user_id = ?", 4).First(&p).Error)
	assert.True(t, p.IsOnline)
	firstSeen := p.LastSeenAt

	svc.SetOffline(4)
	require.NoError(t, db.Where("user_id = ?", 4).First(&p).Error)
	assert.False(t, p.IsOnline)
	assert.False(t, p.LastSeenAt.Before(firstSeen))

	require.Len(t, gw.broadcasts, 2)
	for _, b := range gw.broadcasts {
		assert.Equal(t, uint(4), b.ExceptUserID, "status changes go to other connections only")
		assert.Equal(t, domain.EventOnlineStatus, b.Event)
	}
	last := gw.broadcasts[1].Payload.(map[string]interface{})
	assert.Equal(t, false, last["is_online"])
	assert.Equal(t, uint(4), last["user_id"])
}

func TestPresenceUpsertsSingleRow(t *testing.T) {
	svc, _, db := newPresenceService(t)

	svc.SetOnline(9)
	svc.SetOffline(9)
	svc.SetOnline(9)

	var count int64
	require.NoError(t, db.Model(&models.UserPresence{}).Where("user_id = ?", 9).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
