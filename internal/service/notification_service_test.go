package service

import (
	"sync"
	"testing"
	"time"

	"curanet/internal/domain"
	"curanet/internal/models"
	"curanet/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type emitted struct {
	UserID  uint
	Event   string
	Payload interface{}
}

type broadcasted struct {
	ExceptUserID uint
	Event        string
	Payload      interface{}
}

// fakeGateway records emissions so tests can assert on delivery without a
// live websocket hub.
type fakeGateway struct {
	mu         sync.Mutex
	events     []emitted
	broadcasts []broadcasted
}

func (g *fakeGateway) EmitToUser(userID uint, event string, payload interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, emitted{UserID: userID, Event: event, Payload: payload})
}

func (g *fakeGateway) EmitToRole(role string, event string, payload interface{}) {}

func (g *fakeGateway) BroadcastExceptUser(userID uint, event string, payload interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcasts = append(g.broadcasts, broadcasted{ExceptUserID: userID, Event: event, Payload: payload})
}

func (g *fakeGateway) byEvent(userID uint, event string) []emitted {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []emitted
	for _, e := range g.events {
		if e.UserID == userID && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (*NotificationService, *fakeGateway, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Notification{}))
	gw := &fakeGateway{}
	svc := NewNotificationService(repository.NewNotificationRepository(db), repository.NewUserRepository(db), gw, nil)
	return svc, gw, db
}

func TestDispatchPersistsAndEmits(t *testing.T) {
	svc, gw, db := newTestService(t)
	sender := &models.User{Name: "Dr. Adams", Email: "adams@example.com", Role: domain.RoleDoctor, AvatarURL: "http://img/a.png"}
	require.NoError(t, db.Create(sender).Error)

	n, err := svc.Dispatch(Intent{
		Kind:        domain.KindMessage,
		RecipientID: 42,
		SenderID:    &sender.ID,
		Title:       "New message",
		Message:     "Dr. Adams: Hello",
		Data:        map[string]interface{}{"channel_id": "ch-1"},
	})
	require.NoError(t, err)
	require.NotZero(t, n.ID)
	assert.False(t, n.Read)

	// persisted record keeps only the sender id
	var stored models.Notification
	require.NoError(t, db.First(&stored, n.ID).Error)
	assert.Equal(t, uint(42), stored.UserID)
	require.NotNil(t, stored.SenderID)
	assert.Equal(t, sender.ID, *stored.SenderID)

	// generic event carries the resolved sender
	generic := gw.byEvent(42, domain.EventNotification)
	require.Len(t, generic, 1)
	payload := generic[0].Payload.(map[string]interface{})
	senderInfo, ok := payload["sender"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Dr. Adams", senderInfo["name"])

	// narrow kind event with the same payload
	require.Len(t, gw.byEvent(42, domain.EventNewMessage), 1)

	// count update after the store write
	counts := gw.byEvent(42, domain.EventCountUpdate)
	require.Len(t, counts, 1)
	countPayload := counts[0].Payload.(map[string]interface{})
	assert.Equal(t, int64(1), countPayload["unreadCount"])
	assert.Equal(t, int64(1), countPayload["totalCount"])
}

func TestDispatchRequiresRecipient(t *testing.T) {
	svc, gw, _ := newTestService(t)
	_, err := svc.Dispatch(Intent{Kind: domain.KindSystem, Title: "x", Message: "y"})
	assert.ErrorIs(t, err, ErrRecipientRequired)
	assert.Empty(t, gw.events)
}

func TestUnreadCountTracksCreatesAndReads(t *testing.T) {
	svc, gw, _ := newTestService(t)

	const created = 6
	var ids []uint
	for i := 0; i < created; i++ {
		n, err := svc.Dispatch(Intent{Kind: domain.KindSystem, RecipientID: 7, Title: "t", Message: "m"})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	const marked = 4
	for i := 0; i < marked; i++ {
		require.NoError(t, svc.MarkRead(7, ids[i]))
	}

	counts := gw.byEvent(7, domain.EventCountUpdate)
	require.NotEmpty(t, counts)
	last := counts[len(counts)-1].Payload.(map[string]interface{})
	assert.Equal(t, int64(created-marked), last["unreadCount"])
	assert.Equal(t, int64(created), last["totalCount"])
}

func TestMarkReadIdempotentReemitsSameCount(t *testing.T) {
	svc, gw, _ := newTestService(t)
	n, err := svc.Dispatch(Intent{Kind: domain.KindSystem, RecipientID: 7, Title: "t", Message: "m"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(7, n.ID))
	require.NoError(t, svc.MarkRead(7, n.ID))

	counts := gw.byEvent(7, domain.EventCountUpdate)
	require.Len(t, counts, 3) // dispatch + two mark-read calls
	first := counts[1].Payload.(map[string]interface{})
	second := counts[2].Payload.(map[string]interface{})
	assert.Equal(t, first["unreadCount"], second["unreadCount"])
	assert.Equal(t, int64(0), second["unreadCount"])
}

func TestMarkAllRead(t *testing.T) {
	svc, gw, _ := newTestService(t)
	for i := 0; i < 5; i++ {
		_, err := svc.Dispatch(Intent{Kind: domain.KindSystem, RecipientID: 9, Title: "t", Message: "m"})
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllRead(9))

	counts := gw.byEvent(9, domain.EventCountUpdate)
	require.NotEmpty(t, counts)
	last := counts[len(counts)-1].Payload.(map[string]interface{})
	assert.Equal(t, int64(0), last["unreadCount"])
	assert.Equal(t, int64(5), last["totalCount"])
}

func TestResyncReplaysMissedCappedNewestFirst(t *testing.T) {
	svc, gw, db := newTestService(t)
	now := time.Now()

	// stale: outside the replay window
	require.NoError(t, db.Create(&models.Notification{
		UserID: 5, Kind: domain.KindSystem, Title: "stale", CreatedAt: now.Add(-25 * time.Hour),
	}).Error)
	for i := 0; i < 12; i++ {
		require.NoError(t, db.Create(&models.Notification{
			UserID:    5,
			Kind:      domain.KindMessage,
			Title:     "recent",
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		}).Error)
	}

	svc.Resync(5)

	require.Len(t, gw.byEvent(5, domain.EventCountUpdate), 1)
	missed := gw.byEvent(5, domain.EventMissed)
	require.Len(t, missed, 1, "replay is a single batch event")
	payload := missed[0].Payload.(map[string]interface{})
	batch := payload["notifications"].([]map[string]interface{})
	assert.Len(t, batch, domain.MissedReplayLimit)
	assert.Equal(t, domain.MissedReplayLimit, payload["count"])
	for _, item := range batch {
		assert.Equal(t, "recent", item["title"])
	}
	prev := batch[0]["created_at"].(time.Time)
	for _, item := range batch[1:] {
		cur := item["created_at"].(time.Time)
		assert.False(t, prev.Before(cur), "replay must be newest first")
		prev = cur
	}
}

func TestResyncWithNothingMissedEmitsOnlyCount(t *testing.T) {
	svc, gw, _ := newTestService(t)
	svc.Resync(3)
	assert.Len(t, gw.byEvent(3, domain.EventCountUpdate), 1)
	assert.Empty(t, gw.byEvent(3, domain.EventMissed))
}
