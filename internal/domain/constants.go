package domain

const (
	RolePatient = "PATIENT"
	RoleDoctor  = "DOCTOR"
	RoleAdmin   = "ADMIN"
)

// Notification kinds. The kind decides which structured fields in the
// notification's data payload are meaningful.
const (
	KindMessage     = "message"
	KindCall        = "call"
	KindAppointment = "appointment"
	KindSystem      = "system"
	KindMood        = "mood"
	KindOther       = "other"
)

// Server -> client websocket events.
const (
	EventNotification  = "notification"
	EventCountUpdate   = "notificationCountUpdate"
	EventMissed        = "missedNotifications"
	EventNewMessage    = "newMessage"
	EventIncomingCall  = "incomingCall"
	EventSystemNotif   = "systemNotification"
	EventNewAssignment = "newAssignment"
	EventAppointment   = "appointmentUpdate"
	EventMoodReminder  = "moodReminder"
	EventOnlineStatus  = "userOnlineStatus"
)

// Client -> server websocket events.
const (
	EventMarkRead    = "markNotificationRead"
	EventMarkAllRead = "markAllNotificationsRead"
	EventRequestSync = "requestSync"
)

// Push priorities. High is reserved for incoming calls so devices show
// them without batching delay.
const (
	PushPriorityNormal = "normal"
	PushPriorityHigh   = "high"
)

// Missed-notification replay window and cap for reconnecting clients.
const (
	MissedReplayWindowHours = 24
	MissedReplayLimit       = 10
)

// MessagePreviewLen caps chat text stored in a message notification preview.
const MessagePreviewLen = 100

// KindEvent maps a notification kind to its narrow websocket event, so
// clients can subscribe per kind instead of filtering the generic stream.
// Returns "" for kinds without a dedicated event.
func KindEvent(kind string) string {
	switch kind {
	case KindMessage:
		return EventNewMessage
	case KindCall:
		return EventIncomingCall
	case KindSystem:
		return EventSystemNotif
	case KindAppointment:
		return EventAppointment
	case KindMood:
		return EventMoodReminder
	default:
		return ""
	}
}
