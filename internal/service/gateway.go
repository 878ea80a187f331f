package service

// Gateway is the realtime fan-out surface the dispatcher emits through. The
// websocket hub implements it; tests inject a fake. Emits to rooms with no
// live connection are silent no-ops, which is the expected path for offline
// recipients.
type Gateway interface {
	EmitToUser(userID uint, event string, payload interface{})
	EmitToRole(role string, event string, payload interface{})
	BroadcastExceptUser(userID uint, event string, payload interface{})
}
