// Package websocket streams coordinator notifications to connected
// listeners, the physical actuator first among them.
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a dedicated
// goroutine that manages reading, writing, and cleanup.
//
// Message Protocol:
//
// Every message is one JSON-encoded notification (session.created,
// move.accepted, or session.ended). Clients do not send anything meaningful
// upstream; the read side exists only to detect disconnects and answer pings.
//
// Session Integration:
//
// Clients pick their feed via query parameter when connecting: /ws?session=ID
// delivers only that session's notifications, plain /ws delivers everything.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//
//	service := service.NewControlService(store.NewMemory(hub), hub, ...)
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Concurrency:
//
// Hub implements event.Publisher with a non-blocking send into a buffered
// channel; when the hub falls behind, notifications to slow consumers are
// dropped rather than stalling the coordinator's serialized mutation path.
package websocket
