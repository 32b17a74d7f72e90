// Package ws implements the /stream WebSocket hub.
//
// Hub manages a set of connected clients and broadcasts the lucky picks to
// all of them on a configurable interval (default 30s).
//
// New(src, interval, origins) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker; it blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the current
// picks immediately on connect, then streams updates on each tick.
//
// Message format sent to clients:
//
//	{
//	  "event": "lucky",
//	  "data":  { /* same schema as GET /lucky */ }
//	}
//
// The access guard is applied by the api package before the upgrade.
package ws
