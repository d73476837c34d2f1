package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/victornm/wordquiz/internal/game"
	"github.com/victornm/wordquiz/internal/syncloop"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// streamRoom pushes a reconciled view of the room on every change. With a "name" query parameter
// the stream carries that participant's view, otherwise the host view.
func (a *API) streamRoom(c *gin.Context) {
	code, name := c.Param("code"), c.Query("name")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "api: websocket upgrade failed", "room", code, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client only ever closes; reading detects that.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	loop := syncloop.NewLoop(syncloop.LoopConfig{
		Source:  a.source,
		Flashes: syncloop.NewFlashTracker(syncloop.NewMemoryFlashStore()),
	})

	write := func(v any) {
		if ctx.Err() != nil {
			return
		}
		if err := conn.WriteJSON(v); err != nil {
			slog.DebugContext(ctx, "api: websocket write failed", "room", code, "error", err)
			cancel()
		}
	}

	if name == "" {
		err = loop.RunHost(ctx, game.Host{RoomCode: code}, func(v syncloop.HostView) { write(v) })
	} else {
		err = loop.RunParticipant(ctx, game.Player{RoomCode: code, Name: name}, func(v syncloop.ParticipantView) { write(v) })
	}
	if err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "api: stream room failed", "room", code, "error", err)
	}
}
