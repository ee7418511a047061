package events

import (
	"bufio"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/middleware"
	authsvc "github.com/yieldvault/ledger/pkg/service/auth"
)

// HeartbeatInterval is how often an idle stream receives a comment line.
var HeartbeatInterval = 15 * time.Second

func Routes(app *fiber.App, hub *Hub, authSvc *authsvc.Service, cfg *config.App) {
	app.Get("/events", append(middleware.Protected(cfg.Auth.Jwt, authSvc), Stream(hub))...)
}

// Stream writes the caller's account events until the client goes away.
// Admins receive events for every account.
func Stream(hub *Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := middleware.CurrentSession(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		ch, unsubscribe := hub.Subscribe(sess.AccountID, sess.IsAdmin())

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer unsubscribe()
			heartbeat := time.NewTicker(HeartbeatInterval)
			defer heartbeat.Stop()

			fmt.Fprint(w, ": connected\n\n")
			if err := w.Flush(); err != nil {
				return
			}
			for {
				select {
				case data := <-ch:
					fmt.Fprintf(w, "data: %s\n\n", data)
				case <-heartbeat.C:
					fmt.Fprint(w, ": ping\n\n")
				}
				// A flush error means the client disconnected.
				if err := w.Flush(); err != nil {
					return
				}
			}
		}))
		return nil
	}
}
