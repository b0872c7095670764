package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub, authMiddleware fiber.Handler) {
	r.Get("/map", websocket.New(func(c *websocket.Conn) {
		serve(c, hub, TopicMap)
	}))

	r.Get("/adventures/:id", websocket.New(func(c *websocket.Conn) {
		serve(c, hub, AdventureTopic(c.Params("id")))
	}))

	r.Get("/auth", authMiddleware, websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		serve(c, hub, AuthTopic(userID))
	}))
}

// serve mounts a viewport for the lifetime of the connection and tears it
// down when the peer goes away.
func serve(c *websocket.Conn, hub *Hub, topic string) {
	client := hub.Register(topic)
	defer hub.Unregister(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
	hub.Unregister(client)
	<-done
}
