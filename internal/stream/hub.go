package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	TopicMap = "map"

	channelPrefix = "storymap:stream:"
)

func AdventureTopic(id string) string { return "adventure:" + id }

func AuthTopic(userID string) string { return "auth:" + userID }

// Event is the payload delivered to viewports.
type Event struct {
	Type        string `json:"type"`
	AdventureID string `json:"adventure_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	Data        any    `json:"data,omitempty"`
}

// Hub fans events out to registered clients. With Redis configured every
// event goes through pub/sub so all replicas see it; otherwise it is
// delivered in-process.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	logger  *slog.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

// Client is one mounted viewport. Send is closed by Unregister.
type Client struct {
	Topic string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		redis:   redisClient,
		logger:  logger,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx := context.Background()
		ps := redisClient.PSubscribe(ctx, channelPrefix+"*")
		if _, err := ps.Receive(ctx); err != nil {
			logger.Warn("stream redis subscribe failed, using local fan-out", "error", err)
			_ = ps.Close()
			h.redis = nil
		} else {
			h.pubsub = ps
			go h.subscribeRedis(ps)
		}
	}
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topicClients, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := topicClients[client]; !ok {
		return
	}
	delete(topicClients, client)
	if len(topicClients) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

// Publish marshals ev and broadcasts it on each topic.
func (h *Hub) Publish(ev Event, topics ...string) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("stream event marshal failed", "type", ev.Type, "error", err)
		return
	}
	for _, topic := range topics {
		h.Broadcast(topic, payload)
	}
}

func (h *Hub) Broadcast(topic string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(topic), payload).Err()
		if err == nil {
			return
		}
		h.logger.Warn("redis publish failed, delivering locally", "topic", topic, "error", err)
	}
	h.deliver(topic, payload)
}

// deliver holds the read lock while sending so Unregister cannot close a
// channel mid-send. Slow clients drop messages rather than block the hub.
func (h *Hub) deliver(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[topic] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

// Subscribers returns the number of clients mounted on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

func (h *Hub) subscribeRedis(ps *redis.PubSub) {
	for msg := range ps.Channel() {
		topic := topicFromChannel(msg.Channel)
		if topic == "" {
			continue
		}
		h.deliver(topic, []byte(msg.Payload))
	}
}

func redisChannel(topic string) string {
	return channelPrefix + topic
}

func topicFromChannel(ch string) string {
	topic, ok := strings.CutPrefix(ch, channelPrefix)
	if !ok {
		return ""
	}
	return topic
}
