package socket

import (
	"context"
	"encoding/json"
	"log"
	"runtime"
	"strings"
	"sync"
	"time"

	"engage-service/internal/metrics"
	"engage-service/internal/service"
)

type WorkerPool struct {
	workers  int
	taskChan chan func()
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewWorkerPool(workers int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	wp := &WorkerPool{
		workers:  workers,
		taskChan: make(chan func(), 1000),
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 0; i < workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}

	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case task := <-wp.taskChan:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("Worker panic recovered: %v", r)
					}
				}()
				task()
			}()
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) Submit(task func()) {
	select {
	case wp.taskChan <- task:
	case <-wp.ctx.Done():
		return
	default:
		log.Printf("Worker pool is busy, task dropped")
		metrics.BroadcastErrors.Inc()
	}
}

func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
}

// Hub owns room membership and fans events out to every connection in a
// room. It is constructed once at startup and injected into the services
// that broadcast; it holds no state about a room beyond the set of currently
// joined connections.
type Hub struct {
	rooms      map[string]map[*Client]bool
	roomsMutex sync.RWMutex

	register   chan *Client
	unregister chan *Client

	presence *service.PresenceService

	// eventAuthorizer, when set, is consulted before a connection may join
	// an event room. Nil means event rooms are open.
	eventAuthorizer func(userID, eventID string) bool

	workerPool *WorkerPool

	rateLimiter map[string]*time.Ticker
	rateMutex   sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(presence *service.PresenceService) *Hub {

	ctx, cancel := context.WithCancel(context.Background())

	workerCount := runtime.NumCPU() * 2
	if workerCount < 4 {
		workerCount = 4
	}

	return &Hub{
		rooms:       make(map[string]map[*Client]bool),
		register:    make(chan *Client, 100),
		unregister:  make(chan *Client, 100),
		presence:    presence,
		workerPool:  NewWorkerPool(workerCount),
		rateLimiter: make(map[string]*time.Ticker),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (h *Hub) Run() {

	defer h.workerPool.Stop()

	cleanupTicker := time.NewTicker(5 * time.Minute)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			log.Println("Hub shutting down...")
			return

		case <-cleanupTicker.C:
			h.cleanupRateLimiters()

		case client := <-h.register:
			h.handleClientRegister(client)

		case client := <-h.unregister:
			h.handleClientUnregister(client)
		}
	}
}

func (h *Hub) handleClientRegister(client *Client) {

	h.presence.MarkOnline(client.userID)
	metrics.ActiveConnections.Inc()

	log.Printf("Client %s connected (%s)", client.userID, client.id)
}

// handleClientUnregister tears down a connection. A client can arrive here
// twice (the dead-client sweep plus its own readPump defer), so the side
// effects that must debit exactly once run inside closeOnce.
func (h *Hub) handleClientUnregister(client *Client) {

	rooms := client.roomList()
	for _, room := range rooms {
		h.LeaveRoom(client, room)
	}

	client.closeOnce.Do(func() {
		close(client.send)

		metrics.ActiveConnections.Dec()

		h.workerPool.Submit(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			h.presence.MarkOffline(ctx, client.userID)
		})

		log.Printf("Client %s disconnected (%s)", client.userID, client.id)
	})
}

// SetEventAuthorizer installs the membership check applied when a
// connection asks to join an event room. Must be called before Run.
func (h *Hub) SetEventAuthorizer(authorize func(userID, eventID string) bool) {
	h.eventAuthorizer = authorize
}

// canJoin decides whether a connection may join a room. Chat rooms are only
// open to the two users named in the key; event rooms defer to the
// configured authorizer.
func (h *Hub) canJoin(client *Client, roomKey string) bool {
	switch {
	case strings.HasPrefix(roomKey, "chat-"):
		pair := strings.TrimPrefix(roomKey, "chat-")
		return strings.HasPrefix(pair, client.userID+"-") ||
			strings.HasSuffix(pair, "-"+client.userID)

	case strings.HasPrefix(roomKey, "event-"):
		if h.eventAuthorizer == nil {
			return true
		}
		return h.eventAuthorizer(client.userID, strings.TrimPrefix(roomKey, "event-"))
	}

	return true
}

// JoinRoom adds the connection to a room. Joining a room the connection is
// already in is a no-op, and a room the caller is not allowed into is
// refused silently.
func (h *Hub) JoinRoom(client *Client, roomKey string) {

	if roomKey == "" {
		return
	}

	if !h.canJoin(client, roomKey) {
		log.Printf("Client %s refused room %s", client.userID, roomKey)
		return
	}

	h.roomsMutex.Lock()
	if _, ok := h.rooms[roomKey]; !ok {
		h.rooms[roomKey] = make(map[*Client]bool)
	}
	already := h.rooms[roomKey][client]
	h.rooms[roomKey][client] = true
	count := len(h.rooms[roomKey])
	h.roomsMutex.Unlock()

	if already {
		return
	}

	client.addRoom(roomKey)
	h.broadcastOnlineUpdate(roomKey, count)
}

// LeaveRoom removes the connection from a room. Leaving a room the
// connection never joined is a no-op.
func (h *Hub) LeaveRoom(client *Client, roomKey string) {

	h.roomsMutex.Lock()
	clients, ok := h.rooms[roomKey]
	if !ok || !clients[client] {
		h.roomsMutex.Unlock()
		return
	}
	delete(clients, client)
	count := len(clients)
	if count == 0 {
		delete(h.rooms, roomKey)
	}
	h.roomsMutex.Unlock()

	client.removeRoom(roomKey)
	h.broadcastOnlineUpdate(roomKey, count)
}

// Emit delivers a named event to every connection currently in the room.
// Fire and forget: a connection whose send buffer is full is dropped and
// must re-fetch state on reconnect, and failures never propagate to the
// mutation that triggered the emit.
func (h *Hub) Emit(roomKey, eventName string, payload interface{}) {

	data, err := json.Marshal(Envelope{
		Event: eventName,
		Room:  roomKey,
		Data:  payload,
	})
	if err != nil {
		log.Printf("Error marshaling event %s: %v", eventName, err)
		metrics.BroadcastErrors.Inc()
		return
	}

	metrics.EventsEmitted.WithLabelValues(eventName).Inc()
	h.sendToRoom(roomKey, data)
}

func (h *Hub) sendToRoom(roomKey string, message []byte) {
	h.roomsMutex.RLock()
	defer h.roomsMutex.RUnlock()

	if clients, ok := h.rooms[roomKey]; ok {
		deadClients := make([]*Client, 0)

		for client := range clients {
			select {
			case client.send <- message:
			default:
				deadClients = append(deadClients, client)
			}
		}

		for _, client := range deadClients {
			metrics.BroadcastErrors.Inc()
			go func(c *Client) {
				select {
				case h.unregister <- c:
				default:
				}
			}(client)
		}
	}
}

func (h *Hub) broadcastOnlineUpdate(roomKey string, count int) {
	h.workerPool.Submit(func() {
		h.Emit(roomKey, "online-update", OnlineUpdate{
			Room:        roomKey,
			OnlineCount: count,
		})
	})
}

// RoomSize reports how many connections are currently in a room.
func (h *Hub) RoomSize(roomKey string) int {
	h.roomsMutex.RLock()
	defer h.roomsMutex.RUnlock()
	return len(h.rooms[roomKey])
}

func (h *Hub) checkRateLimit(userID string) bool {
	h.rateMutex.Lock()
	defer h.rateMutex.Unlock()

	if _, exists := h.rateLimiter[userID]; !exists {
		// Allow 10 commands per second per user
		h.rateLimiter[userID] = time.NewTicker(100 * time.Millisecond)
		return true
	}

	select {
	case <-h.rateLimiter[userID].C:
		return true
	default:
		return false
	}
}

func (h *Hub) cleanupRateLimiters() {
	h.rateMutex.Lock()
	defer h.rateMutex.Unlock()

	for userID, ticker := range h.rateLimiter {
		if !h.presence.IsOnline(userID) {
			ticker.Stop()
			delete(h.rateLimiter, userID)
		}
	}
}

func (h *Hub) Shutdown() {
	h.cancel()
	h.rateMutex.Lock()
	for _, ticker := range h.rateLimiter {
		ticker.Stop()
	}
	h.rateMutex.Unlock()
}
