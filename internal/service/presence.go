package service

import (
	"context"
	"sync"
	"time"

	applog "engage-service/pkg/zap"

	"github.com/redis/go-redis/v9"
)

const (
	lastOnlineKeyPrefix  = "last_online:"
	deviceTokenKeyPrefix = "device_token:"

	deviceTokenTTL = 30 * 24 * time.Hour
)

// PresenceService tracks who is currently connected and persists last-online
// timestamps and push tokens in redis. Without a redis URL the in-memory
// connection counts still work and the redis operations become no-ops.
type PresenceService struct {
	rdb *redis.Client
	log applog.Logger

	mu     sync.RWMutex
	online map[string]int
}

func NewPresenceService(redisURL string, log applog.Logger) *PresenceService {
	svc := &PresenceService{
		log:    log,
		online: make(map[string]int),
	}

	if redisURL == "" {
		log.Info("redis: no URL configured, presence persistence disabled")
		return svc
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warnf("redis: invalid URL %q, presence persistence disabled: %v", redisURL, err)
		return svc
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warnf("redis: connection failed, presence persistence disabled: %v", err)
		return svc
	}

	log.Info("redis: connected, presence persistence enabled")
	svc.rdb = rdb
	return svc
}

// MarkOnline records one more live connection for the user. A user with
// several tabs open stays online until the last one closes.
func (s *PresenceService) MarkOnline(userID string) {
	s.mu.Lock()
	s.online[userID]++
	s.mu.Unlock()
}

func (s *PresenceService) MarkOffline(ctx context.Context, userID string) {
	s.mu.Lock()
	s.online[userID]--
	if s.online[userID] <= 0 {
		delete(s.online, userID)
	}
	s.mu.Unlock()

	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, lastOnlineKeyPrefix+userID, time.Now().Format(time.RFC3339), 0).Err(); err != nil {
		s.log.Warnf("redis: failed to store last online for %s: %v", userID, err)
	}
}

func (s *PresenceService) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online[userID] > 0
}

func (s *PresenceService) LastOnline(ctx context.Context, userID string) (time.Time, error) {
	if s.rdb == nil {
		return time.Time{}, nil
	}

	val, err := s.rdb.Get(ctx, lastOnlineKeyPrefix+userID).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}

	return time.Parse(time.RFC3339, val)
}

func (s *PresenceService) SetDeviceToken(ctx context.Context, userID, token string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, deviceTokenKeyPrefix+userID, token, deviceTokenTTL).Err()
}

func (s *PresenceService) DeviceToken(ctx context.Context, userID string) (string, error) {
	if s.rdb == nil {
		return "", nil
	}

	token, err := s.rdb.Get(ctx, deviceTokenKeyPrefix+userID).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}

	return token, nil
}
