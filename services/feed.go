package services

import (
	"context"
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/algoviz-app/algoviz_api/model"
)

// EntitlementFeed delivers entitlement changes to live readers. Publish is
// called after every merge; Subscribe registers a per-user listener and
// returns its unsubscribe func. Delivery is best-effort push: a reader that
// misses an update still converges on its next poll of the store.
type EntitlementFeed interface {
	Publish(ctx context.Context, ent *model.Entitlement) error
	Subscribe(ctx context.Context, userID string, onUpdate func(*model.Entitlement), onError func(error)) (func(), error)
}

// ==================== IN-PROCESS FEED ====================

// memoryFeed is the single-process fallback used when redis is not
// configured, and the implementation the tests run against.
type memoryFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(*model.Entitlement)
}

func newMemoryFeed() *memoryFeed {
	return &memoryFeed{subs: map[string]map[int]func(*model.Entitlement){}}
}

func (f *memoryFeed) Publish(_ context.Context, ent *model.Entitlement) error {
	f.mu.Lock()
	listeners := make([]func(*model.Entitlement), 0, len(f.subs[ent.UserID]))
	for _, fn := range f.subs[ent.UserID] {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(ent)
	}
	return nil
}

func (f *memoryFeed) Subscribe(_ context.Context, userID string, onUpdate func(*model.Entitlement), _ func(error)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	if f.subs[userID] == nil {
		f.subs[userID] = map[int]func(*model.Entitlement){}
	}
	f.subs[userID][id] = onUpdate

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs[userID], id)
		if len(f.subs[userID]) == 0 {
			delete(f.subs, userID)
		}
	}, nil
}

// ==================== REDIS FEED ====================

type redisFeed struct {
	redisSvc *RedisService
}

func newRedisFeed(redisSvc *RedisService) *redisFeed {
	return &redisFeed{redisSvc: redisSvc}
}

func entitlementChannel(userID string) string {
	return "entitlement:" + userID
}

func (f *redisFeed) Publish(ctx context.Context, ent *model.Entitlement) error {
	return f.redisSvc.Publish(ctx, entitlementChannel(ent.UserID), ent)
}

func (f *redisFeed) Subscribe(ctx context.Context, userID string, onUpdate func(*model.Entitlement), onError func(error)) (func(), error) {
	pubsub := f.redisSvc.Subscribe(ctx, entitlementChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	go func() {
		for msg := range pubsub.Channel() {
			var ent model.Entitlement
			if err := json.Unmarshal([]byte(msg.Payload), &ent); err != nil {
				log.WithError(err).Warn("Dropped malformed entitlement feed message")
				if onError != nil {
					onError(err)
				}
				continue
			}
			onUpdate(&ent)
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			log.WithError(err).Debug("Entitlement feed unsubscribe failed")
		}
	}, nil
}
