package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Subscription is a push delivery endpoint registered by an account.
type Subscription struct {
	Endpoint string `json:"endpoint"`
}

// SubscriptionStore resolves an account's push endpoint.
// ErrNoSubscription is returned when the account never registered one.
type SubscriptionStore interface {
	Save(ctx context.Context, accountID string, sub Subscription) error
	Get(ctx context.Context, accountID string) (*Subscription, error)
}

// ErrNoSubscription marks accounts with no registered push endpoint.
var ErrNoSubscription = errors.New("no push subscription")

// redisSubscriptionStore keeps one JSON record per account in Redis.
type redisSubscriptionStore struct {
	client *redis.Client
}

// NewRedisSubscriptionStore builds the store on an existing client.
func NewRedisSubscriptionStore(client *redis.Client) SubscriptionStore {
	return &redisSubscriptionStore{client: client}
}

func subscriptionKey(accountID string) string {
	return "push:sub:" + accountID
}

func (s *redisSubscriptionStore) Save(ctx context.Context, accountID string, sub Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, subscriptionKey(accountID), data, 0).Err()
}

func (s *redisSubscriptionStore) Get(ctx context.Context, accountID string) (*Subscription, error) {
	data, err := s.client.Get(ctx, subscriptionKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSubscription
		}
		return nil, err
	}
	var sub Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	return &sub, nil
}
