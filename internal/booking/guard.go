package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claim is the state of a fingerprint when a submission tries to take it.
type Claim int

const (
	// ClaimFresh means the caller now owns the fingerprint and should send.
	ClaimFresh Claim = iota
	// ClaimPending means an identical submission is still being delivered.
	ClaimPending
	// ClaimDelivered means an identical submission was already delivered.
	ClaimDelivered
)

// DuplicateGuard suppresses repeated submissions of the same payload.
type DuplicateGuard interface {
	// Claim takes fingerprint for delivery, or reports who already holds it.
	Claim(ctx context.Context, fingerprint string) (Claim, error)
	// Confirm marks a claimed fingerprint as delivered.
	Confirm(ctx context.Context, fingerprint string) error
	// Release forgets fingerprint so a later retry can go through.
	Release(ctx context.Context, fingerprint string) error
}

const (
	duplicateKeyPrefix = "booking:dedupe:"
	claimPendingValue  = "pending"
	claimSentValue     = "sent"
)

// RedisDuplicateGuard holds fingerprints in Redis for a fixed window.
type RedisDuplicateGuard struct {
	client redis.Cmdable
	window time.Duration
}

func NewRedisDuplicateGuard(client redis.Cmdable, window time.Duration) *RedisDuplicateGuard {
	if client == nil {
		panic("booking: redis client cannot be nil")
	}
	if window <= 0 {
		panic("booking: duplicate window must be positive")
	}
	return &RedisDuplicateGuard{client: client, window: window}
}

func (g *RedisDuplicateGuard) Claim(ctx context.Context, fingerprint string) (Claim, error) {
	key := duplicateKeyPrefix + fingerprint
	ok, err := g.client.SetNX(ctx, key, claimPendingValue, g.window).Result()
	if err != nil {
		return ClaimFresh, fmt.Errorf("booking: claim fingerprint: %w", err)
	}
	if ok {
		return ClaimFresh, nil
	}

	state, err := g.client.Get(ctx, key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// Expired or released between the two calls; try once more.
		ok, err = g.client.SetNX(ctx, key, claimPendingValue, g.window).Result()
		if err != nil {
			return ClaimFresh, fmt.Errorf("booking: claim fingerprint: %w", err)
		}
		if ok {
			return ClaimFresh, nil
		}
		return ClaimPending, nil
	case err != nil:
		return ClaimFresh, fmt.Errorf("booking: read fingerprint: %w", err)
	case state == claimSentValue:
		return ClaimDelivered, nil
	default:
		return ClaimPending, nil
	}
}

func (g *RedisDuplicateGuard) Confirm(ctx context.Context, fingerprint string) error {
	if err := g.client.Set(ctx, duplicateKeyPrefix+fingerprint, claimSentValue, g.window).Err(); err != nil {
		return fmt.Errorf("booking: confirm fingerprint: %w", err)
	}
	return nil
}

func (g *RedisDuplicateGuard) Release(ctx context.Context, fingerprint string) error {
	if err := g.client.Del(ctx, duplicateKeyPrefix+fingerprint).Err(); err != nil {
		return fmt.Errorf("booking: release fingerprint: %w", err)
	}
	return nil
}

var _ DuplicateGuard = (*RedisDuplicateGuard)(nil)
