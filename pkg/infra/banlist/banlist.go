// Package banlist keeps the registry of banned client fingerprints in redis.
// A record with a TTL is a temporary ban; a record without one is permanent.
package banlist

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/campusgate/campusgate/pkg/cache"
	"github.com/campusgate/campusgate/pkg/infra/fingerprint"
)

// ErrStoreUnavailable reports that the registry could not be consulted.
// The gate treats it as a ban: an unreadable registry never lets traffic
// through.
var ErrStoreUnavailable = errors.New("banlist: store unavailable")

const banRecordValue = "1"

type Registry struct {
	cache     *cache.Cache
	breaker   *gobreaker.CircuitBreaker
	logger    *logrus.Logger
	keyPrefix string
}

func NewRegistry(c *cache.Cache, keyPrefix string, logger *logrus.Logger) *Registry {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "banlist",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("ban registry breaker state changed")
		},
	})
	return &Registry{
		cache:     c,
		breaker:   breaker,
		logger:    logger,
		keyPrefix: keyPrefix,
	}
}

func (r *Registry) key(fp string) string {
	return r.keyPrefix + fp
}

// IsBanned reports whether the address has an active ban record. Invalid
// addresses and store failures both surface as errors so the caller can
// fail closed.
func (r *Registry) IsBanned(ctx context.Context, rawAddress string) (bool, error) {
	fp, err := fingerprint.Hash(rawAddress)
	if err != nil {
		return false, err
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.cache.Exists(ctx, r.key(fp))
	})
	if err != nil {
		r.logger.WithError(err).Error("failed to consult ban registry")
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return result.(bool), nil
}

// Ban records the address. A positive ttl writes with NX semantics so a
// repeated offense inside an active window cannot refresh the countdown;
// ttl <= 0 writes a permanent record, overwriting any temporary one.
func (r *Registry) Ban(ctx context.Context, rawAddress string, ttl time.Duration, reason string) error {
	fp, err := fingerprint.Hash(rawAddress)
	if err != nil {
		return err
	}

	_, err = r.breaker.Execute(func() (interface{}, error) {
		if ttl > 0 {
			return nil, r.cache.SetIfAbsent(ctx, r.key(fp), banRecordValue, ttl)
		}
		return nil, r.cache.Set(ctx, r.key(fp), banRecordValue, 0)
	})
	if err != nil {
		r.logger.WithError(err).WithField("reason", reason).Error("failed to write ban record")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	r.logger.WithFields(logrus.Fields{
		"fingerprint": fp,
		"ttl":         ttl.String(),
		"reason":      reason,
	}).Warn("client banned")
	return nil
}

// ResolveIP picks the client address the way the edge proxies present it:
// the X-Forwarded-For entries in order, then X-Real-IP, then the peer
// address. A candidate that does not parse as an IP is skipped, so a
// spoofed or mangled header cannot poison the fingerprint.
func ResolveIP(header func(string) string, peerAddress string) string {
	if forwarded := header("X-Forwarded-For"); forwarded != "" {
		for _, part := range strings.Split(forwarded, ",") {
			candidate := strings.TrimSpace(part)
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
	}
	if realIP := strings.TrimSpace(header("X-Real-IP")); realIP != "" {
		if net.ParseIP(realIP) != nil {
			return realIP
		}
	}
	return strings.TrimSpace(peerAddress)
}
