package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/clinicbook/services/booking-service/internal/model"
)

// ServiceTypes is a read-through Redis cache in front of a service type
// source. Redis errors are logged and the source is used directly.
type ServiceTypes struct {
	rdb    redis.Cmdable
	next   availability.ServiceTypeSource
	ttl    time.Duration
	logger *slog.Logger
}

func NewServiceTypes(rdb redis.Cmdable, next availability.ServiceTypeSource, ttl time.Duration, logger *slog.Logger) *ServiceTypes {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ServiceTypes{rdb: rdb, next: next, ttl: ttl, logger: logger}
}

func (c *ServiceTypes) key(clinicID string) string {
	return "clinicbook:service_types:" + clinicID
}

func (c *ServiceTypes) ListServiceTypes(ctx context.Context, clinicID string) ([]model.ServiceType, error) {
	data, err := c.rdb.Get(ctx, c.key(clinicID)).Bytes()
	switch {
	case err == nil:
		var types []model.ServiceType
		if jsonErr := json.Unmarshal(data, &types); jsonErr == nil {
			return types, nil
		}
		c.logger.Warn("service type cache entry unreadable", "clinic_id", clinicID)
		if err := c.invalidate(ctx, clinicID); err != nil {
			c.logger.Warn("service type cache delete failed", "clinic_id", clinicID, "err", err)
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("service type cache read failed", "clinic_id", clinicID, "err", err)
	}

	types, err := c.next.ListServiceTypes(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(types); err == nil {
		if err := c.rdb.Set(ctx, c.key(clinicID), raw, c.ttl).Err(); err != nil {
			c.logger.Warn("service type cache write failed", "clinic_id", clinicID, "err", err)
		}
	}
	return types, nil
}

func (c *ServiceTypes) invalidate(ctx context.Context, clinicID string) error {
	return c.rdb.Del(ctx, c.key(clinicID)).Err()
}
