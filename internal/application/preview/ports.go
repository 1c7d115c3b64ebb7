package preview

import (
	"context"
	"time"

	"github.com/messnightlife/mess-web/internal/domain"
)

type EventSource interface {
	GetEvent(ctx context.Context, id string) (*domain.RawEvent, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
}
