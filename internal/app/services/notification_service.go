package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/safatanc/giftdrop-core/internal/app/models"
	"github.com/sirupsen/logrus"
)

// ClaimNotifier informs a voucher's creator that a claim happened. Best
// effort only: it must be invoked after the claim committed and its failures
// never surface to the claimant.
type ClaimNotifier interface {
	NotifyClaim(event models.ClaimEvent)
}

// RedisClaimNotifier publishes claim events to a per-creator pub/sub channel
// that notification workers subscribe to.
type RedisClaimNotifier struct {
	redis     *redis.Client
	keyPrefix string
}

func NewRedisClaimNotifier(redis *redis.Client, keyPrefix string) *RedisClaimNotifier {
	return &RedisClaimNotifier{
		redis:     redis,
		keyPrefix: keyPrefix,
	}
}

func (n *RedisClaimNotifier) NotifyClaim(event models.ClaimEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.Warnf("claim notification dropped for voucher %s: %v", event.VoucherCode, err)
		return
	}

	channel := fmt.Sprintf("%s:claims:%s", n.keyPrefix, event.CreatorID)
	if err := n.redis.Publish(context.Background(), channel, payload).Err(); err != nil {
		logrus.Warnf("claim notification dropped for voucher %s: %v", event.VoucherCode, err)
	}
}
