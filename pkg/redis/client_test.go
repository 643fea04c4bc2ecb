package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kalamart/storefront-api/pkg/config"
)

func TestKeyBuildersAreNamespaced(t *testing.T) {
	t.Parallel()

	c := &Client{}

	require.Equal(t, "sf:idempotency:scope:key-1", c.IdempotencyKey("scope", "key-1"))
	require.Equal(t, "sf:rate_limit:ip:login:1.2.3.4", c.RateLimitKey("ip:login:1.2.3.4"))
	require.Equal(t, "sf:session:access:abc", c.AccessSessionKey("abc"))
	require.Equal(t, "sf:wishlist:user-1", c.WishlistKey("user-1"))
	require.Equal(t, "sf:coupon:user-1", c.CouponKey("user-1"))
	require.Equal(t, "sf:buy_now:user-1", c.BuyNowKey("user-1"))
	require.Equal(t, "sf:payment:attempt:user-1", c.PaymentAttemptKey("user-1"))
	require.Equal(t, "sf:profile:user-1", c.ProfileKey("user-1"))
}

func TestBuildKeySkipsEmptyParts(t *testing.T) {
	t.Parallel()

	c := &Client{}
	require.Equal(t, "sf:idempotency:key-1", c.IdempotencyKey("", "key-1"))
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	t.Parallel()

	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)
}

func TestOptionsFromConfigParsesURL(t *testing.T) {
	t.Parallel()

	opts, err := optionsFromConfig(config.RedisConfig{
		URL:         "redis://:secret@localhost:6380/2",
		PoolSize:    20,
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, "localhost:6380", opts.Addr)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 20, opts.PoolSize)
	require.Equal(t, 2*time.Second, opts.DialTimeout)
}

func TestOptionsFromConfigAddressFallback(t *testing.T) {
	t.Parallel()

	opts, err := optionsFromConfig(config.RedisConfig{
		Address:  "127.0.0.1:6379",
		Password: "pw",
		DB:       1,
	})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6379", opts.Addr)
	require.Equal(t, "pw", opts.Password)
	require.Equal(t, 1, opts.DB)
}
