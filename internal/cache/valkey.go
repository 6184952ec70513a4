package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const listingTTL = 5 * time.Minute

// ValkeyClient fronts a Valkey/Redis instance for two read paths:
// resolved auth credentials and listing lookups. Both are best-effort;
// a cache failure falls back to the database.
type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
}

func NewValkeyClient() (*ValkeyClient, error) {
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	password := os.Getenv("VALKEY_PASSWORD")
	usersHashKey := os.Getenv("VALKEY_USERS_HASH_KEY")
	if usersHashKey == "" {
		usersHashKey = "users:auth"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: usersHashKey,
	}, nil
}

// GetUserIDByAuth resolves a user id from cached email+password-hash
// credentials.
func (v *ValkeyClient) GetUserIDByAuth(ctx context.Context, email, passwordHash string) (int64, error) {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))

	userIDStr, err := v.client.HGet(ctx, v.usersHashKey, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("user not found in cache")
		}
		return 0, fmt.Errorf("failed to get user from cache: %w", err)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id in cache: %w", err)
	}
	return userID, nil
}

// SetUserAuth stores resolved credentials so subsequent requests skip
// the database lookup.
func (v *ValkeyClient) SetUserAuth(ctx context.Context, email, passwordHash string, userID int64) error {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))
	return v.client.HSet(ctx, v.usersHashKey, cacheKey, strconv.FormatInt(userID, 10)).Err()
}

func listingKey(listingID string) string {
	return "listings:" + listingID
}

// GetListingRaw returns the cached listing JSON untouched so the
// handler can serve it without an unmarshal/marshal round trip.
func (v *ValkeyClient) GetListingRaw(ctx context.Context, listingID string) ([]byte, error) {
	data, err := v.client.Get(ctx, listingKey(listingID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("listing not in cache")
		}
		return nil, fmt.Errorf("failed to get listing from cache: %w", err)
	}
	return data, nil
}

func (v *ValkeyClient) SetListing(ctx context.Context, listingID string, listing interface{}) error {
	payload, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing: %w", err)
	}
	return v.client.Set(ctx, listingKey(listingID), payload, listingTTL).Err()
}

// InvalidateListing drops a cached listing after its calendar changed.
func (v *ValkeyClient) InvalidateListing(ctx context.Context, listingID string) error {
	return v.client.Del(ctx, listingKey(listingID)).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
