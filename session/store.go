package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"satchel/db"
	"satchel/models"
	"satchel/rdx"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound means no live session exists for a cart key. An expired but
// not-yet-swept row reports the same; callers start fresh either way.
var ErrNotFound = errors.New("cart session not found")

const cachePrefix = "cartsess:"

// Store is the durable key→session mapping: a mongo collection with a redis
// fast path in front. The cache entry's own TTL is capped at the session's
// remaining lifetime so it can never outlive the hard expiry.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Get(ctx context.Context, key string) (*models.CartSession, error) {
	if cached, err := rdx.RdxGet(cachePrefix + key); err == nil && cached != "" {
		var sess models.CartSession
		if err := json.Unmarshal([]byte(cached), &sess); err == nil && sess.ExpiresAt > time.Now().Unix() {
			return &sess, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("session cache read failed for %s: %v", key, err)
	}

	var sess models.CartSession
	err := db.SessionCollection.FindOne(ctx, bson.M{"cart_key": key}).Decode(&sess)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sess.ExpiresAt <= time.Now().Unix() {
		return nil, ErrNotFound
	}

	s.cache(&sess)
	return &sess, nil
}

// Put upserts by cart key; a duplicate key never surfaces to the caller.
func (s *Store) Put(ctx context.Context, sess *models.CartSession) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := db.SessionCollection.ReplaceOne(ctx, bson.M{"cart_key": sess.CartKey}, sess, opts); err != nil {
		return err
	}
	s.cache(sess)
	return nil
}

// Delete is idempotent: removing an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	rdx.RdxDel(cachePrefix + key)
	_, err := db.SessionCollection.DeleteOne(ctx, bson.M{"cart_key": key})
	return err
}

// Sweep deletes every session whose hard expiry has passed.
func (s *Store) Sweep(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.SessionCollection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now.Unix()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// StartSweeper runs Sweep on a ticker. Call once from main.
func (s *Store) StartSweeper(interval time.Duration) {
	ticker := time.NewTicker(interval)
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		deleted, err := s.Sweep(ctx, time.Now())
		cancel()
		if err != nil {
			log.Printf("session sweep failed: %v", err)
			continue
		}
		if deleted > 0 {
			log.Printf("session sweep removed %d expired carts", deleted)
		}
	}
}

func (s *Store) cache(sess *models.CartSession) {
	ttl := time.Until(time.Unix(sess.ExpiresAt, 0))
	if ttl <= 0 {
		return
	}
	blob, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := rdx.RdxSetTTL(cachePrefix+sess.CartKey, string(blob), ttl); err != nil {
		log.Printf("session cache write failed for %s: %v", sess.CartKey, err)
	}
}
