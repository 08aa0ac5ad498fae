package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizops-service/internal/app"
	"quizops-service/internal/domain"
)

// CatalogCache caches each quiz's answer key in Redis and falls back to the
// underlying catalog on a miss. Quiz and question listings pass straight
// through: only the scorer-facing answer keys sit on the hot path. Caching is
// safe because the catalog is immutable once seeded.
//
// Keys are stored as: SET quiz:{quizID}:keys {json array of (question, index)}
type CatalogCache struct {
	client *redis.Client
	source app.CatalogRepository
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, source app.CatalogRepository, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type cachedKey struct {
	QuestionID   string `json:"q"`
	CorrectIndex int    `json:"i"`
}

func (c *CatalogCache) ListQuizzes(ctx context.Context, limit, offset int) ([]domain.Quiz, error) {
	return c.source.ListQuizzes(ctx, limit, offset)
}

func (c *CatalogCache) QuizQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	return c.source.QuizQuestions(ctx, quizID)
}

func (c *CatalogCache) AnswerKeys(ctx context.Context, quizID string) ([]domain.AnswerKey, error) {
	if keys, ok := c.cachedKeys(ctx, quizID); ok {
		return keys, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if keys, ok := c.cachedKeys(ctx, quizID); ok {
			return keys, nil
		}

		keys, err := c.source.AnswerKeys(ctx, quizID)
		if err != nil {
			return nil, err
		}

		cached := make([]cachedKey, len(keys))
		for i, key := range keys {
			cached[i] = cachedKey{QuestionID: key.QuestionID, CorrectIndex: key.CorrectIndex}
		}
		if data, err := json.Marshal(cached); err == nil {
			// Best-effort fill; a failed SET only costs the next caller a reload.
			_ = c.client.Set(ctx, c.keysKey(quizID), data, c.ttlWithJitter()).Err()
		}
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.AnswerKey), nil
}

func (c *CatalogCache) cachedKeys(ctx context.Context, quizID string) ([]domain.AnswerKey, bool) {
	data, err := c.client.Get(ctx, c.keysKey(quizID)).Bytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	var cached []cachedKey
	if err := json.Unmarshal(data, &cached); err != nil || len(cached) == 0 {
		return nil, false
	}
	keys := make([]domain.AnswerKey, len(cached))
	for i, key := range cached {
		keys[i] = domain.AnswerKey{QuestionID: key.QuestionID, CorrectIndex: key.CorrectIndex}
	}
	return keys, true
}

func (c *CatalogCache) keysKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:keys", quizID)
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
