package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-boka/internal/tenantctx"
)

// Idem provides an Idempotency-Key middleware backed by Redis. Keys are
// scoped per tenant so the same key from different tenants never collides.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func hashKey(tenantID, key string) string {
	sum := sha256.Sum256([]byte(key))
	return tenantctx.PrefixKey(tenantID, "idem:"+hex.EncodeToString(sum[:]))
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		tenantID, _ := tenantctx.From(ctx)
		key := hashKey(tenantID, header)
		ok, err := i.R.SetNX(ctx, key, "locked", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		defer func() {
			// ensure the key expires even if handler panics
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
