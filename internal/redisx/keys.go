package redisx

import "time"

const (
	// Idempotency create order: idem:order:create:{key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Public tracking view: order_track:{order_number} -> JSON
	KeyOrderTrack = "order_track:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cart state: cart:{owner}
	KeyCart = "cart:%s"

	// Rate limit window counter: ratelimit:{scope}:{ip}:{window}
	KeyRateLimit = "ratelimit:%s:%s:%d"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLTrackCache  = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLCart        = 30 * 24 * time.Hour
)
