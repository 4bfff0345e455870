package service

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewIdempotencyKey returns a fresh ULID. It is generated once per finished workout and
// reused for every submission attempt of that workout.
func NewIdempotencyKey() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
