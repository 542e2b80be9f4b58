// File: internal/crawler/traceid.go
package crawler

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// traceIDLength matches the length of the trace tokens the target's own
// frontend generates.
const traceIDLength = 8

// rscParamLength is the length of the opaque cache-buster Next.js
// appends to RSC requests.
const rscParamLength = 5

const base36Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewTraceID returns a timestamp-derived request trace token: the
// current unix milliseconds in base 36, truncated to the last
// traceIDLength digits so consecutive runs stay distinct.
func NewTraceID(now time.Time) string {
	encoded := strconv.FormatInt(now.UnixMilli(), 36)
	if len(encoded) > traceIDLength {
		encoded = encoded[len(encoded)-traceIDLength:]
	}
	for len(encoded) < traceIDLength {
		encoded = "0" + encoded
	}
	return encoded
}

// NewRSCParam returns the random token sent as the _rsc query parameter
// on pagination requests. Next.js treats it as an opaque cache key, so
// any lowercase alphanumeric string of the right length passes.
func NewRSCParam(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(rscParamLength)
	for i := 0; i < rscParamLength; i++ {
		b.WriteByte(base36Alphabet[rng.Intn(len(base36Alphabet))])
	}
	return b.String()
}
