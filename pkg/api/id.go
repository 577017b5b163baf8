package api

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const leadIDPrefix = "lead_"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewLeadID generates a lead ID: "lead_" followed by a ULID. IDs created by
// one process sort lexicographically in creation order, which the stores
// rely on for cursor pagination.
func NewLeadID() string {
	return leadIDPrefix + newULID(time.Now())
}

func newULID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ValidateLeadID checks whether the given string is a well-formed lead ID.
func ValidateLeadID(id string) bool {
	rest, ok := strings.CutPrefix(id, leadIDPrefix)
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(rest)
	return err == nil
}
