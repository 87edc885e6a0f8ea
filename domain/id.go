package domain

import (
	"math/rand"
	"strconv"
	"time"
)

// NewLocalID builds an offline identifier: base36 milliseconds followed by a base36 random fragment.
func NewLocalID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + strconv.FormatUint(rand.Uint64(), 36)
}
