package utils

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var mu sync.Mutex
var seededRand *rand.Rand

func init() {
	seededRand = rand.New(rand.NewSource(time.Now().UnixNano()))
}

// GeneratePaymentReference builds a human-readable reference for support
// tickets. Uniqueness is guaranteed by external_payment_id, not this string.
func GeneratePaymentReference(userID uint) string {
	mu.Lock()
	defer mu.Unlock()

	nowNano := time.Now().UnixNano()
	nanoPart := nowNano % 1000000

	randPart := seededRand.Intn(900) + 100

	return fmt.Sprintf("TMK-%06d%03d%d", nanoPart, randPart, userID)
}
