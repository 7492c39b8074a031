package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

var numberPattern = regexp.MustCompile(`^HD\d{2}\d{2}\d{4}$`)

// NumberGenerator produces HD{YY}{MM}{NNNN} order numbers.
type NumberGenerator struct {
	Now  func() time.Time
	Rand func(n int64) int64
}

func DefaultNumberGenerator() NumberGenerator {
	return NumberGenerator{Now: time.Now, Rand: cryptoRand}
}

func (g NumberGenerator) Next() string {
	now := g.Now()
	return fmt.Sprintf("HD%02d%02d%04d", now.Year()%100, int(now.Month()), g.Rand(10000))
}

// Assign sets o.Number only when it is still empty.
func (g NumberGenerator) Assign(o *Order) {
	if o.Number == "" {
		o.Number = g.Next()
	}
}

func ValidNumber(s string) bool { return numberPattern.MatchString(s) }

func cryptoRand(n int64) int64 {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return time.Now().UnixNano() % n
	}
	return v.Int64()
}
