package domain

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// NumberGenerator produces human-facing order numbers like
// ORD-260315-7ZK3Q9XW1M: prefix, UTC date, then the low ten characters of a
// ULID.
type NumberGenerator struct {
	prefix  string
	now     func() time.Time
	mu      sync.Mutex
	entropy io.Reader
}

func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{
		prefix:  prefix,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *NumberGenerator) Next() (string, error) {
	t := g.now().UTC()

	g.mu.Lock()
	id, err := ulid.New(ulid.Timestamp(t), g.entropy)
	g.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}

	s := id.String()
	return fmt.Sprintf("%s-%s-%s", g.prefix, t.Format("060102"), s[len(s)-10:]), nil
}
