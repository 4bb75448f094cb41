// Package ident generates entity IDs and admin secrets.
//
// IDs are labels: unique enough for a few thousand rows per shop, readable
// in logs. Admin secrets are credentials and always come from crypto/rand.
package ident

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Entity prefixes.
const (
	PrefixShop    = "shop"
	PrefixBarber  = "barber"
	PrefixService = "svc"
	PrefixBooking = "bk"
)

// SecretBytes is the amount of random material in an admin secret (128 bits).
const SecretBytes = 16

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Generator is what the service layer depends on. Tests swap in a Sequence.
type Generator interface {
	// NewID returns "<prefix>_<random>".
	NewID(prefix string) string
	// NewAdminSecret returns an opaque high-entropy token.
	NewAdminSecret() string
	// ShopID derives a shop identifier from its display name.
	ShopID(name string) string
}

// Random is the production generator.
type Random struct{}

func NewRandom() Random { return Random{} }

func (Random) NewID(prefix string) string {
	u := uuid.New()
	return prefix + "_" + hex.EncodeToString(u[:6])
}

func (Random) NewAdminSecret() string {
	b := make([]byte, SecretBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(fmt.Sprintf("ident: read random: %v", err))
	}
	return hex.EncodeToString(b)
}

func (r Random) ShopID(name string) string {
	slug := Slugify(name)
	if slug == "" {
		return r.NewID(PrefixShop)
	}
	return slug + "-" + randomSuffix(6)
}

// Slugify lower-cases name and collapses every run of characters outside
// [a-z0-9] into a single dash, trimming dashes at both ends.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func randomSuffix(n int) string {
	base := big.NewInt(int64(len(suffixAlphabet)))
	out := make([]byte, n)
	for i := range out {
		v, err := rand.Int(rand.Reader, base)
		if err != nil {
			panic(fmt.Sprintf("ident: read random: %v", err))
		}
		out[i] = suffixAlphabet[v.Int64()]
	}
	return string(out)
}

// Sequence hands out predictable values: "<prefix>_1", "<prefix>_2", ...
// Secrets are still 32 hex characters so format checks hold.
type Sequence struct {
	mu sync.Mutex
	n  int
}

func (s *Sequence) next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

func (s *Sequence) NewID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, s.next())
}

func (s *Sequence) NewAdminSecret() string {
	return fmt.Sprintf("%032x", s.next())
}

func (s *Sequence) ShopID(name string) string {
	slug := Slugify(name)
	if slug == "" {
		return s.NewID(PrefixShop)
	}
	return fmt.Sprintf("%s-%d", slug, s.next())
}
