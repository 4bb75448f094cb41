package ident

import (
	"encoding/hex"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gallari", "gallari"},
		{"  Joe's Barber Shop!! ", "joe-s-barber-shop"},
		{"FADE--HOUSE 24/7", "fade-house-24-7"},
		{"!!!", ""},
		{"", ""},
		{"Café Noir", "caf-noir"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestRandom_NewID(t *testing.T) {
	g := NewRandom()
	re := regexp.MustCompile(`^bk_[0-9a-f]{12}$`)

	seen := make(map[string]struct{})
	for i := 0; i < 5000; i++ {
		id := g.NewID(PrefixBooking)
		require.Regexp(t, re, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestRandom_NewAdminSecret(t *testing.T) {
	g := NewRandom()

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		s := g.NewAdminSecret()
		raw, err := hex.DecodeString(s)
		require.NoError(t, err)
		require.Len(t, raw, SecretBytes)
		_, dup := seen[s]
		require.False(t, dup)
		seen[s] = struct{}{}
	}
}

func TestRandom_ShopID(t *testing.T) {
	g := NewRandom()

	id := g.ShopID("Gallari")
	assert.Regexp(t, `^gallari-[0-9a-z]{6}$`, id)
	assert.NotEqual(t, id, g.ShopID("Gallari"))

	assert.True(t, strings.HasPrefix(g.ShopID("***"), "shop_"))
}

func TestSequence(t *testing.T) {
	var s Sequence
	assert.Equal(t, "barber_1", s.NewID(PrefixBarber))
	assert.Equal(t, "svc_2", s.NewID(PrefixService))
	assert.Equal(t, "gallari-3", s.ShopID("Gallari"))
	assert.Equal(t, "shop_4", s.ShopID(""))
	assert.Len(t, s.NewAdminSecret(), 32)
}
