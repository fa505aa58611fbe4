package media_test

import (
	"testing"

	"github.com/netgram/netgram/internal/media"
	"github.com/stretchr/testify/assert"
)

func Test_Fingerprint_IsDeterministic(t *testing.T) {
	first := media.Fingerprint("Inception", 2010)
	second := media.Fingerprint("Inception", 2010)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.Equal(t, first, media.Parse("Inception.2010.1080p.BluRay.mkv").Fingerprint())
}

func Test_Fingerprint_DiffersOnAnyChange(t *testing.T) {
	base := media.Fingerprint("Inception", 2010)
	variants := map[string]string{
		"case":       media.Fingerprint("inception", 2010),
		"whitespace": media.Fingerprint("Inception ", 2010),
		"year":       media.Fingerprint("Inception", 2011),
		"no year":    media.Fingerprint("Inception", 0),
	}

	for name, key := range variants {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, base, key)
		})
	}
}

func Test_Fingerprint_CollidesOnRawConcatenation(t *testing.T) {
	// Title and year are concatenated without a separator, so these collide. This
	// mirrors how existing catalogs were keyed and is intentionally preserved.
	assert.Equal(t, media.Fingerprint("Heat1", 995), media.Fingerprint("Heat", 1995))
}
