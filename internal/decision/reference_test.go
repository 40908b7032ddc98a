package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReferenceID(t *testing.T) {
	t.Run("derives from timestamp digits", func(t *testing.T) {
		ts := time.Date(2024, 7, 28, 12, 30, 45, 123_000_000, time.UTC)
		assert.Equal(t, "VRF-20240728123045", ReferenceID(ts))
	})

	t.Run("always fourteen digits", func(t *testing.T) {
		ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		ref := ReferenceID(ts)
		assert.Len(t, ref, len("VRF-")+14)
		assert.Equal(t, "VRF-20260102030405", ref)
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*60*60)
		local := time.Date(2026, 8, 30, 16, 0, 0, 0, loc)
		utc := local.UTC()
		assert.Equal(t, ReferenceID(utc), ReferenceID(local))
	})
}
