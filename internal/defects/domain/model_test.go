package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyStatus(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("first close stamps closed at", func(t *testing.T) {
		d := &Defect{Status: StatusOpen}
		d.ApplyStatus(StatusClosed, base)

		assert.Equal(t, StatusClosed, d.Status)
		require.NotNil(t, d.ClosedAt)
		assert.Equal(t, base, *d.ClosedAt)
	})

	t.Run("reopening keeps the stamp", func(t *testing.T) {
		d := &Defect{Status: StatusOpen}
		d.ApplyStatus(StatusClosed, base)
		d.ApplyStatus(StatusOpen, base.Add(time.Hour))

		assert.Equal(t, StatusOpen, d.Status)
		require.NotNil(t, d.ClosedAt)
		assert.Equal(t, base, *d.ClosedAt)
	})

	t.Run("re-closing does not restamp", func(t *testing.T) {
		d := &Defect{Status: StatusOpen}
		d.ApplyStatus(StatusClosed, base)
		d.ApplyStatus(StatusOpen, base.Add(time.Hour))
		d.ApplyStatus(StatusClosed, base.Add(2*time.Hour))

		assert.Equal(t, StatusClosed, d.Status)
		require.NotNil(t, d.ClosedAt)
		assert.Equal(t, base, *d.ClosedAt)
	})

	t.Run("non-closing transitions leave it nil", func(t *testing.T) {
		d := &Defect{Status: StatusOpen}
		d.ApplyStatus(StatusInReview, base)
		d.ApplyStatus(StatusFixed, base)
		d.ApplyStatus(StatusVerified, base)

		assert.Nil(t, d.ClosedAt)
	})

	t.Run("any transition is allowed", func(t *testing.T) {
		d := &Defect{Status: StatusVerified}
		d.ApplyStatus(StatusOpen, base)
		assert.Equal(t, StatusOpen, d.Status)
	})
}

func TestValidSeverity(t *testing.T) {
	for _, s := range []string{SeverityCritical, SeverityMajor, SeverityMinor, SeverityCosmetic} {
		assert.True(t, ValidSeverity(s), s)
	}
	assert.False(t, ValidSeverity("Bloqueante"))
	assert.False(t, ValidSeverity(""))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusOpen, StatusInReview, StatusFixed, StatusVerified, StatusClosed} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("Archivado"))
}
