package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(hour, minute int) time.Time {
	return time.Date(2025, time.July, 7, hour, minute, 0, 0, time.UTC)
}

func TestNormalizer_Normalize_InterpretsWallClockInZone(t *testing.T) {
	n := domain.NewNormalizer()

	w, err := n.Normalize("a@example.com", "Asia/Kolkata", domain.RawWindow{
		Start: "2025-07-07 09:00",
		End:   "2025-07-07 10:00",
	})

	require.NoError(t, err)
	assert.True(t, w.Start.Equal(utc(3, 30)))
	assert.True(t, w.End.Equal(utc(4, 30)))
	assert.Equal(t, time.UTC, w.Start.Location())
}

func TestNormalizer_Normalize_FixedOffsetZone(t *testing.T) {
	n := domain.NewNormalizer()

	for _, tz := range []string{"UTC+05:30", "+0530", "GMT+5:30"} {
		t.Run(tz, func(t *testing.T) {
			w, err := n.Normalize("a@example.com", tz, domain.RawWindow{
				Start: "2025-07-07T09:00",
				End:   "2025-07-07T10:00",
			})
			require.NoError(t, err)
			assert.True(t, w.Start.Equal(utc(3, 30)))
			assert.True(t, w.End.Equal(utc(4, 30)))
		})
	}
}

func TestNormalizer_Normalize_ExplicitOffsetWins(t *testing.T) {
	n := domain.NewNormalizer()

	w, err := n.Normalize("a@example.com", "Asia/Kolkata", domain.RawWindow{
		Start: "2025-07-07T09:00:00-04:00",
		End:   "2025-07-07T14:00:00Z",
	})

	require.NoError(t, err)
	assert.True(t, w.Start.Equal(utc(13, 0)))
	assert.True(t, w.End.Equal(utc(14, 0)))
}

func TestNormalizer_Normalize_OffsetWithoutColon(t *testing.T) {
	n := domain.NewNormalizer()

	for _, raw := range []domain.RawWindow{
		{Start: "2025-07-07T09:00:00+0530", End: "2025-07-07T10:00:00+0530"},
		{Start: "2025-07-07 09:00:00+0530", End: "2025-07-07 10:00:00+0530"},
		{Start: "2025-07-07T09:00+0530", End: "2025-07-07T10:00+0530"},
	} {
		t.Run(raw.Start, func(t *testing.T) {
			w, err := n.Normalize("a@example.com", "UTC", raw)

			require.NoError(t, err)
			assert.True(t, w.Start.Equal(utc(3, 30)))
			assert.True(t, w.End.Equal(utc(4, 30)))
		})
	}
}

func TestNormalizer_Normalize_AcrossDSTChange(t *testing.T) {
	n := domain.NewNormalizer()

	w, err := n.Normalize("a@example.com", "America/New_York", domain.RawWindow{
		Start: "2025-03-09 01:30",
		End:   "2025-03-09 03:30",
	})

	require.NoError(t, err)
	assert.True(t, w.Start.Equal(time.Date(2025, time.March, 9, 6, 30, 0, 0, time.UTC)))
	assert.True(t, w.End.Equal(time.Date(2025, time.March, 9, 7, 30, 0, 0, time.UTC)))
	assert.Equal(t, time.Hour, w.Duration())
}

func TestNormalizer_Normalize_UnknownTimezone(t *testing.T) {
	n := domain.NewNormalizer()

	_, err := n.Normalize("a@example.com", "Mars/Olympus_Mons", domain.RawWindow{
		Start: "2025-07-07 09:00",
		End:   "2025-07-07 10:00",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.ErrorIs(t, err, domain.ErrUnknownTimezone)

	var malformed *domain.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "a@example.com", malformed.ParticipantID)
	assert.Equal(t, "timezone", malformed.Field)
	assert.Equal(t, "Mars/Olympus_Mons", malformed.Value)
}

func TestNormalizer_Normalize_RejectsEmptyAndLocalZone(t *testing.T) {
	n := domain.NewNormalizer()
	raw := domain.RawWindow{Start: "2025-07-07 09:00", End: "2025-07-07 10:00"}

	for _, tz := range []string{"", "Local", "UTC+25:00"} {
		_, err := n.Normalize("a@example.com", tz, raw)
		assert.ErrorIs(t, err, domain.ErrMalformedInput, "timezone %q", tz)
	}
}

func TestNormalizer_Normalize_RejectsInvertedWindow(t *testing.T) {
	n := domain.NewNormalizer()

	_, err := n.Normalize("a@example.com", "UTC", domain.RawWindow{
		Start: "2025-07-07 10:00",
		End:   "2025-07-07 10:00",
	})

	assert.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestNormalizer_NormalizeParticipant(t *testing.T) {
	n := domain.NewNormalizer()

	p, err := n.NormalizeParticipant(domain.ParticipantInput{
		ID:       "john.doe42@example.com",
		Timezone: "UTC",
		Windows: []domain.RawWindow{
			{Start: "2025-07-07 09:00", End: "2025-07-07 11:00"},
			{Start: "2025-07-07 14:00", End: "2025-07-07 15:00"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "john.doe42@example.com", p.ID())
	assert.Equal(t, "John Doe", p.DisplayName())
	assert.Equal(t, "UTC", p.Timezone())
	require.Len(t, p.Windows(), 2)
	assert.True(t, p.Windows()[1].Start.Equal(utc(14, 0)))
}

func TestNormalizer_NormalizeParticipant_IdentifiesOffendingField(t *testing.T) {
	n := domain.NewNormalizer()

	_, err := n.NormalizeParticipant(domain.ParticipantInput{
		ID:       "b@example.com",
		Timezone: "UTC",
		Windows: []domain.RawWindow{
			{Start: "2025-07-07 09:00", End: "2025-07-07 11:00"},
			{Start: "2025-07-07 14:00", End: "around three"},
		},
	})

	var malformed *domain.MalformedInputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "b@example.com", malformed.ParticipantID)
	assert.Equal(t, "windows[1].end", malformed.Field)
	assert.Equal(t, "around three", malformed.Value)
	assert.ErrorIs(t, err, domain.ErrUnparseableTimestamp)
}

func TestNormalizer_NormalizeParticipant_RequiresIdentifier(t *testing.T) {
	n := domain.NewNormalizer()

	_, err := n.NormalizeParticipant(domain.ParticipantInput{Timezone: "UTC"})

	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestNormalizer_NormalizeParticipant_ExplicitNameIsCleaned(t *testing.T) {
	n := domain.NewNormalizer()

	p, err := n.NormalizeParticipant(domain.ParticipantInput{
		ID:          "x@example.com",
		DisplayName: "ada_lovelace 1815",
		Timezone:    "UTC",
	})

	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.DisplayName())
	assert.False(t, p.HasAvailability())
}

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name       string
		wantOffset int
		wantErr    bool
	}{
		{"UTC", 0, false},
		{"Z", 0, false},
		{"UTC-03:00", -3 * 3600, false},
		{"+0530", 5*3600 + 30*60, false},
		{"Asia/Kolkata", 5*3600 + 30*60, false},
		{"Nowhere/Special", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := domain.LoadLocation(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnknownTimezone)
				return
			}
			require.NoError(t, err)
			_, offset := utc(12, 0).In(loc).Zone()
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "User", domain.CleanName("1234"))
	assert.Equal(t, "User", domain.CleanName(""))
	assert.Equal(t, "Priya Sharma", domain.CleanName("priya-sharma"))
	assert.Equal(t, "User", domain.DisplayNameFromID("42@example.com"))
}
