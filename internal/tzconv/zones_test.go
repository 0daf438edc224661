package tzconv

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDaylightSavingTime(t *testing.T) {
	zones := NewZones()
	january := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	july := time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		zone    string
		instant time.Time
		want    bool
	}{
		{"America/New_York", january, false},
		{"America/New_York", july, true},
		// 南半球的夏令时在 1 月
		{"Australia/Sydney", january, true},
		{"Australia/Sydney", july, false},
		{"Asia/Tokyo", july, false},
	}
	for _, tt := range tests {
		got, err := IsDaylightSavingTime(zones, tt.instant, tt.zone)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s %s", tt.zone, tt.instant.Month())
	}

	_, err := IsDaylightSavingTime(zones, july, "Nowhere/Special")
	var zoneErr *ZoneResolutionError
	assert.True(t, errors.As(err, &zoneErr))
}

func TestZonesOffset(t *testing.T) {
	zones := NewZones()

	offset, dst, err := zones.Offset(time.Date(2024, time.July, 4, 12, 0, 0, 0, time.UTC), "America/Los_Angeles")
	require.NoError(t, err)
	assert.Equal(t, -7*3600, offset)
	assert.True(t, dst)

	offset, dst, err = zones.Offset(time.Date(2024, time.July, 4, 12, 0, 0, 0, time.UTC), "Europe/London")
	require.NoError(t, err)
	assert.Equal(t, 3600, offset)
	assert.True(t, dst)
}

func TestZonesLocationIsCached(t *testing.T) {
	zones := NewZones()

	first, err := zones.Location("Europe/Paris")
	require.NoError(t, err)
	second, err := zones.Location("Europe/Paris")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = zones.Location("Local")
	assert.Error(t, err)
}

func TestWeekdayConventions(t *testing.T) {
	assert.Equal(t, Sunday, FromTimeWeekday(time.Sunday))
	assert.Equal(t, Monday, FromTimeWeekday(time.Monday))
	assert.Equal(t, Saturday, FromTimeWeekday(time.Saturday))

	for d := Monday; d <= Sunday; d++ {
		assert.Equal(t, d, FromTimeWeekday(d.TimeWeekday()))
		assert.Equal(t, d.TimeWeekday().String(), d.String())
	}

	_, ok := ParseWeekday("monday")
	assert.False(t, ok)
	day, ok := ParseWeekday("Sunday")
	assert.True(t, ok)
	assert.Equal(t, Sunday, day)

	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}, WeekdayNames())
	assert.Equal(t, "", Weekday(7).String())
}

func TestParseSlots(t *testing.T) {
	_, err := ParseWeeklySlot("Funday", 3)
	var warn *InputValidationWarning
	require.True(t, errors.As(err, &warn))

	_, err = ParseWeeklySlot("Friday", -1)
	require.True(t, errors.As(err, &warn))

	_, err = ParseDateSlot("2024-13-01", 3)
	require.True(t, errors.As(err, &warn))

	slot, err := ParseDateSlot("2024-07-04", 9)
	require.NoError(t, err)
	assert.Equal(t, Converted{Key: "2024-07-04", Hour: 9, Weekday: "Thursday"}, Unconverted(slot))

	weekly, err := ParseWeeklySlot("Saturday", 0)
	require.NoError(t, err)
	assert.Equal(t, Converted{Key: "Saturday", Hour: 0, Weekday: "Saturday"}, Unconverted(weekly))
}
