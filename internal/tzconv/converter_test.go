package tzconv

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func anchorDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestConvertWeeklyNewYorkToTokyo(t *testing.T) {
	zones := NewZones()
	// 2024-01-08 是周一，纽约处于标准时间
	c := NewConverter(zones, anchorDate(t, "2024-01-08"))

	got, err := c.Convert("America/New_York", "Asia/Tokyo", WeeklySlot{Day: Monday, Hour: 22})
	require.NoError(t, err)

	// 小时由两个时区在该时刻的偏移差决定
	local := time.Date(2024, time.January, 8, 22, 0, 0, 0, mustLocation(t, zones, "America/New_York"))
	srcOffset, _, err := zones.Offset(local, "America/New_York")
	require.NoError(t, err)
	dstOffset, _, err := zones.Offset(local, "Asia/Tokyo")
	require.NoError(t, err)
	wantHour := (22 + (dstOffset-srcOffset)/3600) % 24

	assert.Equal(t, "Tuesday", got.Key)
	assert.Equal(t, "Tuesday", got.Weekday)
	assert.Equal(t, wantHour, got.Hour)
	assert.Equal(t, 12, got.Hour)
}

func TestConvertSpecificDateLosAngelesToLondon(t *testing.T) {
	c := NewConverter(NewZones(), anchorDate(t, "2024-01-01"))

	slot, err := ParseDateSlot("2024-07-04", 23)
	require.NoError(t, err)

	got, err := c.Convert("America/Los_Angeles", "Europe/London", slot)
	require.NoError(t, err)
	assert.Equal(t, Converted{Key: "2024-07-05", Hour: 7, Weekday: "Friday"}, got)
}

func TestConvertShiftsDayBackward(t *testing.T) {
	c := NewConverter(NewZones(), anchorDate(t, "2024-01-08"))

	got, err := c.Convert("Asia/Tokyo", "America/New_York", WeeklySlot{Day: Monday, Hour: 5})
	require.NoError(t, err)
	assert.Equal(t, Converted{Key: "Sunday", Hour: 15, Weekday: "Sunday"}, got)

	slot, err := ParseDateSlot("2024-01-01", 0)
	require.NoError(t, err)
	got, err = c.Convert("Europe/Berlin", "America/Chicago", slot)
	require.NoError(t, err)
	assert.Equal(t, Converted{Key: "2023-12-31", Hour: 17, Weekday: "Sunday"}, got)
}

func TestConvertUsesOffsetOfConcreteOccurrence(t *testing.T) {
	zones := NewZones()
	slot := WeeklySlot{Day: Monday, Hour: 9}

	tests := []struct {
		name   string
		anchor string
		want   int
	}{
		{"冬令时", "2024-01-08", 14},
		{"夏令时", "2024-07-08", 13},
		// 锚点是周五，下一个周一 2024-03-11 已经在 3 月 10 日切换为夏令时之后
		{"跨越切换", "2024-03-08", 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter(zones, anchorDate(t, tt.anchor))
			got, err := c.Convert("America/New_York", "UTC", slot)
			require.NoError(t, err)
			assert.Equal(t, "Monday", got.Key)
			assert.Equal(t, tt.want, got.Hour)
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	c := NewConverter(NewZones(), anchorDate(t, "2024-01-10"))
	zones := []string{"America/New_York", "Asia/Tokyo", "Europe/London", "Australia/Sydney", "Pacific/Honolulu"}

	for _, a := range zones {
		for _, b := range zones {
			for day := Monday; day <= Sunday; day++ {
				for _, hour := range []int{0, 7, 13, 23} {
					there, err := c.Convert(a, b, WeeklySlot{Day: day, Hour: hour})
					require.NoError(t, err)

					backDay, ok := ParseWeekday(there.Key)
					require.True(t, ok)
					back, err := c.Convert(b, a, WeeklySlot{Day: backDay, Hour: there.Hour})
					require.NoError(t, err)

					assert.Equal(t, day.String(), back.Key, "%s -> %s %s %d", a, b, day, hour)
					assert.Equal(t, hour, back.Hour, "%s -> %s %s %d", a, b, day, hour)
				}
			}
		}
	}

	slot, err := ParseDateSlot("2024-02-29", 23)
	require.NoError(t, err)
	there, err := c.Convert("America/Los_Angeles", "Asia/Kolkata", slot)
	require.NoError(t, err)
	backSlot, err := ParseDateSlot(there.Key, there.Hour)
	require.NoError(t, err)
	// 加尔各答是半小时偏移，取整到小时后无法精确回到原值，这里只验证日期方向
	back, err := c.Convert("Asia/Kolkata", "America/Los_Angeles", backSlot)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", back.Key)
}

func TestConvertFloorsNonHourOffsets(t *testing.T) {
	c := NewConverter(NewZones(), anchorDate(t, "2024-01-01"))

	slot, err := ParseDateSlot("2024-01-01", 22)
	require.NoError(t, err)
	got, err := c.Convert("UTC", "Asia/Kolkata", slot)
	require.NoError(t, err)
	assert.Equal(t, Converted{Key: "2024-01-02", Hour: 3, Weekday: "Tuesday"}, got)
}

func TestConvertErrors(t *testing.T) {
	c := NewConverter(NewZones(), anchorDate(t, "2024-01-01"))

	_, err := c.Convert("Mars/Olympus_Mons", "UTC", WeeklySlot{Day: Monday, Hour: 1})
	var zoneErr *ZoneResolutionError
	require.True(t, errors.As(err, &zoneErr))
	assert.Equal(t, "Mars/Olympus_Mons", zoneErr.Zone)

	_, err = c.Convert("UTC", "", WeeklySlot{Day: Monday, Hour: 1})
	require.True(t, errors.As(err, &zoneErr))

	_, err = c.Convert("UTC", "UTC", WeeklySlot{Day: Monday, Hour: 24})
	var warn *InputValidationWarning
	require.True(t, errors.As(err, &warn))

	_, err = c.Convert("UTC", "UTC", WeeklySlot{Day: Weekday(9), Hour: 3})
	require.True(t, errors.As(err, &warn))

	_, err = c.Convert("UTC", "UTC", nil)
	var failure *ConversionFailure
	require.True(t, errors.As(err, &failure))
}

func TestNextOccurrence(t *testing.T) {
	// 2024-01-10 是周三
	c := NewConverter(NewZones(), anchorDate(t, "2024-01-10"))

	tests := []struct {
		day  Weekday
		want string
	}{
		{Wednesday, "2024-01-10"},
		{Thursday, "2024-01-11"},
		{Sunday, "2024-01-14"},
		{Monday, "2024-01-15"},
		{Tuesday, "2024-01-16"},
	}
	for _, tt := range tests {
		got, err := c.NextOccurrence(tt.day)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Format(DateLayout), tt.day.String())
		assert.Equal(t, tt.day.TimeWeekday(), got.Weekday())
	}
}

func TestNewConverterKeepsOnlyDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	c := NewConverter(nil, time.Date(2024, time.May, 1, 7, 30, 0, 0, tokyo))
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), c.Anchor())
	assert.NotNil(t, c.Zones())
}

func mustLocation(t *testing.T, zones ZoneDatabase, name string) *time.Location {
	t.Helper()
	loc, err := zones.Location(name)
	require.NoError(t, err)
	return loc
}
