package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/domain"
	"github.com/sysu-ecnc-dev/tz-grid/backend/internal/tzconv"
)

func TestValidateParticipantAvailability(t *testing.T) {
	tests := []struct {
		name             string
		availabilityType domain.AvailabilityType
		participantType  domain.AvailabilityType
		availability     map[string][]int
		wantErr          bool
	}{
		{"weekly ok", domain.AvailabilityWeekly, "", map[string][]int{"Monday": {9}}, false},
		{"specific ok", domain.AvailabilitySpecific, domain.AvailabilitySpecific, map[string][]int{"2024-07-04": {23}}, false},
		{"type mismatch", domain.AvailabilityWeekly, domain.AvailabilitySpecific, map[string][]int{"Monday": {9}}, true},
		{"empty", domain.AvailabilityWeekly, "", map[string][]int{}, true},
		{"lowercase weekday", domain.AvailabilityWeekly, "", map[string][]int{"monday": {9}}, true},
		{"bad date", domain.AvailabilitySpecific, "", map[string][]int{"2024-02-30": {9}}, true},
		{"weekday in specific mode", domain.AvailabilitySpecific, "", map[string][]int{"Monday": {9}}, true},
		{"hour out of range", domain.AvailabilityWeekly, "", map[string][]int{"Monday": {24}}, true},
		{"negative hour", domain.AvailabilityWeekly, "", map[string][]int{"Monday": {-1}}, true},
		{"no hours", domain.AvailabilityWeekly, "", map[string][]int{"Monday": {}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &domain.Participant{AvailabilityType: tt.participantType, Availability: tt.availability}
			err := ValidateParticipantAvailability(p, tt.availabilityType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.availabilityType, p.AvailabilityType)
		})
	}
}

func TestValidateParticipantAvailabilityNormalizesHours(t *testing.T) {
	p := &domain.Participant{
		Availability: map[string][]int{
			"Monday":  {17, 9, 9, 12},
			"Tuesday": {3},
		},
	}

	require.NoError(t, ValidateParticipantAvailability(p, domain.AvailabilityWeekly))
	assert.Equal(t, []int{9, 12, 17}, p.Availability["Monday"])
	assert.Equal(t, []int{3}, p.Availability["Tuesday"])
}

func TestGenerateRandomParticipantIsValid(t *testing.T) {
	from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	for _, typ := range []domain.AvailabilityType{domain.AvailabilityWeekly, domain.AvailabilitySpecific} {
		session := &domain.Session{ID: 1, AvailabilityType: typ}
		for i := 0; i < 20; i++ {
			p := GenerateRandomParticipant(session, from)
			assert.NoError(t, ValidateParticipantAvailability(p, typ))

			_, err := tzconv.DefaultZones().Location(p.HomeTimezone)
			assert.NoError(t, err)
		}
	}
}
