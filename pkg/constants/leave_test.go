package constants

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExceptionalLeaveType_Days(t *testing.T) {
	cases := map[ExceptionalLeaveType]int{
		ExceptionalMaternity:     40,
		ExceptionalPaternity:     5,
		ExceptionalParentDeath:   3,
		ExceptionalMarriage:      3,
		ExceptionalBereavement:   3,
		ExceptionalChildBirth:    3,
		ExceptionalChildMarriage: 3,
		ExceptionalChildDeath:    3,
		ExceptionalNone:          0,
	}
	for subtype, days := range cases {
		assert.Equal(t, days, subtype.Days(), string(subtype))
		assert.True(t, subtype.IsValid())
	}
	assert.False(t, ExceptionalLeaveType("VACATION").IsValid())
}

func TestParseDecision(t *testing.T) {
	s, ok := ParseDecision("accepted")
	assert.True(t, ok)
	assert.Equal(t, StatusAccepted, s)

	s, ok = ParseDecision(" Rejected ")
	assert.True(t, ok)
	assert.Equal(t, StatusRejected, s)

	_, ok = ParseDecision("PENDING")
	assert.False(t, ok)
	_, ok = ParseDecision("maybe")
	assert.False(t, ok)
}

func TestLeaveDuration(t *testing.T) {
	assert.Equal(t, 30*time.Minute, LeaveDurationThirtyMinutes.Duration())
	assert.Equal(t, 60, LeaveDurationOneHour.Minutes())
	assert.Equal(t, 90, LeaveDurationNinetyMinutes.Minutes())
	assert.Equal(t, 2*time.Hour, LeaveDurationTwoHours.Duration())
	assert.False(t, LeaveDuration("FIVE_HOURS").IsValid())
}
