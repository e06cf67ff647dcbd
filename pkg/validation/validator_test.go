package validation

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
)

type leaveForm struct {
	UserEmail string      `validate:"required,custom_email"`
	LeaveType string      `validate:"required,leave_type"`
	Subtype   string      `validate:"omitempty,exceptional_leave_type"`
	TimeOfDay string      `validate:"omitempty,time_of_day"`
	Reason    null.String `validate:"omitempty,max=10"`
}

type decisionForm struct {
	Status   string `validate:"required,leave_status"`
	Duration string `validate:"omitempty,leave_duration"`
	Role     string `validate:"omitempty,role"`
}

func TestValidator_LeaveRules(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&leaveForm{UserEmail: "a@b.io", LeaveType: "HALF_DAY", Subtype: "NONE", TimeOfDay: "MORNING"}))
	assert.Error(t, v.Validate(&leaveForm{UserEmail: "a@b.io", LeaveType: "VACATION"}))
	assert.Error(t, v.Validate(&leaveForm{UserEmail: "not-an-email", LeaveType: "SICK_LEAVE"}))
	assert.Error(t, v.Validate(&leaveForm{UserEmail: "a@b.io", LeaveType: "SICK_LEAVE", Subtype: "HOLIDAY"}))
}

func TestValidator_NullStringOnlyValidatedWhenSet(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&leaveForm{UserEmail: "a@b.io", LeaveType: "SICK_LEAVE"}))
	assert.Error(t, v.Validate(&leaveForm{UserEmail: "a@b.io", LeaveType: "SICK_LEAVE", Reason: null.StringFrom("слишком длинная причина")}))
}

func TestValidator_DecisionRules(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&decisionForm{Status: "accepted", Duration: "ONE_HOUR", Role: "MANAGER"}))
	assert.Error(t, v.Validate(&decisionForm{Status: "PENDING"}))
	assert.Error(t, v.Validate(&decisionForm{Status: "ACCEPTED", Duration: "FIVE_MINUTES"}))
	assert.Error(t, v.Validate(&decisionForm{Status: "ACCEPTED", Role: "ROOT"}))
}
