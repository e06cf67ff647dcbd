package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"leave-system/pkg/constants"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"custom_email":           isGoodEmailFormat,
		"leave_type":             isLeaveType,
		"exceptional_leave_type": isExceptionalLeaveType,
		"time_of_day":            isTimeOfDay,
		"leave_duration":         isLeaveDuration,
		"leave_status":           isLeaveStatus,
		"role":                   isRole,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isGoodEmailFormat(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

func isLeaveType(fl validator.FieldLevel) bool {
	return constants.LeaveType(fl.Field().String()).IsValid()
}

func isExceptionalLeaveType(fl validator.FieldLevel) bool {
	return constants.ExceptionalLeaveType(fl.Field().String()).IsValid()
}

func isTimeOfDay(fl validator.FieldLevel) bool {
	return constants.TimeOfDay(fl.Field().String()).IsValid()
}

func isLeaveDuration(fl validator.FieldLevel) bool {
	return constants.LeaveDuration(fl.Field().String()).IsValid()
}

// isLeaveStatus принимает только решения по заявке, регистр не важен.
func isLeaveStatus(fl validator.FieldLevel) bool {
	_, ok := constants.ParseDecision(fl.Field().String())
	return ok
}

func isRole(fl validator.FieldLevel) bool {
	return constants.Role(fl.Field().String()).IsValid()
}
