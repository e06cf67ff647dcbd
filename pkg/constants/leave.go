package constants

import (
	"strings"
	"time"
)

//============== LEAVE TYPES ==============

type LeaveType string

const (
	LeaveTypePersonal    LeaveType = "PERSONAL_LEAVE"
	LeaveTypeExceptional LeaveType = "EXCEPTIONAL_LEAVE"
	LeaveTypeSick        LeaveType = "SICK_LEAVE"
	LeaveTypeHalfDay     LeaveType = "HALF_DAY"
)

func (t LeaveType) IsValid() bool {
	switch t {
	case LeaveTypePersonal, LeaveTypeExceptional, LeaveTypeSick, LeaveTypeHalfDay:
		return true
	}
	return false
}

//============== EXCEPTIONAL LEAVE ==============

type ExceptionalLeaveType string

const (
	ExceptionalMaternity     ExceptionalLeaveType = "MATERNITY_LEAVE"
	ExceptionalPaternity     ExceptionalLeaveType = "PATERNITY_LEAVE"
	ExceptionalParentDeath   ExceptionalLeaveType = "PARENT_DEATH_LEAVE"
	ExceptionalMarriage      ExceptionalLeaveType = "MARRIAGE_LEAVE"
	ExceptionalBereavement   ExceptionalLeaveType = "BEREAVEMENT_LEAVE"
	ExceptionalChildBirth    ExceptionalLeaveType = "CHILD_BIRTH_LEAVE"
	ExceptionalChildMarriage ExceptionalLeaveType = "CHILD_MARRIAGE_LEAVE"
	ExceptionalChildDeath    ExceptionalLeaveType = "CHILD_DEATH_LEAVE"
	ExceptionalNone          ExceptionalLeaveType = "NONE"
)

// Продолжительность исключительных отпусков в днях.
var exceptionalLeaveDays = map[ExceptionalLeaveType]int{
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

func (t ExceptionalLeaveType) IsValid() bool {
	_, ok := exceptionalLeaveDays[t]
	return ok
}

// Days возвращает фиксированную длительность подтипа. Неизвестный подтип даёт 0.
func (t ExceptionalLeaveType) Days() int {
	return exceptionalLeaveDays[t]
}

//============== TIME OF DAY ==============

type TimeOfDay string

const (
	TimeOfDayMorning      TimeOfDay = "MORNING"
	TimeOfDayAfternoon    TimeOfDay = "AFTERNOON"
	TimeOfDayInapplicable TimeOfDay = "INAPPLICABLE"
)

func (t TimeOfDay) IsValid() bool {
	switch t {
	case TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayInapplicable:
		return true
	}
	return false
}

//============== STATUS ==============

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// ParseDecision разбирает решение по заявке без учёта регистра. Допустимы только ACCEPTED и REJECTED.
func ParseDecision(raw string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusAccepted:
		return StatusAccepted, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

//============== LEAVE DURATION ==============

type LeaveDuration string

const (
	LeaveDurationThirtyMinutes LeaveDuration = "THIRTY_MINUTES"
	LeaveDurationOneHour       LeaveDuration = "ONE_HOUR"
	LeaveDurationNinetyMinutes LeaveDuration = "NINETY_MINUTES"
	LeaveDurationTwoHours      LeaveDuration = "TWO_HOURS"
)

var leaveDurationMinutes = map[LeaveDuration]int{
	LeaveDurationThirtyMinutes: 30,
	LeaveDurationOneHour:       60,
	LeaveDurationNinetyMinutes: 90,
	LeaveDurationTwoHours:      120,
}

func (d LeaveDuration) IsValid() bool {
	_, ok := leaveDurationMinutes[d]
	return ok
}

func (d LeaveDuration) Minutes() int {
	return leaveDurationMinutes[d]
}

func (d LeaveDuration) Duration() time.Duration {
	return time.Duration(d.Minutes()) * time.Minute
}
