package entities

import (
	"time"

	"leave-system/pkg/constants"
)

// LeaveReportRow - строка отчёта по отпускам, собранная одним JOIN-запросом.
type LeaveReportRow struct {
	LeaveID              uint64
	UserEmail            string
	UserFullName         string
	TeamName             *string
	LeaveType            constants.LeaveType
	ExceptionalLeaveType constants.ExceptionalLeaveType
	TimeOfDay            constants.TimeOfDay
	StartDate            time.Time
	EndDate              time.Time
	Status               constants.Status
	Reason               *string
	CreatedAt            time.Time
}
