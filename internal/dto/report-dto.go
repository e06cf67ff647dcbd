package dto

type LeaveReportFilterDTO struct {
	From      string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Status    string `query:"status" validate:"omitempty,oneof=PENDING ACCEPTED REJECTED"`
	LeaveType string `query:"leave_type" validate:"omitempty,leave_type"`
	Format    string `query:"format" validate:"omitempty,oneof=json xlsx"`
}

type LeaveReportItemDTO struct {
	LeaveID              uint64 `json:"leave_id"`
	UserEmail            string `json:"user_email"`
	UserFullName         string `json:"user_full_name"`
	TeamName             string `json:"team_name"`
	LeaveType            string `json:"leave_type"`
	ExceptionalLeaveType string `json:"exceptional_leave_type"`
	TimeOfDay            string `json:"time_of_day"`
	StartDate            string `json:"start_date"`
	EndDate              string `json:"end_date"`
	Status               string `json:"status"`
	Reason               string `json:"reason"`
	CreatedAt            string `json:"created_at"`
}
