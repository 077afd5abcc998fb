package models

import "time"

// Absence marks an employee absent on a date, optionally for a period window only.
type Absence struct {
	ID          string    `db:"id" json:"id"`
	EmployeeID  string    `db:"employee_id" json:"employee_id"`
	Date        time.Time `db:"absence_date" json:"date"`
	StartPeriod *int      `db:"start_period" json:"start_period,omitempty"`
	EndPeriod   *int      `db:"end_period" json:"end_period,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CoversPeriod reports whether the absence window contains the period.
func (a Absence) CoversPeriod(period int) bool {
	if a.StartPeriod != nil && period < *a.StartPeriod {
		return false
	}
	if a.EndPeriod != nil && period > *a.EndPeriod {
		return false
	}
	return true
}
