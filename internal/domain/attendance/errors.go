package attendance

import "errors"

// Attendance domain errors
var (
	ErrInvalidAction      = errors.New("invalid clock action")
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrInvalidPeriod      = errors.New("invalid attendance period")
)
