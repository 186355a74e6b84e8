package scheduler

import "errors"

// ErrInvalidRange is returned when a run's end date falls before its start date
var ErrInvalidRange = errors.New("end date is before start date")
