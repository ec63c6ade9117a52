package domain

import (
	"fmt"
	"strings"
	"time"
)

// InvalidParameterError reports a parameter outside its valid range.
// Fatal: the caller gets no partial results.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// EmptyInputError reports a required input collection with no usable rows.
type EmptyInputError struct {
	What string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("no %s provided", e.What)
}

// DataFormatError reports required columns that could not be mapped
// onto the canonical trade fields.
type DataFormatError struct {
	Missing []string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// NoOverlapError reports that two date ranges share no calendar days,
// so no comparison is possible.
type NoOverlapError struct {
	Start time.Time
	End   time.Time
}

func (e *NoOverlapError) Error() string {
	return fmt.Sprintf("no overlapping dates in range %s to %s",
		e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

// MissingDailyRecordError reports a trade whose entry date has no daily
// record. Non-fatal: the recalculator skips the trade and continues.
type MissingDailyRecordError struct {
	EntryDate time.Time
}

func (e *MissingDailyRecordError) Error() string {
	return fmt.Sprintf("no daily record for entry date %s", e.EntryDate.Format("2006-01-02"))
}
