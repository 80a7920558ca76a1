package services

import "festivalscheduling/internal/domain"

// Booking outcomes reported to the Recorder.
const (
	BookingCreated          = "created"
	BookingCapacityExceeded = "capacity_exceeded"
	BookingRejected         = "rejected"
	BookingCancelled        = "cancelled"
)

// Recorder receives operational counters. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveImport(mode string, report *domain.ImportReport, err error)
	ObserveBooking(outcome string)
	ObserveNormalize(changed int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveImport(string, *domain.ImportReport, error) {}
func (noopRecorder) ObserveBooking(string)                     {}
func (noopRecorder) ObserveNormalize(int)                      {}

func recorderOrNoop(r Recorder) Recorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}
