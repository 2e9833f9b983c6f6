package services

// Recorder receives business counters. *metrics.Metrics satisfies it.
type Recorder interface {
	CheckoutOutcome(outcome string)
	OrderTransition(from, to string)
}

type nopRecorder struct{}

func (nopRecorder) CheckoutOutcome(string)         {}
func (nopRecorder) OrderTransition(string, string) {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
