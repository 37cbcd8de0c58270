package audio

// StreamAcquisitionError is returned by Controller.Start when no output
// device is available or the device could not be opened.
type StreamAcquisitionError struct {
	Err error
}

func (e *StreamAcquisitionError) Error() string {
	return "failed to acquire audio output stream: " + e.Err.Error()
}

func (e *StreamAcquisitionError) Unwrap() error {
	return e.Err
}
