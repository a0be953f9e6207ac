package analysis

// GenerationError reports that the completion call failed or its output could
// not be turned into the required JSON shape.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return "analysis: " + e.Op + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func generationError(op string, err error) *GenerationError {
	return &GenerationError{Op: op, Err: err}
}
