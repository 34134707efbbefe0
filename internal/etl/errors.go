package etl

// ConfigurationError reports a required input that was missing when a stage
// started: no resolvable source location, no accumulated tracks, an empty
// point table or a missing destination table name. It always aborts the run.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// ValidationError reports a caller-supplied table override of the wrong
// shape. The pipeline state is left untouched when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}
