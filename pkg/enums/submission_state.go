package enums

import "fmt"

// SubmissionState tracks where a checkout attempt sits in the submission pipeline.
type SubmissionState string

const (
	SubmissionStateIdle       SubmissionState = "idle"
	SubmissionStateValidating SubmissionState = "validating"
	SubmissionStateSubmitting SubmissionState = "submitting"
	SubmissionStateSuccess    SubmissionState = "success"
	SubmissionStateFailure    SubmissionState = "failure"
)

var validSubmissionStates = []SubmissionState{
	SubmissionStateIdle,
	SubmissionStateValidating,
	SubmissionStateSubmitting,
	SubmissionStateSuccess,
	SubmissionStateFailure,
}

// String implements fmt.Stringer.
func (s SubmissionState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SubmissionState.
func (s SubmissionState) IsValid() bool {
	for _, candidate := range validSubmissionStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further automatic retries follow this state.
func (s SubmissionState) IsTerminal() bool {
	return s == SubmissionStateSuccess || s == SubmissionStateFailure
}

// ParseSubmissionState converts raw input into a SubmissionState.
func ParseSubmissionState(value string) (SubmissionState, error) {
	for _, candidate := range validSubmissionStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid submission state %q", value)
}
