package downstream

import "net/http"

// Outcome is the classification of one downstream reply.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeUnavailable: non-2xx status. Call returns a nil result and no error.
	OutcomeUnavailable
	OutcomeRemoteErrors
	OutcomeEmptyResult
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeRemoteErrors:
		return "remote_errors"
	case OutcomeEmptyResult:
		return "empty_result"
	}
	return "unknown"
}

// Classify maps (status, number of errors, data present) to exactly one
// Outcome. The status is checked first, then errors, then data.
func Classify(status, errorCount int, dataPresent bool) Outcome {
	switch {
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		return OutcomeUnavailable
	case errorCount > 0:
		return OutcomeRemoteErrors
	case !dataPresent:
		return OutcomeEmptyResult
	default:
		return OutcomeSuccess
	}
}
