// Package results defines the generic success/failure envelope returned by
// service operations. Domain failures travel in the envelope; the error return
// of an operation is reserved for infrastructure faults.
package results

// OperationResult carries either a success or a failure payload.
// At most one side is populated; both nil means "no result".
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a success payload.
func SuccessResult[S any, F any](success S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &success}
}

// FailureResult wraps a failure payload.
func FailureResult[S any, F any](failure F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &failure}
}

// IsSuccess reports whether the success side is populated.
func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

// IsFailure reports whether the failure side is populated.
func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}

// HandlerResult pairs an outgoing payload with its destination topic.
type HandlerResult struct {
	Topic   string
	Payload any
}

// MapToHandlerResults routes the envelope to the matching topic. An empty
// envelope maps to no messages.
func (r OperationResult[S, F]) MapToHandlerResults(successTopic, failureTopic string) []HandlerResult {
	switch {
	case r.Success != nil:
		return []HandlerResult{{Topic: successTopic, Payload: r.Success}}
	case r.Failure != nil:
		return []HandlerResult{{Topic: failureTopic, Payload: r.Failure}}
	}
	return nil
}
