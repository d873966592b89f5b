package core

import "fmt"

// Split separates successful values from faults, keeping completion order.
// Successful outcomes with a nil value count as successes but carry nothing
// to reduce.
func Split(outcomes []Outcome) (values []any, successes int, faults []*WorkerFault) {
	for _, o := range outcomes {
		if o.Failed() {
			faults = append(faults, o.Fault)
			continue
		}
		successes++
		if o.Value != nil {
			values = append(values, o.Value)
		}
	}
	return values, successes, faults
}

// Aggregate reduces the successful values and applies the success policy.
// A reducer error is returned whatever the policy.
func Aggregate(outcomes []Outcome, reducer Reducer, policy SuccessPolicy) (any, error) {
	values, successes, faults := Split(outcomes)

	var reduced any
	if reducer != nil {
		var err error
		reduced, err = reducer(values)
		if err != nil {
			return nil, fmt.Errorf("reduce: %w", err)
		}
	}

	if Accepts(policy, successes, len(faults)) {
		return reduced, nil
	}
	return nil, &AggregatedFailure{Faults: faults}
}

// Accepts reports whether policy tolerates the given mix of outcomes.
func Accepts(policy SuccessPolicy, successes, failures int) bool {
	switch policy {
	case SuperLax:
		return true
	case ExpectAny:
		return successes > 0 || failures == 0
	default:
		return failures == 0
	}
}
