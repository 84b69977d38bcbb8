package txsubmit

// Classify reports the first chain error among the outcome's event slots,
// in message order. Slots that were never filled count as success.
func Classify(outcome *SubmissionOutcome) error {
	if outcome == nil {
		return nil
	}

	for i, event := range outcome.Events {
		if event.IsChainError() {
			return &ChainError{Index: i, Cause: event.Cause}
		}
	}

	return nil
}
