package rules

func NewResult(ruleID string, status Status, details string) Result {
	return Result{
		RuleID:  ruleID,
		Check:   status == StatusPass,
		Status:  status,
		Details: details,
	}
}

func PassResult(ruleID string) Result {
	return NewResult(ruleID, StatusPass, "")
}

func PassResultWithDetails(ruleID string, details string) Result {
	return NewResult(ruleID, StatusPass, details)
}

func FailResult(ruleID string, details string) Result {
	return NewResult(ruleID, StatusFail, details)
}

func ErrorResult(ruleID string, details string) Result {
	return NewResult(ruleID, StatusError, details)
}

func PassResultWithDebug(ruleID string, details string, debug any) Result {
	res := NewResult(ruleID, StatusPass, details)
	res.Debug = debug
	return res
}

func FailResultWithDebug(ruleID string, details string, debug any) Result {
	res := NewResult(ruleID, StatusFail, details)
	res.Debug = debug
	return res
}
