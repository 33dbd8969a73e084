package rules

type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusFixable Status = "FIXABLE"
	StatusFixed   Status = "FIXED"
	StatusError   Status = "ERROR"
)

// Result is the outcome of one rule over the whole project.
type Result struct {
	RuleID  string `json:"rule_id"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	// Effects are the staged effects attributed to this rule, in emission order.
	Effects []Effect `json:"effects,omitempty"`
}

// Summarize derives the rule status from its effects:
// ERROR > FAIL > FIXABLE > FIXED > PASS.
func Summarize(effects []Effect) Status {
	status := StatusPass
	rank := map[Status]int{StatusPass: 0, StatusFixed: 1, StatusFixable: 2, StatusFail: 3, StatusError: 4}
	for _, e := range effects {
		if rank[e.Status] > rank[status] {
			status = e.Status
		}
	}
	return status
}
