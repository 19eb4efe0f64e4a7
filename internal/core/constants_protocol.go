package core

// Inference request parameters. FunctionToApplyNone asks the endpoint for raw
// logits instead of sigmoid/softmax scores.
const (
	FunctionToApplyNone = "none"
)

// Hub error field names in JSON error bodies.
const (
	HubErrorField         = "error"
	HubEstimatedTimeField = "estimated_time"
)
