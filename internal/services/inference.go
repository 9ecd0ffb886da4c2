package services

import "context"

// InferredStep is the structured reading of one automation code line.
type InferredStep struct {
	ActionDescription string
	InputData         *string
	ExpectedResult    *string
}

// StepInferencer derives human-readable step fields from raw code lines.
// Implementations must return one InferredStep per input line, in order.
type StepInferencer interface {
	InferSteps(ctx context.Context, codeLines []string) ([]InferredStep, error)
}
