package events

import "time"

// Event type codes emitted by the pricing engine.
const (
	TypeQueryCompleted  = "RAG_QUERY_COMPLETED"
	TypeBudgetGenerated = "BUDGET_GENERATED"
)

// NewQueryCompleted reports one answered query, including which mode
// produced the answer.
func NewQueryCompleted(sessionID, mode string, sources int) BaseEvent {
	return BaseEvent{
		Type: TypeQueryCompleted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"mode":       mode,
			"sources":    sources,
		},
		OccurredAt: time.Now(),
	}
}

// NewBudgetGenerated reports one finished budget export.
func NewBudgetGenerated(projectName, format string, lines, estimated int) BaseEvent {
	return BaseEvent{
		Type: TypeBudgetGenerated,
		Data: map[string]interface{}{
			"project_name": projectName,
			"format":       format,
			"lines":        lines,
			"estimated":    estimated,
		},
		OccurredAt: time.Now(),
	}
}
