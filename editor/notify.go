package editor

import "go.uber.org/zap"

// Notifier surfaces the outcome of boundary operations to the user.
type Notifier interface {
	Success(msg string)
	// Error reports a failure; retryable marks failures the user can simply try again.
	Error(msg string, retryable bool)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Success(msg string) {
	n.logger().Info(msg)
}

func (n LogNotifier) Error(msg string, retryable bool) {
	n.logger().Error(msg, zap.Bool("retryable", retryable))
}

func (n LogNotifier) logger() *zap.Logger {
	if n.Log == nil {
		return zap.NewNop()
	}
	return n.Log
}

// Messages shown for boundary operations.
const (
	MsgSaved         = "Workflow saved successfully!"
	MsgSaveFailed    = "Failed to save workflow. Please try again."
	MsgNoSelection   = "No workflow selected."
	MsgLoadFailed    = "Failed to load workflow"
	MsgExecuted      = "Workflow executed successfully"
	MsgRunFailed     = "Error running workflow"
	MsgCreated       = "Workflow created successfully!"
	MsgCreateFailed  = "Failed to create workflow. Please try again."
	MsgListFailed    = "Failed to load workflows. Please try again."
	NoResponseAnswer = "No response."
)
