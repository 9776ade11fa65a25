package main

import (
	"os"

	"github.com/loykin/sqlpatch/internal/common"
)

// ExitHandler provides a testable way to handle program termination
type ExitHandler interface {
	Exit(code int)
	LogFatalError(err error, msg string, keyvals ...any)
}

type DefaultExitHandler struct {
	logger *common.Logger
}

func NewDefaultExitHandler() *DefaultExitHandler {
	return &DefaultExitHandler{}
}

func (h *DefaultExitHandler) Exit(code int) {
	os.Exit(code)
}

// LogFatalError logs err and exits with status 1. The logger is resolved at
// call time so the level configured from the config file applies.
func (h *DefaultExitHandler) LogFatalError(err error, msg string, keyvals ...any) {
	logger := h.logger
	if logger == nil {
		logger = common.GetLogger().WithComponent("main")
	}
	allKeyvals := append([]any{"error", err}, keyvals...)
	logger.Error(msg, allKeyvals...)
	h.Exit(1)
}

// Global exit handler (can be replaced for testing)
var exitHandler ExitHandler = NewDefaultExitHandler()
