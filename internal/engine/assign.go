package engine

import (
	"strings"

	"kalkon/internal/logging"
)

// LooksLikeAssignment reports whether expr is an assignment statement.
// Input with "==" or without "=" never is. Anything else is executed in a
// throwaway interpreter seeded with copies of the live bindings, and
// counts as an assignment when that run reports no errors. The live
// interpreter is never touched.
func (e *Engine) LooksLikeAssignment(expr string) bool {
	if strings.Contains(expr, "==") {
		return false
	}
	if !strings.Contains(expr, "=") {
		return false
	}

	validator, err := e.factory()
	if err != nil {
		logging.EngineWarn("assignment validator unavailable: %v", err)
		return false
	}
	defer validator.Close()

	for name, v := range e.live.Bindings() {
		if err := validator.Bind(name, v); err != nil {
			logging.EngineDebug("seeding validator: %v", err)
		}
	}
	return len(validator.Exec(expr)) == 0
}
