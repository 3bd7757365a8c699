package scripts

import "fmt"

// ScriptError reports a failed external command together with its output.
type ScriptError struct {
	Op      string
	Err     error
	Message string
	Output  string
}

func (e *ScriptError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	if e.Output != "" {
		msg += " - output: " + e.Output
	}
	return msg
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

func newScriptError(op string, err error, message string, output []byte) *ScriptError {
	return &ScriptError{
		Op:      op,
		Err:     err,
		Message: message,
		Output:  string(output),
	}
}
