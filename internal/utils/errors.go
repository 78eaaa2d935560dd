package utils

// AppError carries the failing operation and a caller-facing message
// alongside the underlying cause. Use it at package boundaries; inside a
// package, plain fmt.Errorf wrapping is enough.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	switch {
	case e.Err == nil:
		return e.Op + ": " + e.Msg
	case e.Msg == "":
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op + ": " + e.Msg + ": " + e.Err.Error()
	}
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with the operation name and message.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
