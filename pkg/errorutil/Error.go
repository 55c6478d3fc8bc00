package errorutil

// Error is a string error type, so sentinel errors can be declared as constants:
//
//	const ErrNotFound errorutil.Error = "ErrNotFound"
type Error string

func (err Error) Error() string { return string(err) }
