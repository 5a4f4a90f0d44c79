package controller

// ResultCode is the outbound outcome reported to the launching caller.
type ResultCode int

// Result codes.
const (
	// ResultOK means the archive was signed.
	ResultOK ResultCode = iota
	// ResultCanceled means the user canceled and the operation honored it.
	ResultCanceled
	// ResultFailed means the interaction failed; ErrorMessage says why.
	ResultFailed
)

// String returns the lowercase code name used in JSON output.
func (c ResultCode) String() string {
	switch c {
	case ResultOK:
		return "ok"
	case ResultCanceled:
		return "canceled"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the single outcome of an interaction.
type Result struct {
	Code ResultCode `json:"-"`
	// ErrorMessage is "<ErrorKind>: <detail>" for failures, empty otherwise.
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// OK reports whether the interaction succeeded.
func (r Result) OK() bool { return r.Code == ResultOK }
