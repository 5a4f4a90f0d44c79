package errors

import "errors"

// ErrorInfo is what the CLI shows for a known error.
type ErrorInfo struct {
	Message string
	// Action is the suggested next step, empty when there is none.
	Action string
}

type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries are matched in order with errors.Is, so a wrapped
// sentinel is found as well as a bare one.
//
//nolint:gochecknoglobals // lookup table
var errorInfoEntries = []errorEntry{
	// ===================
	// Start parameters
	// ===================
	{
		err: ErrMissingParameter,
		info: ErrorInfo{
			Message: "A required start parameter is missing.",
			Action:  "Pass both the input and output archive, e.g. 'zipsign sign in.zip out.zip'.",
		},
	},
	{
		err: ErrOutputExists,
		info: ErrorInfo{
			Message: "The output file already exists.",
			Action:  "Choose another output path or pass --force to overwrite.",
		},
	},

	// ===================
	// Archives & signatures
	// ===================
	{
		err: ErrInvalidArchive,
		info: ErrorInfo{
			Message: "The input is not a valid zip archive.",
			Action:  "Check that the file is a complete zip, jar or apk.",
		},
	},
	{
		err: ErrSignatureMissing,
		info: ErrorInfo{
			Message: "The archive has no zipsign signature.",
			Action:  "Sign it first with 'zipsign sign'.",
		},
	},
	{
		err: ErrSignatureInvalid,
		info: ErrorInfo{
			Message: "The archive signature does not verify.",
			Action:  "The archive was modified after signing or signed with an unknown key.",
		},
	},

	// ===================
	// Keys
	// ===================
	{
		err: ErrKeyNotFound,
		info: ErrorInfo{
			Message: "The requested signing key does not exist.",
			Action:  "Run 'zipsign keys list' or create it with 'zipsign keys generate <name>'.",
		},
	},
	{
		err: ErrKeyExists,
		info: ErrorInfo{
			Message: "A key with this name already exists.",
			Action:  "Use a different name; existing keys are never overwritten.",
		},
	},
	{
		err: ErrInvalidKeyName,
		info: ErrorInfo{
			Message: "Key names may only contain lowercase letters, digits, '-' and '_'.",
			Action:  "Pick a name such as 'release' or 'media'.",
		},
	},
	{
		err: ErrKeyUnresolved,
		info: ErrorInfo{
			Message: "Could not determine which key signed the input.",
			Action:  "Use --key-mode auto-testkey, auto-none or name the key explicitly.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Could not acquire lock. Another process may be generating keys.",
			Action:  "Retry once the other zipsign run has finished.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigNil,
		info: ErrorInfo{
			Message: "No configuration was passed in.",
			Action:  "Ensure config.yaml exists and is valid YAML.",
		},
	},
	{
		err: ErrConfigInvalidSigning,
		info: ErrorInfo{
			Message: "Invalid signing configuration.",
			Action:  "Check the 'signing' section in config.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidProgress,
		info: ErrorInfo{
			Message: "Invalid progress configuration.",
			Action:  "Check the 'progress' section in config.yaml for invalid values.",
		},
	},
	{
		err: ErrConfigInvalidUI,
		info: ErrorInfo{
			Message: "Invalid UI configuration.",
			Action:  "Set ui.mode to auto, tui or plain.",
		},
	},

	// ===================
	// User Interaction
	// ===================
	{
		err: ErrSigningCanceled,
		info: ErrorInfo{
			Message: "Signing was canceled. No output was written.",
			Action:  "",
		},
	},
	{
		err: ErrMenuCanceled,
		info: ErrorInfo{
			Message: "Prompt was canceled.",
			Action:  "",
		},
	},
	{
		err: ErrNonInteractiveMode,
		info: ErrorInfo{
			Message: "Confirmation is needed but no terminal is attached.",
			Action:  "Pass --force to overwrite without asking.",
		},
	},
}

func lookup(err error) ErrorInfo {
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return ErrorInfo{Message: err.Error()}
}

// Actionable returns the friendly message for err and what the user can do
// about it. action is empty when there is nothing to suggest.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := lookup(err)
	return info.Message, info.Action
}
