package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// A slice, not a map, because wrapped errors are matched with errors.Is().
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Execution
	// ===================
	{
		err: ErrNoteRequired,
		info: ErrorInfo{
			Message: "Failed and blocked steps need a note describing what happened.",
			Action:  "Retry with --note \"what went wrong\" (evidence is optional).",
		},
	},
	{
		err: ErrCaseIsDraft,
		info: ErrorInfo{
			Message: "Draft cases cannot be executed.",
			Action:  "Run 'testmo case activate <id>' first.",
		},
	},
	{
		err: ErrNoSteps,
		info: ErrorInfo{
			Message: "This case has no steps to execute.",
			Action:  "Add steps with 'testmo case edit' or refine it with 'testmo refine'.",
		},
	},
	{
		err: ErrSessionFinished,
		info: ErrorInfo{
			Message: "The run already reached the last step.",
		},
	},

	// ===================
	// Collection
	// ===================
	{
		err: ErrCaseNotFound,
		info: ErrorInfo{
			Message: "No test case with that id exists.",
			Action:  "Run 'testmo case list' to see available ids.",
		},
	},
	{
		err: ErrStepNotFound,
		info: ErrorInfo{
			Message: "No step with that number exists in the case.",
			Action:  "Run 'testmo case show <id>' to see the steps.",
		},
	},
	{
		err: ErrFlowNotFound,
		info: ErrorInfo{
			Message: "No negative flow with that id exists in the case.",
		},
	},

	// ===================
	// Users
	// ===================
	{
		err: ErrInvalidCredentials,
		info: ErrorInfo{
			Message: "Username or password is incorrect.",
		},
	},
	{
		err: ErrNotLoggedIn,
		info: ErrorInfo{
			Message: "You are not logged in.",
			Action:  "Run 'testmo login' first.",
		},
	},
	{
		err: ErrPermissionDenied,
		info: ErrorInfo{
			Message: "Only administrators can do that.",
			Action:  "Log in as an administrator with 'testmo login'.",
		},
	},
	{
		err: ErrProtectedUser,
		info: ErrorInfo{
			Message: "The admin account cannot be deleted.",
		},
	},

	// ===================
	// Storage
	// ===================
	{
		err: ErrQuotaExceeded,
		info: ErrorInfo{
			Message: "The storage quota is exhausted; the last change was kept in memory only.",
			Action:  "Delete old cases or evidence, or raise storage.max_value_bytes.",
		},
	},
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Another testmo process is writing to the store.",
			Action:  "Wait for it to finish and retry.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigInvalidStorage,
		info: ErrorInfo{
			Message: "The storage configuration is invalid.",
			Action:  "Check the storage section with 'testmo config show'.",
		},
	},
	{
		err: ErrConfigInvalidAI,
		info: ErrorInfo{
			Message: "The AI configuration is invalid.",
			Action:  "Check the ai section with 'testmo config show'.",
		},
	},

	// ===================
	// AI
	// ===================
	{
		err: ErrAIMalformedResponse,
		info: ErrorInfo{
			Message: "The AI response was incomplete or not valid JSON.",
			Action:  "Retry with a shorter input; retrying automatically would not help.",
		},
	},
	{
		err: ErrMaxRetriesExceeded,
		info: ErrorInfo{
			Message: "The AI service stayed rate limited through every retry.",
			Action:  "Wait a minute and run the command again.",
		},
	},
	{
		err: ErrAITransient,
		info: ErrorInfo{
			Message: "The AI service is busy or rate limited.",
			Action:  "Wait a minute and run the command again.",
		},
	},
	{
		err: ErrAIAuth,
		info: ErrorInfo{
			Message: "The AI service rejected the API key.",
			Action:  "Verify GEMINI_API_KEY (or ai.api_key_env_var) is set correctly.",
		},
	},

	// ===================
	// Input
	// ===================
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format specified.",
			Action:  "Use --output text or --output json.",
		},
	},
	{
		err: ErrEvidenceTooLarge,
		info: ErrorInfo{
			Message: "The evidence image is too large.",
			Action:  "Use a smaller screenshot or raise evidence.max_bytes.",
		},
	},
	{
		err: ErrInvalidArgument,
		info: ErrorInfo{
			Message: "An invalid argument was provided.",
			Action:  "Check the command help for valid arguments.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error, falling back to
// errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action. The action is empty when there is nothing obvious to do.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
