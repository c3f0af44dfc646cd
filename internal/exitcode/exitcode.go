// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task reference).
	UserError = 1

	// AuthError indicates an auth or configuration error.
	AuthError = 2

	// BackendError indicates a backend, API or network error.
	BackendError = 3
)

// String returns a short name for code, for logs.
func String(code int) string {
	switch code {
	case Success:
		return "success"
	case UserError:
		return "user error"
	case AuthError:
		return "auth error"
	case BackendError:
		return "backend error"
	default:
		return "unknown"
	}
}
