package response

import "github.com/tazhibayda/profile-service/internal/apperr"

// Envelope is the body of every API response.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Status  int      `json:"status,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Data    any      `json:"data,omitempty"`
}

func Success(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Error always carries errors as a list, even for a single message.
func Error(status int, errs ...string) Envelope {
	if errs == nil {
		errs = []string{}
	}
	return Envelope{Success: false, Status: status, Errors: errs}
}

// FromError maps err onto a status and envelope. Internal causes never reach the client.
func FromError(err error) (int, Envelope) {
	status := apperr.Status(err)
	return status, Error(status, apperr.Public(err)...)
}

// ProfileData wraps a profile the way section and read endpoints return it.
func ProfileData(p Profile) map[string]any {
	return map[string]any{"profile": p}
}
