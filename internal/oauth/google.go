package oauth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	ggoogle "golang.org/x/oauth2/google"
)

// AdminScopes authorize Identity Toolkit admin calls.
var AdminScopes = []string{
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/cloud-platform",
}

// ServiceAccount is an authorized HTTP client plus the project the credentials belong to.
type ServiceAccount struct {
	Client    *http.Client
	ProjectID string
}

// NewServiceAccount builds a client from the credentials file at path, or from
// Application Default Credentials when path is empty.
func NewServiceAccount(ctx context.Context, path string, timeout time.Duration) (*ServiceAccount, error) {
	var (
		creds *ggoogle.Credentials
		err   error
	)
	if path == "" {
		creds, err = ggoogle.FindDefaultCredentials(ctx, AdminScopes...)
	} else {
		var b []byte
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
		creds, err = ggoogle.CredentialsFromJSON(ctx, b, AdminScopes...)
	}
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}

	c := oauth2.NewClient(ctx, creds.TokenSource)
	c.Timeout = timeout
	return &ServiceAccount{Client: c, ProjectID: creds.ProjectID}, nil
}
