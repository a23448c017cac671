// Package gcloud builds Google API client options from service account
// settings shared by the Firestore backend and the Sheets mirror.
package gcloud

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/api/option"
)

// Credentials points at a service account key. JSON wins over File; when both
// are empty Application Default Credentials are used.
type Credentials struct {
	JSON string
	File string
}

// CredentialsFromEnv reads GOOGLE_SERVICE_ACCOUNT_JSON, then
// GOOGLE_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS.
func CredentialsFromEnv() Credentials {
	c := Credentials{
		JSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		File: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
	}
	if c.JSON == "" && c.File == "" {
		c.File = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return c
}

// ClientOptions returns the options to authenticate with the given scopes.
func (c Credentials) ClientOptions(ctx context.Context, scopes ...string) ([]option.ClientOption, error) {
	opts := []option.ClientOption{option.WithScopes(scopes...)}

	switch {
	case c.JSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials", "json_length", len(c.JSON))
		return append(opts, option.WithCredentialsJSON([]byte(c.JSON))), nil
	case c.File != "":
		data, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials file", "path", c.File, "size", len(data))
		return append(opts, option.WithCredentialsJSON(data)), nil
	default:
		slog.InfoContext(ctx, "No service account configured, using application default credentials")
		return opts, nil
	}
}
