// Package cli provides the command-line interface for the profiler application.
package cli

import (
	"context"

	"github.com/law-makers/profiler/internal/app"
	"github.com/spf13/cobra"
)

// ctxKey is used for storing the application in a command's context
type ctxKey string

const appKey ctxKey = "app"

// SetApp stores the Application in the command's context
func SetApp(cmd *cobra.Command, a *app.Application) {
	if cmd == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey, a))
}

// GetApp retrieves the Application stored by SetApp, or nil
func GetApp(cmd *cobra.Command) *app.Application {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(appKey).(*app.Application)
	return a
}

// mustApp returns the command's Application or an error for commands run without one
func mustApp(cmd *cobra.Command) (*app.Application, error) {
	a := GetApp(cmd)
	if a == nil {
		return nil, errNotInitialized
	}
	return a, nil
}
