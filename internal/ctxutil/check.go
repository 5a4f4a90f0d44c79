// Package ctxutil holds small context helpers.
package ctxutil

import "context"

// Canceled returns the context error once ctx is done, nil otherwise.
// Blocking entry points call it before touching the filesystem.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}
