// Package insert dispatches finished transcripts into the focused application.
package insert

import "context"

// Inserter places text into whatever application currently has focus.
type Inserter interface {
	Insert(ctx context.Context, text string) error
}

// Func adapts a function to the Inserter interface.
type Func func(context.Context, string) error

func (f Func) Insert(ctx context.Context, text string) error {
	return f(ctx, text)
}
