package ai

import "context"

// Client is the chat-completion backend port.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
