package service

import "context"

// Sender delivers a rendered payload to an opaque per-user address. The
// physical transport (Telegram, web push, APNs) lives outside the engine.
type Sender interface {
	Send(ctx context.Context, token, payload string) error
}
