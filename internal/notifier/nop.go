package notifier

import "context"

// NopSender drops every payload. Used when no delivery transport is
// configured so the reminder pipeline still runs end to end.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, token, payload string) error {
	return nil
}
