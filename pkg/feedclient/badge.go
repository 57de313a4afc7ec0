package feedclient

import (
	"context"
	"log"
	"time"
)

// BadgePoller drives the "new notification" indicator. Each poll is a pure
// read: unlike fetching the feed, it never marks anything seen, so polling
// at any interval is idempotent.
type BadgePoller struct {
	client *Client

	// Available is the indicator state after the last successful poll
	Available bool
}

// NewBadgePoller creates a poller over the given client
func NewBadgePoller(client *Client) *BadgePoller {
	return &BadgePoller{client: client}
}

// Poll refreshes the indicator once. On error the previous value is kept.
func (p *BadgePoller) Poll(ctx context.Context) error {
	available, err := p.client.HasNewNotification(ctx)
	if err != nil {
		return err
	}
	p.Available = available
	return nil
}

// Run polls on a fixed interval until the context is cancelled, logging
// poll failures and keeping the last known state
func (p *BadgePoller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				log.Printf("Badge poll failed: %v", err)
			}
		}
	}
}
