// Package notify delivers best-effort notifications about assignment
// activity to Slack and Discord. Delivery failures are logged, never
// returned: notifications must not fail the operation they describe.
package notify

import (
	"fmt"
	"log"

	"github.com/zulandar/roundhouse/internal/config"
)

// Notifier posts a single message to one destination.
type Notifier interface {
	Post(text string) error
	Name() string
}

// Hub fans a message out to every configured notifier.
type Hub struct {
	notifiers []Notifier
}

// NewHub builds a Hub from configuration. Destinations with missing
// settings are skipped; a hub with no notifiers is valid and silent.
func NewHub(cfg config.NotifyConfig) *Hub {
	h := &Hub{}
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		h.notifiers = append(h.notifiers, NewSlack(cfg.SlackToken, cfg.SlackChannel))
	}
	if cfg.DiscordToken != "" && cfg.DiscordChannel != "" {
		h.notifiers = append(h.notifiers, NewDiscord(cfg.DiscordToken, cfg.DiscordChannel))
	}
	return h
}

// Add registers an extra notifier, used by tests.
func (h *Hub) Add(n Notifier) { h.notifiers = append(h.notifiers, n) }

// Post sends the message to every destination, logging failures.
func (h *Hub) Post(text string) {
	for _, n := range h.notifiers {
		if err := n.Post(text); err != nil {
			log.Printf("notify: %s: %v", n.Name(), err)
		}
	}
}

// CommitSummary announces a committed batch.
func (h *Hub) CommitSummary(created, rejected, conflicts int) {
	h.Post(fmt.Sprintf("Roundhouse: committed %d assignments (%d rejected, %d conflicts)", created, rejected, conflicts))
}

// ResetSummary announces a full reset.
func (h *Hub) ResetSummary(count int, reason string) {
	h.Post(fmt.Sprintf("Roundhouse: reset %d active assignments (%s)", count, reason))
}
