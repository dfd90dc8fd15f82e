// Package alerts derives the notification feed from client and message
// state. Nothing in this package is persisted: every feed is a fresh
// projection of the current clients, messages and wall-clock time.
package alerts

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a feed entry.
type Kind string

const (
	KindWarning Kind = "warning" // billing and trial alerts
	KindGeneral Kind = "general" // broadcast messages
	KindPrivate Kind = "private" // messages targeted at one seller
)

// Notification is a transient feed entry. IDs are synthetic and
// namespaced by source: client-<id>, trial-<id>, msg-<id>.
//
// Billing and trial alerts carry the time of derivation as their
// timestamp since they are recomputed on every pass; message entries
// carry the message's real creation time.
type Notification struct {
	ID              string     `json:"id"`
	Kind            Kind       `json:"kind"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	Timestamp       time.Time  `json:"timestamp"`
	Deletable       bool       `json:"deletable"`
	SourceMessageID *uuid.UUID `json:"source_message_id,omitempty"`
	SenderName      string     `json:"sender_name,omitempty"`
}
