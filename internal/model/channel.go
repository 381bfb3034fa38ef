package model

import "time"

// Category groups related Channels for admin listing purposes (supplemented
// from original_source/recorder/management/commands/channel.py's "-add
// category" path; see SPEC_FULL.md §11).
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Channel is a registered IPTV stream endpoint. Treated as config: created
// once, rarely mutated, referenced by Schedule.
type Channel struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	CategoryID string    `json:"category_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewChannel constructs a Channel with fresh timestamps. It performs no
// validation; the CLI's `channel add` checks the name length and URL before
// calling it.
func NewChannel(id, name, url, categoryID string) *Channel {
	now := time.Now().UTC()
	return &Channel{
		ID:         id,
		Name:       name,
		URL:        url,
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
