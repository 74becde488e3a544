package models

import "time"

// Folder classifies an item into one of the mailbox views.
type Folder string

const (
	FolderInbox   Folder = "inbox"
	FolderSent    Folder = "sent"
	FolderSnoozed Folder = "snoozed"
	FolderTrash   Folder = "trash"

	// FolderStarred is a query facet (starred == true), never a stored
	// folder value.
	FolderStarred Folder = "starred"
)

// ValidListFolder reports whether f can be requested as a list view.
func ValidListFolder(f Folder) bool {
	switch f {
	case FolderInbox, FolderSent, FolderSnoozed, FolderTrash, FolderStarred:
		return true
	}
	return false
}

// Storable reports whether f may be persisted on an item row.
func (f Folder) Storable() bool {
	switch f {
	case FolderInbox, FolderSent, FolderSnoozed, FolderTrash:
		return true
	}
	return false
}

// MaxTitleLen is the hard cap on item titles.
const MaxTitleLen = 200

// Item is a single todo/mail record owned by exactly one user. OwnerID is
// the sole basis for access control. SenderID/RecipientID are empty for
// plain personal todos; Sender/Recipient carry the expanded {name,email}
// view when the row was read with relations.
type Item struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Completed      bool      `json:"completed"`
	Starred        bool      `json:"starred"`
	Folder         Folder    `json:"folder"`
	OwnerID        string    `json:"owner"`
	SenderID       string    `json:"-"`
	RecipientID    string    `json:"-"`
	Sender         *UserRef  `json:"sender,omitempty"`
	Recipient      *UserRef  `json:"recipient,omitempty"`
	RecipientEmail string    `json:"recipientEmail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Stats summarizes a user's items. CompletionRate is a percentage rounded
// to one decimal, 0 when the user has no items.
type Stats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Active         int     `json:"active"`
	CompletionRate float64 `json:"completionRate"`
}
