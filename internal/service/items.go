package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"taskmail/internal/apperr"
	"taskmail/internal/models"
	"taskmail/pkg/logger"
)

// Items implements the item business rules: per-item ownership, folder
// transitions, and the dual-insert send flow.
type Items struct {
	items  ItemStore
	users  UserStore
	events EventPublisher
}

// NewItems builds the item service. events may be nil when no broker is
// configured.
func NewItems(items ItemStore, users UserStore, events EventPublisher) *Items {
	return &Items{items: items, users: users, events: events}
}

func (s *Items) notify(ctx context.Context, action string, it *models.Item, actorID string) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, models.ItemEvent{
		Action:     action,
		ItemID:     it.ID,
		ActorID:    actorID,
		OwnerID:    it.OwnerID,
		OccurredAt: time.Now().UTC(),
	})
}

// owned loads the item and enforces ownership. action names the denied
// operation in the 403 message; item content is never leaked.
func (s *Items) owned(ctx context.Context, id, userID, action string) (*models.Item, error) {
	it, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, apperr.Internal("could not load item")
	}
	if it == nil {
		return nil, apperr.NotFound("item not found")
	}
	if it.OwnerID != userID {
		return nil, apperr.Forbidden("no permission to " + action + " this item")
	}
	return it, nil
}

// ListFolder returns the user's items for the requested folder view,
// newest first. "starred" is a facet query over all folders; an empty
// folder defaults to inbox.
func (s *Items) ListFolder(ctx context.Context, userID string, folder models.Folder) ([]models.Item, error) {
	if folder == "" {
		folder = models.FolderInbox
	}
	if !models.ValidListFolder(folder) {
		return nil, apperr.BadRequest("unknown folder: " + string(folder))
	}
	var (
		items []models.Item
		err   error
	)
	if folder == models.FolderStarred {
		items, err = s.items.ListStarred(ctx, userID)
	} else {
		items, err = s.items.ListByFolder(ctx, userID, folder)
	}
	if err != nil {
		return nil, apperr.Internal("could not list items")
	}
	return items, nil
}

// Get returns a single item after the ownership check.
func (s *Items) Get(ctx context.Context, id, userID string) (*models.Item, error) {
	return s.owned(ctx, id, userID, "view")
}

// CreateInput is the create/send request body.
type CreateInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	RecipientEmail string `json:"recipientEmail"`
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.BadRequest("title is required")
	}
	if len(title) > models.MaxTitleLen {
		return "", apperr.BadRequest(fmt.Sprintf("title must be at most %d characters", models.MaxTitleLen))
	}
	return title, nil
}

// Create inserts a personal todo, or, when a recipient email is given,
// sends the item: one inbox copy owned by the recipient and one sent copy
// owned by the caller, inserted in a single transaction. The recipient is
// resolved before anything is written, so an unknown email creates zero
// items. Returns the caller's copy.
func (s *Items) Create(ctx context.Context, in CreateInput, userID string) (*models.Item, error) {
	title, err := validTitle(in.Title)
	if err != nil {
		return nil, err
	}
	desc := strings.TrimSpace(in.Description)

	recipientEmail := strings.TrimSpace(in.RecipientEmail)
	if recipientEmail == "" {
		it := &models.Item{
			Title:       title,
			Description: desc,
			Folder:      models.FolderInbox,
			OwnerID:     userID,
		}
		if err := s.items.Insert(ctx, it); err != nil {
			return nil, apperr.Internal("could not create item")
		}
		s.notify(ctx, models.ActionCreated, it, userID)
		return it, nil
	}

	recipient, err := s.users.FindByEmail(ctx, recipientEmail)
	if err != nil {
		return nil, apperr.Internal("could not resolve recipient")
	}
	if recipient == nil {
		return nil, apperr.NotFound("no registered user with email " + recipientEmail)
	}

	inbox := &models.Item{
		Title:          title,
		Description:    desc,
		Folder:         models.FolderInbox,
		OwnerID:        recipient.ID,
		SenderID:       userID,
		RecipientID:    recipient.ID,
		RecipientEmail: recipientEmail,
	}
	sent := &models.Item{
		Title:          title,
		Description:    desc,
		Folder:         models.FolderSent,
		OwnerID:        userID,
		SenderID:       userID,
		RecipientID:    recipient.ID,
		RecipientEmail: recipientEmail,
	}
	if err := s.items.InsertPair(ctx, inbox, sent); err != nil {
		return nil, apperr.Internal("could not send item")
	}
	logger.Info(ctx, "Item sent", "sender", userID, "recipient", recipient.ID)
	s.notify(ctx, models.ActionSent, sent, userID)
	s.notify(ctx, models.ActionSent, inbox, userID)

	out, err := s.items.Get(ctx, sent.ID)
	if err != nil || out == nil {
		return nil, apperr.Internal("could not load sent item")
	}
	return out, nil
}

// UpdateInput is the PUT patch body. Only title, completed and starred are
// ever copied; any other field in the request is ignored.
type UpdateInput struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
	Starred   *bool   `json:"starred"`
}

// Update applies the allowed patch fields after the ownership check.
func (s *Items) Update(ctx context.Context, id string, in UpdateInput, userID string) (*models.Item, error) {
	it, err := s.owned(ctx, id, userID, "edit")
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title, err := validTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		it.Title = title
	}
	if in.Completed != nil {
		it.Completed = *in.Completed
	}
	if in.Starred != nil {
		it.Starred = *in.Starred
	}
	if err := s.items.Save(ctx, it); err != nil {
		return nil, apperr.Internal("could not update item")
	}
	s.notify(ctx, models.ActionUpdated, it, userID)
	return it, nil
}

func (s *Items) mutate(ctx context.Context, id, userID, verb, action string, apply func(*models.Item)) (*models.Item, error) {
	it, err := s.owned(ctx, id, userID, verb)
	if err != nil {
		return nil, err
	}
	apply(it)
	if err := s.items.Save(ctx, it); err != nil {
		return nil, apperr.Internal("could not update item")
	}
	s.notify(ctx, action, it, userID)
	return it, nil
}

// ToggleCompleted flips the completed flag.
func (s *Items) ToggleCompleted(ctx context.Context, id, userID string) (*models.Item, error) {
	return s.mutate(ctx, id, userID, "edit", models.ActionToggled, func(it *models.Item) {
		it.Completed = !it.Completed
	})
}

// ToggleStar flips the starred facet. The folder is untouched.
func (s *Items) ToggleStar(ctx context.Context, id, userID string) (*models.Item, error) {
	return s.mutate(ctx, id, userID, "edit", models.ActionStarred, func(it *models.Item) {
		it.Starred = !it.Starred
	})
}

// Snooze moves the item to the snoozed folder. starred and completed are
// untouched. There is no transition table: any folder can be snoozed.
func (s *Items) Snooze(ctx context.Context, id, userID string) (*models.Item, error) {
	return s.mutate(ctx, id, userID, "edit", models.ActionSnoozed, func(it *models.Item) {
		it.Folder = models.FolderSnoozed
	})
}

// Unsnooze moves the item back to the inbox.
func (s *Items) Unsnooze(ctx context.Context, id, userID string) (*models.Item, error) {
	return s.mutate(ctx, id, userID, "edit", models.ActionUnsnoozed, func(it *models.Item) {
		it.Folder = models.FolderInbox
	})
}

// Delete removes a single item after the ownership check.
func (s *Items) Delete(ctx context.Context, id, userID string) error {
	it, err := s.owned(ctx, id, userID, "delete")
	if err != nil {
		return err
	}
	if err := s.items.Delete(ctx, it.ID); err != nil {
		return apperr.Internal("could not delete item")
	}
	s.notify(ctx, models.ActionDeleted, it, userID)
	return nil
}

// DeleteBulk removes the caller's items among ids. Ids owned by other
// users are silently excluded. Returns the number deleted.
func (s *Items) DeleteBulk(ctx context.Context, ids []string, userID string) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.BadRequest("ids are required")
	}
	n, err := s.items.DeleteBulk(ctx, userID, ids)
	if err != nil {
		return 0, apperr.Internal("could not delete items")
	}
	return n, nil
}

// DeleteCompleted removes all of the caller's completed items and returns
// the number deleted.
func (s *Items) DeleteCompleted(ctx context.Context, userID string) (int64, error) {
	n, err := s.items.DeleteCompleted(ctx, userID)
	if err != nil {
		return 0, apperr.Internal("could not delete items")
	}
	return n, nil
}

// Stats summarizes the caller's items. The completion rate is a percentage
// rounded to one decimal, 0 for an empty account.
func (s *Items) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	total, completed, err := s.items.Counts(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("could not compute stats")
	}
	st := &models.Stats{Total: total, Completed: completed, Active: total - completed}
	if total > 0 {
		st.CompletionRate = math.Round(float64(completed)/float64(total)*1000) / 10
	}
	return st, nil
}
