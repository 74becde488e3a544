package service_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskmail/internal/apperr"
	"taskmail/internal/models"
	"taskmail/internal/repository"
	"taskmail/internal/service"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []models.ItemEvent
}

func (c *capturedEvents) Publish(ctx context.Context, ev models.ItemEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *capturedEvents) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.Action
	}
	return out
}

type itemsFixture struct {
	svc    *service.Items
	users  *repository.MemoryUsers
	store  *repository.MemoryItems
	events *capturedEvents
}

func newItemsFixture(t *testing.T) *itemsFixture {
	t.Helper()
	users := repository.NewMemoryUsers()
	store := repository.NewMemoryItems(users)
	events := &capturedEvents{}
	return &itemsFixture{
		svc:    service.NewItems(store, users, events),
		users:  users,
		store:  store,
		events: events,
	}
}

func (f *itemsFixture) user(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), name, email, "hash")
	require.NoError(t, err)
	return u
}

func TestCreateValidatesTitle(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ann", "ann@example.com")

	_, err := f.svc.Create(ctx, service.CreateInput{Title: "   "}, u.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	_, err = f.svc.Create(ctx, service.CreateInput{Title: strings.Repeat("x", 201)}, u.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))

	it, err := f.svc.Create(ctx, service.CreateInput{Title: "  X  "}, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "X", it.Title, "title is stored trimmed")
}

func TestCreatePersonalTodo(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ann", "ann@example.com")

	it, err := f.svc.Create(ctx, service.CreateInput{Title: "buy milk", Description: "2L"}, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FolderInbox, it.Folder)
	assert.Equal(t, u.ID, it.OwnerID)
	assert.Empty(t, it.SenderID)
	assert.Empty(t, it.RecipientID)
	assert.False(t, it.Completed)
	assert.Equal(t, []string{models.ActionCreated}, f.events.actions())
}

func TestSendToUnknownEmailCreatesNothing(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ann", "ann@example.com")

	_, err := f.svc.Create(ctx, service.CreateInput{
		Title:          "hello",
		RecipientEmail: "ghost@example.com",
	}, u.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
	assert.Contains(t, err.Error(), "ghost@example.com")
	assert.Equal(t, 0, f.store.Len(), "no items written before recipient resolution")
}

func TestSendCreatesSenderAndRecipientCopies(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	bob := f.user(t, "Bob", "bob@example.com")

	sent, err := f.svc.Create(ctx, service.CreateInput{
		Title:          "lunch?",
		Description:    "noon at the usual place",
		RecipientEmail: "bob@example.com",
	}, ann.ID)
	require.NoError(t, err)

	// the caller gets their own sent copy, relations expanded
	assert.Equal(t, ann.ID, sent.OwnerID)
	assert.Equal(t, models.FolderSent, sent.Folder)
	require.NotNil(t, sent.Recipient)
	assert.Equal(t, "bob@example.com", sent.Recipient.Email)

	inboxItems, err := f.svc.ListFolder(ctx, bob.ID, models.FolderInbox)
	require.NoError(t, err)
	require.Len(t, inboxItems, 1)
	inbox := inboxItems[0]
	assert.Equal(t, bob.ID, inbox.OwnerID)
	assert.Equal(t, sent.Title, inbox.Title)
	assert.Equal(t, sent.Description, inbox.Description)
	assert.Equal(t, ann.ID, inbox.SenderID)
	assert.NotEqual(t, sent.ID, inbox.ID, "the two copies are independent rows")
	assert.Equal(t, 2, f.store.Len())

	// deleting one copy leaves the other untouched
	require.NoError(t, f.svc.Delete(ctx, inbox.ID, bob.ID))
	still, err := f.svc.Get(ctx, sent.ID, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, sent.ID, still.ID)
}

func TestOwnershipEnforcedOnEveryItemOperation(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	bob := f.user(t, "Bob", "bob@example.com")

	it, err := f.svc.Create(ctx, service.CreateInput{Title: "private"}, ann.ID)
	require.NoError(t, err)

	title := "stolen"
	ops := map[string]func() error{
		"get":    func() error { _, err := f.svc.Get(ctx, it.ID, bob.ID); return err },
		"update": func() error { _, err := f.svc.Update(ctx, it.ID, service.UpdateInput{Title: &title}, bob.ID); return err },
		"toggle": func() error { _, err := f.svc.ToggleCompleted(ctx, it.ID, bob.ID); return err },
		"star":   func() error { _, err := f.svc.ToggleStar(ctx, it.ID, bob.ID); return err },
		"snooze": func() error { _, err := f.svc.Snooze(ctx, it.ID, bob.ID); return err },
		"delete": func() error { return f.svc.Delete(ctx, it.ID, bob.ID) },
	}
	for name, op := range ops {
		err := op()
		require.Error(t, err, name)
		assert.Equal(t, http.StatusForbidden, apperr.Status(err), name)
		assert.Contains(t, err.Error(), "no permission", name)
		assert.NotContains(t, err.Error(), "private", "%s must not leak item content", name)
	}

	_, err = f.svc.Get(ctx, "no-such-id", ann.ID)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))
}

func TestToggleCompletedIsAnInvolution(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ann", "ann@example.com")

	it, err := f.svc.Create(ctx, service.CreateInput{Title: "task"}, u.ID)
	require.NoError(t, err)
	require.False(t, it.Completed)

	once, err := f.svc.ToggleCompleted(ctx, it.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, once.Completed)

	twice, err := f.svc.ToggleCompleted(ctx, it.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, twice.Completed)
}

func TestSnoozeMovesFolderOnly(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ann", "ann@example.com")

	it, err := f.svc.Create(ctx, service.CreateInput{Title: "task"}, u.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleStar(ctx, it.ID, u.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleCompleted(ctx, it.ID, u.ID)
	require.NoError(t, err)

	snoozed, err := f.svc.Snooze(ctx, it.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FolderSnoozed, snoozed.Folder)
	assert.True(t, snoozed.Starred, "snooze leaves starred alone")
	assert.True(t, snoozed.Completed, "snooze leaves completed alone")

	back, err := f.svc.Unsnooze(ctx, it.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FolderInbox, back.Folder)
}

func TestStarredIsAFacetNotAFolder(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ann", "ann@example.com")

	a, err := f.svc.Create(ctx, service.CreateInput{Title: "in inbox"}, u.ID)
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, service.CreateInput{Title: "snoozed later"}, u.ID)
	require.NoError(t, err)

	_, err = f.svc.ToggleStar(ctx, a.ID, u.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleStar(ctx, b.ID, u.ID)
	require.NoError(t, err)
	starred, err := f.svc.Snooze(ctx, b.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FolderSnoozed, starred.Folder)

	// starred view spans folders
	view, err := f.svc.ListFolder(ctx, u.ID, models.FolderStarred)
	require.NoError(t, err)
	assert.Len(t, view, 2)

	// and starring never moved a out of the inbox
	inbox, err := f.svc.ListFolder(ctx, u.ID, models.FolderInbox)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, a.ID, inbox[0].ID)

	_, err = f.svc.ListFolder(ctx, u.ID, "archive")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
}

func TestListFolderDefaultsToInboxNewestFirst(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ann", "ann@example.com")

	first, err := f.svc.Create(ctx, service.CreateInput{Title: "first"}, u.ID)
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, service.CreateInput{Title: "second"}, u.ID)
	require.NoError(t, err)

	items, err := f.svc.ListFolder(ctx, u.ID, "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestUpdateCopiesOnlyAllowedFields(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ann", "ann@example.com")

	it, err := f.svc.Create(ctx, service.CreateInput{Title: "orig", Description: "keep me"}, u.ID)
	require.NoError(t, err)

	title := "  renamed  "
	done := true
	got, err := f.svc.Update(ctx, it.ID, service.UpdateInput{Title: &title, Completed: &done}, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.Completed)
	assert.Equal(t, "keep me", got.Description, "description is not part of the patch")
	assert.Equal(t, models.FolderInbox, got.Folder)

	empty := " "
	_, err = f.svc.Update(ctx, it.ID, service.UpdateInput{Title: &empty}, u.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
}

func TestDeleteBulkSilentlySkipsForeignIDs(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	bob := f.user(t, "Bob", "bob@example.com")

	mine, err := f.svc.Create(ctx, service.CreateInput{Title: "mine"}, ann.ID)
	require.NoError(t, err)
	theirs, err := f.svc.Create(ctx, service.CreateInput{Title: "theirs"}, bob.ID)
	require.NoError(t, err)

	n, err := f.svc.DeleteBulk(ctx, []string{mine.ID, theirs.ID}, ann.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// bob's item survived
	got, err := f.svc.Get(ctx, theirs.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, theirs.ID, got.ID)

	_, err = f.svc.DeleteBulk(ctx, nil, ann.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
}

func TestDeleteCompletedOnlyTouchesCaller(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	bob := f.user(t, "Bob", "bob@example.com")

	done, err := f.svc.Create(ctx, service.CreateInput{Title: "done"}, ann.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleCompleted(ctx, done.ID, ann.ID)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, service.CreateInput{Title: "open"}, ann.ID)
	require.NoError(t, err)

	bobsDone, err := f.svc.Create(ctx, service.CreateInput{Title: "bob done"}, bob.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleCompleted(ctx, bobsDone.ID, bob.ID)
	require.NoError(t, err)

	n, err := f.svc.DeleteCompleted(ctx, ann.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stats, err := f.svc.Stats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total, "bob's completed item survived")
}

func TestStats(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	u := f.user(t, "Ann", "ann@example.com")

	empty, err := f.svc.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 0.0, empty.CompletionRate, "no division by zero")

	for i, title := range []string{"a", "b", "c"} {
		it, err := f.svc.Create(ctx, service.CreateInput{Title: title}, u.ID)
		require.NoError(t, err)
		if i == 0 {
			_, err = f.svc.ToggleCompleted(ctx, it.ID, u.ID)
			require.NoError(t, err)
		}
	}

	stats, err := f.svc.Stats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 33.3, stats.CompletionRate, "rounded to one decimal")
}

func TestEventsPublishedAfterMutations(t *testing.T) {
	f := newItemsFixture(t)
	ctx := context.Background()
	ann := f.user(t, "Ann", "ann@example.com")
	f.user(t, "Bob", "bob@example.com")

	it, err := f.svc.Create(ctx, service.CreateInput{Title: "task"}, ann.ID)
	require.NoError(t, err)
	_, err = f.svc.ToggleCompleted(ctx, it.ID, ann.ID)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, service.CreateInput{Title: "hi", RecipientEmail: "bob@example.com"}, ann.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		models.ActionCreated,
		models.ActionToggled,
		models.ActionSent,
		models.ActionSent,
	}, f.events.actions())
}

// a nil publisher must be fine: no broker configured
func TestServiceRunsWithoutEventPublisher(t *testing.T) {
	users := repository.NewMemoryUsers()
	store := repository.NewMemoryItems(users)
	svc := service.NewItems(store, users, nil)
	u, err := users.Create(context.Background(), "Ann", "ann@example.com", "hash")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), service.CreateInput{Title: "task"}, u.ID)
	require.NoError(t, err)
}
