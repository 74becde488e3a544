package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"taskmail/internal/apperr"
	"taskmail/internal/cache"
	"taskmail/internal/middleware"
	"taskmail/internal/models"
	"taskmail/internal/service"
)

// Items exposes the todo/mail item endpoints. Folder listings are served
// from the Redis cache when possible; concurrent identical misses are
// collapsed with singleflight.
type Items struct {
	svc   *service.Items
	lists *cache.Lists
	group singleflight.Group
}

func NewItems(svc *service.Items, lists *cache.Lists) *Items {
	return &Items{svc: svc, lists: lists}
}

type listEnvelope struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Data    []models.Item `json:"data"`
}

// List handles GET /api/todos?folder=...
func (h *Items) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	folder := models.Folder(c.DefaultQuery("folder", string(models.FolderInbox)))
	if !models.ValidListFolder(folder) {
		fail(c, apperr.BadRequest("unknown folder: "+string(folder)))
		return
	}
	if b, hit := h.lists.Get(c.Request.Context(), user.ID, folder); hit {
		c.Data(http.StatusOK, "application/json", b)
		return
	}
	key := user.ID + ":" + string(folder)
	v, err, _ := h.group.Do(key, func() (interface{}, error) {
		// background context: the result is shared across collapsed callers
		items, err := h.svc.ListFolder(context.Background(), user.ID, folder)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []models.Item{}
		}
		return json.Marshal(listEnvelope{Success: true, Count: len(items), Data: items})
	})
	if err != nil {
		fail(c, err)
		return
	}
	b := v.([]byte)
	h.lists.SetAsync(user.ID, folder, b)
	c.Data(http.StatusOK, "application/json", b)
}

// Get handles GET /api/todos/:id.
func (h *Items) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, item)
}

// Create handles POST /api/todos: a personal todo, or a send when
// recipientEmail is set.
func (h *Items) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var body service.CreateInput
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, apperr.BadRequest("invalid request body"))
		return
	}
	item, err := h.svc.Create(c.Request.Context(), body, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c, user.ID, item)
	created(c, item)
}

// Update handles PUT /api/todos/:id.
func (h *Items) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var body service.UpdateInput
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, apperr.BadRequest("invalid request body"))
		return
	}
	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), body, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c, user.ID, nil)
	ok(c, item)
}

func (h *Items) patch(c *gin.Context, op func(id, userID string) (*models.Item, error)) {
	user := middleware.CurrentUser(c)
	item, err := op(c.Param("id"), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c, user.ID, nil)
	ok(c, item)
}

// ToggleCompleted handles PATCH /api/todos/:id/toggle.
func (h *Items) ToggleCompleted(c *gin.Context) {
	h.patch(c, func(id, userID string) (*models.Item, error) {
		return h.svc.ToggleCompleted(c.Request.Context(), id, userID)
	})
}

// ToggleStar handles PATCH /api/todos/:id/toggle-star.
func (h *Items) ToggleStar(c *gin.Context) {
	h.patch(c, func(id, userID string) (*models.Item, error) {
		return h.svc.ToggleStar(c.Request.Context(), id, userID)
	})
}

// Snooze handles PATCH /api/todos/:id/snooze.
func (h *Items) Snooze(c *gin.Context) {
	h.patch(c, func(id, userID string) (*models.Item, error) {
		return h.svc.Snooze(c.Request.Context(), id, userID)
	})
}

// Unsnooze handles PATCH /api/todos/:id/unsnooze.
func (h *Items) Unsnooze(c *gin.Context) {
	h.patch(c, func(id, userID string) (*models.Item, error) {
		return h.svc.Unsnooze(c.Request.Context(), id, userID)
	})
}

// Delete handles DELETE /api/todos/:id.
func (h *Items) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c, user.ID, nil)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "item deleted"})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// DeleteBulk handles DELETE /api/todos/bulk. Ids owned by other users are
// dropped, not errored.
func (h *Items) DeleteBulk(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var body bulkDeleteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, apperr.BadRequest("invalid id list"))
		return
	}
	n, err := h.svc.DeleteBulk(c.Request.Context(), body.IDs, user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c, user.ID, nil)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("deleted %d items", n),
		"deletedCount": n,
	})
}

// DeleteCompleted handles DELETE /api/todos.
func (h *Items) DeleteCompleted(c *gin.Context) {
	user := middleware.CurrentUser(c)
	n, err := h.svc.DeleteCompleted(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.invalidate(c, user.ID, nil)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      fmt.Sprintf("deleted %d items", n),
		"deletedCount": n,
	})
}

// Stats handles GET /api/todos/stats.
func (h *Items) Stats(c *gin.Context) {
	user := middleware.CurrentUser(c)
	v, err, _ := h.group.Do("stats:"+user.ID, func() (interface{}, error) {
		return h.svc.Stats(context.Background(), user.ID)
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, v)
}

// invalidate drops the caller's cached listings, and the recipient's when
// a send created an inbox copy in another account.
func (h *Items) invalidate(c *gin.Context, userID string, created *models.Item) {
	h.lists.InvalidateUser(c.Request.Context(), userID)
	if created != nil && created.RecipientID != "" && created.RecipientID != userID {
		h.lists.InvalidateUser(c.Request.Context(), created.RecipientID)
	}
}
