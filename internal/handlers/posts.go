package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamline/internal/database"
	"teamline/internal/services"
	"teamline/internal/utils"
)

// PostHandler handles the feed and the post lifecycle.
type PostHandler struct {
	DB   *gorm.DB
	Caps database.Capabilities
}

type shareRequest struct {
	UserIDs []uint `json:"userIds"`
}

type restoreRequest struct {
	HistoryID uint `json:"historyId"`
}

// ListPosts handles GET /api/posts
// @Summary List the feed
// @Description One page of visible posts, newest first, filtered by tag or folder
// @Tags Posts
// @Produce json
// @Param tag query string false "Tag filter"
// @Param folderId query string false "Folder id, or null/uncategorized"
// @Param cursor query int false "Id of the last post on the previous page"
// @Param limit query int false "Page size, 1-50"
// @Success 200 {object} services.FeedPage
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /posts [get]
func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	q := services.FeedQuery{
		Tag:      c.Query("tag"),
		FolderID: c.Query("folderId"),
		Cursor:   uint(c.QueryInt("cursor")),
		Limit:    c.QueryInt("limit"),
	}

	page, err := services.ListPosts(h.DB, h.Caps, currentUser(c), q)
	if err != nil {
		return serviceError(c, err, "listPosts")
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Create a post with tags, folder, attachments and mention resolution
// @Tags Posts
// @Accept json
// @Produce json
// @Success 201 {object} models.Post
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /posts [post]
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var in services.PostInput
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	post, err := services.CreatePost(h.DB, currentUser(c), in)
	if err != nil {
		return serviceError(c, err, "createPost")
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id/get
// @Summary Get a post
// @Description Full post detail with relations and comments
// @Tags Posts
// @Produce json
// @Param id path int true "Post id"
// @Success 200 {object} services.PostDetail
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /posts/{id}/get [get]
func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid post id")
	}

	detail, err := services.GetPostDetail(h.DB, h.Caps, currentUser(c), id)
	if err != nil {
		return serviceError(c, err, "getPost")
	}
	return c.Status(fiber.StatusOK).JSON(detail)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update a post
// @Description Snapshot the current revision and apply the edit
// @Tags Posts
// @Accept json
// @Produce json
// @Param id path int true "Post id"
// @Success 200 {object} models.Post
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid post id")
	}
	var in services.PostInput
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	post, err := services.UpdatePost(h.DB, currentUser(c), id, in)
	if err != nil {
		return serviceError(c, err, "updatePost")
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Description Remove a post and its dependent rows
// @Tags Posts
// @Produce json
// @Param id path int true "Post id"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid post id")
	}

	if err := services.DeletePost(h.DB, currentUser(c), id); err != nil {
		return serviceError(c, err, "deletePost")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// ListHistory handles GET /api/posts/:id/history
// @Summary List post revisions
// @Description Edit history, newest first; author or admin only
// @Tags Posts
// @Produce json
// @Param id path int true "Post id"
// @Success 200 {array} models.PostHistory
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /posts/{id}/history [get]
func (h *PostHandler) ListHistory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid post id")
	}

	history, err := services.ListPostHistory(h.DB, currentUser(c), id)
	if err != nil {
		return serviceError(c, err, "listPostHistory")
	}
	return c.Status(fiber.StatusOK).JSON(history)
}

// RestorePost handles POST /api/posts/:id/restore
// @Summary Restore a revision
// @Description Snapshot the current content and apply the chosen revision
// @Tags Posts
// @Accept json
// @Produce json
// @Param id path int true "Post id"
// @Success 200 {object} models.Post
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /posts/{id}/restore [post]
func (h *PostHandler) RestorePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid post id")
	}
	var in restoreRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	post, err := services.RestorePost(h.DB, currentUser(c), id, in.HistoryID)
	if err != nil {
		return serviceError(c, err, "restorePost")
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// SharePost handles POST /api/posts/:id/share
// @Summary Share a post
// @Description Grant read access to the listed users; author or admin only
// @Tags Posts
// @Accept json
// @Produce json
// @Param id path int true "Post id"
// @Success 200 {array} models.PostShare
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /posts/{id}/share [post]
func (h *PostHandler) SharePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid post id")
	}
	var in shareRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	shares, err := services.SharePost(h.DB, currentUser(c), id, in.UserIDs)
	if err != nil {
		return serviceError(c, err, "sharePost")
	}
	return c.Status(fiber.StatusOK).JSON(shares)
}

// ListPostShares handles GET /api/posts/:id/share
// @Summary List post shares
// @Description Current grants on a post; author or admin only
// @Tags Posts
// @Produce json
// @Param id path int true "Post id"
// @Success 200 {array} models.PostShare
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /posts/{id}/share [get]
func (h *PostHandler) ListPostShares(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid post id")
	}

	shares, err := services.ListPostShares(h.DB, currentUser(c), id)
	if err != nil {
		return serviceError(c, err, "listPostShares")
	}
	return c.Status(fiber.StatusOK).JSON(shares)
}

// DeletePostShare handles DELETE /api/posts/:id/share
// @Summary Revoke a post share
// @Description Remove one user's grant; 404 when no such grant exists
// @Tags Posts
// @Produce json
// @Param id path int true "Post id"
// @Param userId query int true "Grantee user id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /posts/{id}/share [delete]
func (h *PostHandler) DeletePostShare(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid post id")
	}
	userID := c.QueryInt("userId")
	if userID <= 0 {
		return utils.BadRequestResponse(c, "userId is required")
	}

	if err := services.DeletePostShare(h.DB, currentUser(c), id, uint(userID)); err != nil {
		return serviceError(c, err, "deletePostShare")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
