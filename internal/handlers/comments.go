package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamline/internal/services"
	"teamline/internal/utils"
)

// CommentHandler handles post comments.
type CommentHandler struct {
	DB *gorm.DB
}

type commentRequest struct {
	PostID  uint   `json:"postId"`
	Content string `json:"content"`
}

// ListComments handles GET /api/comments
// @Summary List a post's comments
// @Description Comments oldest-first for a post the user may read
// @Tags Comments
// @Produce json
// @Param postId query int true "Post id"
// @Success 200 {array} models.Comment
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /comments [get]
func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	postID := c.QueryInt("postId")
	if postID <= 0 {
		return utils.BadRequestResponse(c, "postId is required")
	}

	comments, err := services.ListComments(h.DB, currentUser(c), uint(postID))
	if err != nil {
		return serviceError(c, err, "listComments")
	}
	return c.Status(fiber.StatusOK).JSON(comments)
}

// CreateComment handles POST /api/comments
// @Summary Comment on a post
// @Description Add a comment to a post the user may read
// @Tags Comments
// @Accept json
// @Produce json
// @Success 201 {object} models.Comment
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /comments [post]
func (h *CommentHandler) CreateComment(c *fiber.Ctx) error {
	var in commentRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	comment, err := services.CreateComment(h.DB, currentUser(c), in.PostID, in.Content)
	if err != nil {
		return serviceError(c, err, "createComment")
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Description Remove a comment as its author, the post's author, or an admin
// @Tags Comments
// @Produce json
// @Param id path int true "Comment id"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid comment id")
	}

	if err := services.DeleteComment(h.DB, currentUser(c), id); err != nil {
		return serviceError(c, err, "deleteComment")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
