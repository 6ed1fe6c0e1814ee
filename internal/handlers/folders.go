package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamline/internal/services"
	"teamline/internal/utils"
)

// FolderHandler handles per-user folder trees.
type FolderHandler struct {
	DB *gorm.DB
}

type folderRequest struct {
	Name     string `json:"name"`
	ParentID *uint  `json:"parentId"`
}

// ListFolders handles GET /api/folders
// @Summary List folders
// @Description The user's folders, sorted by name
// @Tags Folders
// @Produce json
// @Success 200 {array} models.Folder
// @Router /folders [get]
func (h *FolderHandler) ListFolders(c *fiber.Ctx) error {
	folders, err := services.ListFolders(h.DB, currentUser(c))
	if err != nil {
		return serviceError(c, err, "listFolders")
	}
	return c.Status(fiber.StatusOK).JSON(folders)
}

// CreateFolder handles POST /api/folders
// @Summary Create a folder
// @Description Create a folder, optionally under an owned parent
// @Tags Folders
// @Accept json
// @Produce json
// @Success 201 {object} models.Folder
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /folders [post]
func (h *FolderHandler) CreateFolder(c *fiber.Ctx) error {
	var in folderRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	folder, err := services.CreateFolder(h.DB, currentUser(c), in.Name, in.ParentID)
	if err != nil {
		return serviceError(c, err, "createFolder")
	}
	return c.Status(fiber.StatusCreated).JSON(folder)
}

// UpdateFolder handles PUT /api/folders/:id
// @Summary Update a folder
// @Description Rename or reparent; self-parenting and cycles are rejected
// @Tags Folders
// @Accept json
// @Produce json
// @Param id path int true "Folder id"
// @Success 200 {object} models.Folder
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /folders/{id} [put]
func (h *FolderHandler) UpdateFolder(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid folder id")
	}
	var in folderRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	folder, err := services.UpdateFolder(h.DB, currentUser(c), id, in.Name, in.ParentID)
	if err != nil {
		return serviceError(c, err, "updateFolder")
	}
	return c.Status(fiber.StatusOK).JSON(folder)
}

// DeleteFolder handles DELETE /api/folders/:id
// @Summary Delete a folder
// @Description Posts inside become uncategorized; children move to the deleted folder's parent
// @Tags Folders
// @Produce json
// @Param id path int true "Folder id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /folders/{id} [delete]
func (h *FolderHandler) DeleteFolder(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid folder id")
	}

	if err := services.DeleteFolder(h.DB, currentUser(c), id); err != nil {
		return serviceError(c, err, "deleteFolder")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
