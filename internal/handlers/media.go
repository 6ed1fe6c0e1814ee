package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamline/internal/services"
	"teamline/internal/storage"
	"teamline/internal/utils"
)

// MediaHandler handles the file drive and calendar-date threads.
type MediaHandler struct {
	DB    *gorm.DB
	Store storage.Store
}

type attachDateRequest struct {
	MediaFileID uint   `json:"mediaFileId"`
	DateKey     string `json:"dateKey"`
}

type fileCommentRequest struct {
	DateKey string `json:"dateKey"`
	Content string `json:"content"`
}

type commentBody struct {
	Content string `json:"content"`
}

// ListFiles handles GET /api/media
// @Summary List drive files
// @Description Files owned by or shared with the user, newest first
// @Tags Media
// @Produce json
// @Success 200 {array} services.MediaFileView
// @Router /media [get]
func (h *MediaHandler) ListFiles(c *fiber.Ctx) error {
	files, err := services.ListFiles(h.DB, h.Store, currentUser(c))
	if err != nil {
		return serviceError(c, err, "listFiles")
	}
	return c.Status(fiber.StatusOK).JSON(files)
}

// UploadFile handles POST /api/media/upload
// @Summary Upload a file
// @Description Store the object, then record it; the object is removed if recording fails
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Success 201 {object} services.MediaFileView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /media/upload [post]
func (h *MediaHandler) UploadFile(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequestResponse(c, "file is required")
	}

	view, err := services.UploadFile(c.Context(), h.DB, h.Store, currentUser(c), fh)
	if err != nil {
		return serviceError(c, err, "uploadFile")
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// DeleteFile handles DELETE /api/media/:id
// @Summary Delete a file
// @Description Remove the stored object best-effort, then the record and its references
// @Tags Media
// @Produce json
// @Param id path int true "File id"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /media/{id} [delete]
func (h *MediaHandler) DeleteFile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid file id")
	}

	if err := services.DeleteFile(c.Context(), h.DB, h.Store, currentUser(c), id); err != nil {
		return serviceError(c, err, "deleteFile")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// DownloadFile handles GET /api/media/:id/download
// @Summary Download a file
// @Description Stream the stored object to a user allowed to read it
// @Tags Media
// @Produce octet-stream
// @Param id path int true "File id"
// @Success 200 {file} binary
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /media/{id}/download [get]
func (h *MediaHandler) DownloadFile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid file id")
	}

	file, err := services.OpenFile(c.Context(), h.DB, h.Store, currentUser(c), id, c.Response().BodyWriter())
	if err != nil {
		return serviceError(c, err, "downloadFile")
	}
	c.Set(fiber.HeaderContentType, file.MimeType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+file.Name+`"`)
	return nil
}

// ShareFile handles POST /api/media/:id/share
// @Summary Share a file
// @Description Grant read access to the listed users; uploader or admin only
// @Tags Media
// @Accept json
// @Produce json
// @Param id path int true "File id"
// @Success 200 {array} models.MediaShare
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /media/{id}/share [post]
func (h *MediaHandler) ShareFile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid file id")
	}
	var in shareRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	shares, err := services.ShareMedia(h.DB, currentUser(c), id, in.UserIDs)
	if err != nil {
		return serviceError(c, err, "shareFile")
	}
	return c.Status(fiber.StatusOK).JSON(shares)
}

// ListFileShares handles GET /api/media/:id/share
// @Summary List file shares
// @Description Current grants on a file; uploader or admin only
// @Tags Media
// @Produce json
// @Param id path int true "File id"
// @Success 200 {array} models.MediaShare
// @Failure 403 {object} utils.ErrorResponseStruct
// @Router /media/{id}/share [get]
func (h *MediaHandler) ListFileShares(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid file id")
	}

	shares, err := services.ListMediaShares(h.DB, currentUser(c), id)
	if err != nil {
		return serviceError(c, err, "listFileShares")
	}
	return c.Status(fiber.StatusOK).JSON(shares)
}

// DeleteFileShare handles DELETE /api/media/:id/share
// @Summary Revoke a file share
// @Description Remove one user's grant; 404 when no such grant exists
// @Tags Media
// @Produce json
// @Param id path int true "File id"
// @Param userId query int true "Grantee user id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /media/{id}/share [delete]
func (h *MediaHandler) DeleteFileShare(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid file id")
	}
	userID := c.QueryInt("userId")
	if userID <= 0 {
		return utils.BadRequestResponse(c, "userId is required")
	}

	if err := services.DeleteMediaShare(h.DB, currentUser(c), id, uint(userID)); err != nil {
		return serviceError(c, err, "deleteFileShare")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}

// GetThread handles GET /api/files/thread
// @Summary Calendar-date activity
// @Description Merged, time-ordered file and comment activity for one local date
// @Tags Media
// @Produce json
// @Param dateKey query string true "Date key YYYY-MM-DD"
// @Success 200 {object} services.ThreadResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /files/thread [get]
func (h *MediaHandler) GetThread(c *fiber.Ctx) error {
	result, err := services.GetFileThread(h.DB, h.Store, currentUser(c), c.Query("dateKey"))
	if err != nil {
		return serviceError(c, err, "getThread")
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// AttachToDate handles POST /api/files/thread
// @Summary Attach a file to a date
// @Description Associate an existing file with a calendar date other than its creation day
// @Tags Media
// @Accept json
// @Produce json
// @Success 201 {object} models.FileThreadEntry
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /files/thread [post]
func (h *MediaHandler) AttachToDate(c *fiber.Ctx) error {
	var in attachDateRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	entry, err := services.AttachFileToDate(h.DB, currentUser(c), in.MediaFileID, in.DateKey)
	if err != nil {
		return serviceError(c, err, "attachToDate")
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// CreateFileComment handles POST /api/files/comments
// @Summary Comment on a date
// @Description Add a comment scoped to a calendar date
// @Tags Media
// @Accept json
// @Produce json
// @Success 201 {object} models.FileThreadComment
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /files/comments [post]
func (h *MediaHandler) CreateFileComment(c *fiber.Ctx) error {
	var in fileCommentRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	comment, err := services.CreateFileComment(h.DB, currentUser(c), in.DateKey, in.Content)
	if err != nil {
		return serviceError(c, err, "createFileComment")
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateFileComment handles PUT /api/files/comments/:id
// @Summary Edit a date comment
// @Description Edit a date-scoped comment; author only
// @Tags Media
// @Accept json
// @Produce json
// @Param id path int true "Comment id"
// @Success 200 {object} models.FileThreadComment
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /files/comments/{id} [put]
func (h *MediaHandler) UpdateFileComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid comment id")
	}
	var in commentBody
	if err := c.BodyParser(&in); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	comment, err := services.UpdateFileComment(h.DB, currentUser(c), id, in.Content)
	if err != nil {
		return serviceError(c, err, "updateFileComment")
	}
	return c.Status(fiber.StatusOK).JSON(comment)
}

// DeleteFileComment handles DELETE /api/files/comments/:id
// @Summary Delete a date comment
// @Description Remove a date-scoped comment; author or admin
// @Tags Media
// @Produce json
// @Param id path int true "Comment id"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /files/comments/{id} [delete]
func (h *MediaHandler) DeleteFileComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid comment id")
	}

	if err := services.DeleteFileComment(h.DB, currentUser(c), id); err != nil {
		return serviceError(c, err, "deleteFileComment")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
