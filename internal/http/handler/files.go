package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"fileshare/internal/http/middleware"
	"fileshare/internal/policy"
	"fileshare/internal/service"
)

type accessUpdate struct {
	AccessGranted *bool `json:"access_granted"`
}

func fileID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// UploadFile godoc
// @Summary Upload a file (admin)
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "file to upload"
// @Success 200 {object} model.File
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Router /upload [post]
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeFieldError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required", "file")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		stored, err := svc.Upload(c.UserContext(), middleware.CurrentUser(c), service.UploadInput{
			Filename:    fh.Filename,
			Body:        f,
			Size:        fh.Size,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(stored)
	}
}

// ListFiles godoc
// @Summary List files (admins see all, others see granted files)
// @Tags files
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.FileSummary
// @Failure 401 {object} errorPayload
// @Router /files [get]
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := middleware.CurrentUser(c)
		items, err := svc.List(c.UserContext(), user, policy.ListScope(user))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(items)
	}
}

// ListGrantedFiles godoc
// @Summary List files with access granted
// @Tags files
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.FileSummary
// @Failure 401 {object} errorPayload
// @Router /files/granted [get]
func ListGrantedFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext(), middleware.CurrentUser(c), policy.ScopeGrantedOnly)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(items)
	}
}

// UpdateAccess godoc
// @Summary Grant or revoke download access (admin)
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "file ID"
// @Param body body accessUpdate true "new access flag"
// @Success 200 {object} model.File
// @Failure 400 {object} errorPayload
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /files/{id} [put]
func UpdateAccess(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := fileID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var in accessUpdate
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		if in.AccessGranted == nil {
			return writeFieldError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "access_granted is required", "access_granted")
		}

		f, err := svc.SetAccessGrant(c.UserContext(), middleware.CurrentUser(c), id, *in.AccessGranted)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(f)
	}
}

// DownloadFile godoc
// @Summary Download a file
// @Tags files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "file ID"
// @Success 200 {file} binary
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /download/{id} [get]
func DownloadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := fileID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		dl, err := svc.Download(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return respondError(c, err)
		}

		c.Attachment(dl.File.Filename)
		if dl.File.ContentType != "" {
			c.Set(fiber.HeaderContentType, dl.File.ContentType)
		}
		// fasthttp closes the body once it has been written.
		return c.SendStream(dl.Body, int(dl.File.Size))
	}
}

// DeleteFile godoc
// @Summary Delete a file and its content (admin)
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path int true "file ID"
// @Success 200 {object} messageResponse
// @Failure 403 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /delete/{id} [delete]
func DeleteFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := fileID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
			return respondError(c, err)
		}
		return c.JSON(messageResponse{Message: "file deleted"})
	}
}
