package handler

import (
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"dossierapi/internal/service"
)

const downloadURLExpiry = 5 * time.Minute

// ListDocuments godoc
// @Summary List the documents of a dossier
// @Tags documents
// @Param id path int true "dossier id"
// @Param document_type query string false "filter by document type"
// @Param grouped query bool false "group by document type"
// @Success 200 {array} documentResource
// @Router /dossiers/{id}/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		dossierID, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}

		if c.QueryBool("grouped") {
			groups, err := svc.Grouped(c.UserContext(), userID, dossierID)
			if err != nil {
				return writeServiceError(c, err)
			}
			return c.JSON(fiber.Map{"data": newDocumentGroupResources(groups, c.BaseURL())})
		}

		docs, err := svc.List(c.UserContext(), userID, dossierID, c.Query("document_type"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": newDocumentResources(docs, c.BaseURL())})
	}
}

// UploadDocument godoc
// @Summary Upload 1 to 10 files as one document
// @Tags documents
// @Accept multipart/form-data
// @Param id path int true "dossier id"
// @Param document_type formData string true "document type"
// @Param name formData string true "document name"
// @Param description formData string false "description"
// @Param files formData file true "PDF, PNG or JPEG, max 4 MiB each"
// @Success 201 {object} documentResource
// @Failure 422 {object} errorPayload
// @Router /dossiers/{id}/documents [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		dossierID, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "multipart form expected")
		}

		in := service.UploadDocumentInput{
			DocumentType: formValue(form, "document_type"),
			Name:         formValue(form, "name"),
		}
		if desc := formValue(form, "description"); desc != "" {
			in.Description = &desc
		}

		headers := append(form.File["files"], form.File["files[]"]...)
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			in.Files = append(in.Files, service.UploadFile{Name: fh.Filename, Size: fh.Size, Content: f})
		}

		doc, err := svc.Upload(c.UserContext(), userID, dossierID, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(newDocumentResource(doc, c.BaseURL()))
	}
}

// GetDocument godoc
// @Summary Show one document
// @Tags documents
// @Param id path int true "dossier id"
// @Param docId path int true "document id"
// @Success 200 {object} documentResource
// @Router /dossiers/{id}/documents/{docId} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		dossierID, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}
		docID, err := paramID(c, "docId")
		if err != nil {
			return invalidID(c)
		}

		doc, err := svc.Get(c.UserContext(), userID, dossierID, docID)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(newDocumentResource(doc, c.BaseURL()))
	}
}

// DeleteDocument godoc
// @Summary Delete a document and its files
// @Tags documents
// @Param id path int true "dossier id"
// @Param docId path int true "document id"
// @Success 204
// @Router /dossiers/{id}/documents/{docId} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		dossierID, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}
		docID, err := paramID(c, "docId")
		if err != nil {
			return invalidID(c)
		}

		if err := svc.Delete(c.UserContext(), userID, dossierID, docID); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadDocument godoc
// @Summary Download a stored file
// @Description Streams the first file unless file is given. redirect=true answers with a presigned storage URL instead.
// @Tags documents
// @Param id path int true "dossier id"
// @Param docId path int true "document id"
// @Param file query int false "file id"
// @Param redirect query bool false "redirect to a presigned URL"
// @Success 200 {file} binary
// @Router /dossiers/{id}/documents/{docId}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := currentUserID(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		dossierID, err := paramID(c, "id")
		if err != nil {
			return invalidID(c)
		}
		docID, err := paramID(c, "docId")
		if err != nil {
			return invalidID(c)
		}
		var fileID int64
		if raw := c.Query("file"); raw != "" {
			if fileID, err = strconv.ParseInt(raw, 10, 64); err != nil || fileID <= 0 {
				return invalidID(c)
			}
		}

		if c.QueryBool("redirect") {
			u, err := svc.DownloadURL(c.UserContext(), userID, dossierID, docID, fileID, downloadURLExpiry)
			if err != nil {
				return writeServiceError(c, err)
			}
			return c.Redirect(u, fiber.StatusFound)
		}

		dl, err := svc.Download(c.UserContext(), userID, dossierID, docID, fileID)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Attachment(dl.FileName)
		if dl.ContentType != "" {
			c.Set(fiber.HeaderContentType, dl.ContentType)
		}
		return c.SendStream(dl.Body, int(dl.Size))
	}
}

// DocumentTypes godoc
// @Summary Document types with labels
// @Tags documents
// @Success 200 {array} model.Option
// @Router /dossiers/{id}/documents/types [get]
func DocumentTypes(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": svc.Types()})
	}
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
