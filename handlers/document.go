package handlers

import (
	"fmt"
	"io"
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListCaseDocumentsHandler lists the documents attached to a case
func ListCaseDocumentsHandler(c echo.Context) error {
	if _, err := services.GetCaseByID(db.DB, c.Param("id")); err != nil {
		return err
	}
	docs, err := services.ListCaseDocuments(db.DB, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"documentos": docs})
}

// UploadCaseDocumentHandler accepts a multipart "archivo" field plus an optional "categoria"
func UploadCaseDocumentHandler(c echo.Context) error {
	file, err := c.FormFile("archivo")
	if err != nil {
		return services.Validation("archivo", "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	doc, err := services.UploadCaseDocument(c.Request().Context(), db.DB, deps.Storage, c.Param("id"),
		middleware.GetCurrentUser(c), services.DocumentUpload{
			FileName: file.Filename,
			Size:     file.Size,
			Category: c.FormValue("categoria"),
			Content:  src,
		})
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"document", doc.ID, doc.OriginalName, "Documento subido", nil, doc)
	return c.JSON(http.StatusCreated, doc)
}

// DownloadDocumentHandler streams a stored document
func DownloadDocumentHandler(c echo.Context) error {
	doc, reader, err := services.OpenDocument(c.Request().Context(), db.DB, deps.Storage, c.Param("id"))
	if err != nil {
		return err
	}
	defer reader.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, doc.OriginalName))
	c.Response().Header().Set(echo.HeaderContentType, doc.MimeType)
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response(), reader)
	return err
}

// DeleteDocumentHandler deletes a document and its blob
func DeleteDocumentHandler(c echo.Context) error {
	doc, err := services.DeleteDocument(c.Request().Context(), db.DB, deps.Storage, c.Param("id"))
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionDelete,
		"document", doc.ID, doc.OriginalName, "Documento eliminado", doc, nil)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Documento eliminado"})
}
