package handlers

import (
	"jetlex_app_go/db"
	"jetlex_app_go/middleware"
	"jetlex_app_go/models"
	"jetlex_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListClientsHandler lists clients with tipo, activo and search filters
func ListClientsHandler(c echo.Context) error {
	page, limit := pagination(c)
	filters := services.ClientFilters{
		Type:   c.QueryParam("tipo"),
		Active: queryBool(c, "activo"),
		Search: c.QueryParam("search"),
	}

	clients, total, err := services.ListClients(db.DB, filters, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse("clientes", clients, total, page, limit))
}

// GetClientHandler returns a client with its latest cases
func GetClientHandler(c echo.Context) error {
	client, err := services.GetClientByID(db.DB, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// CreateClientHandler creates a client
func CreateClientHandler(c echo.Context) error {
	var input services.ClientInput
	if err := bind(c, &input); err != nil {
		return err
	}

	client, err := services.CreateClient(db.DB, input)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"client", client.ID, client.Name, "Cliente creado", nil, client)
	return c.JSON(http.StatusCreated, client)
}

// UpdateClientHandler edits a client
func UpdateClientHandler(c echo.Context) error {
	var input services.ClientInput
	if err := bind(c, &input); err != nil {
		return err
	}

	client, err := services.UpdateClient(db.DB, c.Param("id"), input)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"client", client.ID, client.Name, "Cliente actualizado", nil, client)
	return c.JSON(http.StatusOK, client)
}

// DeactivateClientHandler marks a client inactive without deleting it
func DeactivateClientHandler(c echo.Context) error {
	client, err := services.DeactivateClient(db.DB, c.Param("id"))
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionUpdate,
		"client", client.ID, client.Name, "Cliente desactivado", nil, nil)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Cliente desactivado",
		"cliente": client,
	})
}

// DeleteClientHandler deletes a client
func DeleteClientHandler(c echo.Context) error {
	client, err := services.DeleteClient(db.DB, c.Param("id"))
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionDelete,
		"client", client.ID, client.Name, "Cliente eliminado", client, nil)
	return c.JSON(http.StatusOK, MessageResponse{Message: "Cliente eliminado"})
}

// ImportClientsHandler bulk loads clients from an uploaded spreadsheet
func ImportClientsHandler(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return services.Validation("file", "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	result, err := services.ImportClientsXLSX(db.DB, src)
	if err != nil {
		return err
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c), models.AuditActionCreate,
		"client", "", file.Filename, "Importación de clientes", nil, result)
	return c.JSON(http.StatusOK, result)
}

// ClientImportTemplateHandler downloads the spreadsheet template for imports
func ClientImportTemplateHandler(c echo.Context) error {
	buf, err := services.GenerateClientImportTemplate()
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="plantilla_clientes.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
