package handlers

import (
	"bytes"
	"jetlex_app_go/models"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseLifecycle(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.createUser(t, models.RoleAdmin)
	_, memberToken := s.createUser(t, models.RoleColaboradorA)
	client := s.createClient(t, memberToken)

	rec := s.do(t, http.MethodPost, "/api/expedientes", memberToken, map[string]interface{}{
		"tipoTramite": models.ProcedureCertificacionEmpresa,
		"clienteId":   client["id"],
		"urgencia":    models.UrgencyAlta,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var kase models.Case
	decode(t, rec, &kase)
	assert.NotEmpty(t, kase.Number)
	assert.Equal(t, models.CaseStatusBorrador, kase.Status)

	t.Run("StartPhases", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/fases/expediente/"+kase.ID+"/iniciar", memberToken, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp struct {
			Phases []models.Phase `json:"fases"`
		}
		decode(t, rec, &resp)
		assert.Len(t, resp.Phases, 5)

		// A second start is rejected and leaves the set untouched
		rec = s.do(t, http.MethodPost, "/api/fases/expediente/"+kase.ID+"/iniciar", memberToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodGet, "/api/fases/expediente/"+kase.ID, memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &resp)
		require.Len(t, resp.Phases, 5)

		phase := resp.Phases[0]
		rec = s.do(t, http.MethodPut, "/api/fases/"+phase.ID, memberToken, map[string]interface{}{
			"documentosRecibidos": phase.RequiredDocs,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated models.Phase
		decode(t, rec, &updated)
		assert.Equal(t, 100, updated.Progress)
	})

	t.Run("GetAndList", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/expedientes/"+kase.ID, memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var detail models.Case
		decode(t, rec, &detail)
		assert.Equal(t, models.CaseStatusEnProceso, detail.Status)

		rec = s.do(t, http.MethodGet, "/api/expedientes?urgencia=alta", memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list map[string]interface{}
		decode(t, rec, &list)
		assert.EqualValues(t, 1, list["total"])
		assert.EqualValues(t, 1, list["pages"])
		assert.EqualValues(t, 1, list["currentPage"])

		rec = s.do(t, http.MethodGet, "/api/expedientes/stats/dashboard", memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var stats map[string]interface{}
		decode(t, rec, &stats)
		assert.EqualValues(t, 1, stats["totalExpedientes"])
		assert.EqualValues(t, 1, stats["urgentes"])
		assert.Contains(t, stats, "proximos_vencer")
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/expedientes/does-not-exist", memberToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Export", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/expedientes/export", memberToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	})

	t.Run("OnlyAdminsDelete", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/api/expedientes/"+kase.ID, memberToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, http.MethodDelete, "/api/expedientes/"+kase.ID, adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, "/api/expedientes/"+kase.ID, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCaseValidation(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, models.RoleColaboradorA)

	rec := s.do(t, http.MethodPost, "/api/expedientes", token, map[string]interface{}{
		"tipoTramite": "vuelo_espacial",
		"clienteId":   "x",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "tipoTramite", body["field"])
}

func TestCollaboratorBIsReadOnlyForCases(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, models.RoleColaboradorB)

	rec := s.do(t, http.MethodGet, "/api/expedientes", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/clientes", token, map[string]interface{}{"nombre": "X", "tipo": models.ClientTypeEmpresa})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClientDeactivate(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, models.RoleColaboradorA)
	client := s.createClient(t, token)
	id := client["id"].(string)

	rec := s.do(t, http.MethodPut, "/api/clientes/"+id+"/desactivar", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/clientes?activo=false", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list map[string]interface{}
	decode(t, rec, &list)
	assert.EqualValues(t, 1, list["total"])

	rec = s.do(t, http.MethodGet, "/api/clientes/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"expedientes"`)
}

func TestDocumentUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, models.RoleColaboradorA)
	client := s.createClient(t, token)

	rec := s.do(t, http.MethodPost, "/api/expedientes", token, map[string]interface{}{
		"tipoTramite": models.ProcedureMatriculacion,
		"clienteId":   client["id"],
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var kase models.Case
	decode(t, rec, &kase)

	upload := func(name string, content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("archivo", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.WriteField("categoria", models.DocumentCategorySeguro))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/expedientes/"+kase.ID+"/documentos", &buf)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		s.e.ServeHTTP(rec, req)
		return rec
	}

	pdf := []byte("%PDF-1.4\n% poliza de seguro\n")
	rec = upload("poliza.pdf", pdf)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var doc models.Document
	decode(t, rec, &doc)
	assert.Equal(t, "poliza.pdf", doc.OriginalName)

	rec = upload("script.exe", []byte("MZ"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/documentos/"+doc.ID+"/download", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pdf, rec.Body.Bytes())

	rec = s.do(t, http.MethodDelete, "/api/documentos/"+doc.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/documentos/"+doc.ID+"/download", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGlobalSearch(t *testing.T) {
	s := newTestServer(t)
	_, token := s.createUser(t, models.RoleColaboradorB)
	_, writer := s.createUser(t, models.RoleColaboradorA)
	client := s.createClient(t, writer)

	rec := s.do(t, http.MethodGet, "/api/search?q="+url.QueryEscape(client["nombre"].(string)), token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Results []map[string]interface{} `json:"results"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "cliente", resp.Results[0]["type"])

	rec = s.do(t, http.MethodGet, "/api/search?q=x", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Empty(t, resp.Results)

	rec = s.do(t, http.MethodGet, "/api/search?q=cliente", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
