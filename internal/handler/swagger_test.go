package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeOpenAPI(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, ServeOpenAPI(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc OpenAPIDocument
	decode(t, rec, &doc)
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Contains(t, doc.Paths, "/cart/items")
	assert.Contains(t, doc.Paths, "/admin/orders/{id}/status")
	require.Len(t, doc.Servers, 2)
	assert.True(t, strings.HasSuffix(doc.Servers[0].URL, "/api/v1"))
	assert.False(t, strings.Contains(rec.Body.String(), "#/definitions/"))

	schemes, ok := doc.Components["securitySchemes"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sid", schemes["SessionCookie"].(map[string]interface{})["name"])
	assert.Equal(t, "bearer", schemes["BearerAuth"].(map[string]interface{})["scheme"])
	assert.Len(t, doc.Security, 2)
}

func TestServeOpenAPI_RequestBodies(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, ServeOpenAPI(e.NewContext(httptest.NewRequest(http.MethodGet, "/openapi.json", nil), rec)))

	var doc OpenAPIDocument
	decode(t, rec, &doc)

	put := doc.Paths["/cart/items/{id}"].(map[string]interface{})["put"].(map[string]interface{})
	content := put["requestBody"].(map[string]interface{})["content"].(map[string]interface{})
	assert.Contains(t, content, "application/json")
	for _, p := range put["parameters"].([]interface{}) {
		assert.NotEqual(t, "body", p.(map[string]interface{})["in"])
	}

	upload := doc.Paths["/admin/products/{id}/image"].(map[string]interface{})["post"].(map[string]interface{})
	form := upload["requestBody"].(map[string]interface{})["content"].(map[string]interface{})["multipart/form-data"].(map[string]interface{})
	file := form["schema"].(map[string]interface{})["properties"].(map[string]interface{})["file"].(map[string]interface{})
	assert.Equal(t, "binary", file["format"])

	notFound := put["responses"].(map[string]interface{})["404"].(map[string]interface{})
	assert.Contains(t, notFound["content"], "application/problem+json")
	assert.NotContains(t, put, "produces")
}

func TestConvertParameter(t *testing.T) {
	param := map[string]interface{}{
		"name":        "limit",
		"in":          "query",
		"type":        "integer",
		"description": "Page size",
	}

	got := convertParameter(param)

	assert.Equal(t, "limit", got["name"])
	assert.Equal(t, map[string]interface{}{"type": "integer"}, got["schema"])
	assert.NotContains(t, got, "type")
}
