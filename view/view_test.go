package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-deliveries/i18n"
)

func requestIn(lang string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return r.WithContext(i18n.WithLang(r.Context(), lang))
}

func TestRenderPartial_LocationList(t *testing.T) {
	rec := httptest.NewRecorder()
	err := RenderPartial(rec, requestIn("en"), "location-list", map[string]any{
		"Placeholder": "",
		"Failed":      false,
		"Rows": []map[string]any{
			{"ID": 7, "Title": "<b>Alpha</b>", "Description": "X", "DeleteLabel": "Delete Alpha", "Selected": true},
		},
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.Contains(t, body, `/locations/7/select`)
	assert.Contains(t, body, "&lt;b&gt;Alpha&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Alpha</b>")
	assert.Contains(t, body, "location-block selected")
	assert.Contains(t, body, ">Delete<")
}

func TestRender_ConfirmPageTranslated(t *testing.T) {
	rec := httptest.NewRecorder()
	err := Render(rec, requestIn("sr"), "confirm.html", map[string]any{
		"Prompt": "Sigurno?",
		"Action": "/deliveries/3/delete",
	})
	require.NoError(t, err)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(body), "<!DOCTYPE html>"))
	assert.Contains(t, body, `<html lang="sr">`)
	assert.Contains(t, body, "Obriši")
	assert.Contains(t, body, `action="/deliveries/3/delete"`)
	assert.Contains(t, body, "/static/app.css?v=")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestRenderStatus_ErrorsAlert(t *testing.T) {
	rec := httptest.NewRecorder()
	err := RenderStatus(rec, requestIn("en"), http.StatusUnprocessableEntity, "confirm.html", map[string]any{
		"Errors": map[string]string{"city": "required"},
		"Error":  "Name and city are required.",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>City</strong>: Required")
	assert.Contains(t, rec.Body.String(), "Name and city are required.")
}

func TestRender_UnknownTemplate(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.Error(t, Render(rec, requestIn("en"), "missing.html", nil))
}

func TestStatic(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	Static().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "debounce")
}

func TestResolveAsset(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/x.js", resolveAsset("https://cdn.example.com/x.js"))
	assert.Equal(t, "/static/nope.css", resolveAsset("nope.css"))
	v := resolveAsset("app.js")
	assert.True(t, strings.HasPrefix(v, "/static/app.js?v="))
	assert.Equal(t, v, resolveAsset("app.js"))
}
