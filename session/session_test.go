package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestMiddleware_IssuesAndReusesSession(t *testing.T) {
	m := NewManager("secret", "sid", false, time.Hour)
	var seen []string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IDFromContext(r.Context())
		require.True(t, ok)
		seen = append(seen, id)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	c := cookieFrom(t, rec)
	assert.Equal(t, "sid", c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 3600, c.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])
	_, err := uuid.Parse(seen[0])
	assert.NoError(t, err)
}

func TestParse_RejectsTampering(t *testing.T) {
	m := NewManager("secret", "sid", false, time.Hour)
	other := NewManager("other", "sid", false, time.Hour)
	id := uuid.NewString()

	rec := httptest.NewRecorder()
	other.Set(rec, id)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookieFrom(t, rec))
	_, ok := m.Parse(req)
	assert.False(t, ok, "signed with another secret")

	for _, value := range []string{"", id, "not-a-uuid." + m.sign("not-a-uuid"), id + ".bogus"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: value})
		_, ok := m.Parse(req)
		assert.False(t, ok, value)
	}

	rec = httptest.NewRecorder()
	m.Set(rec, id)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookieFrom(t, rec))
	got, ok := m.Parse(req)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
