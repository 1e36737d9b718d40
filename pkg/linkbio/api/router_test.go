package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"github.com/tendant/simple-linkbio/pkg/linkbio/auth"
	mediamemory "github.com/tendant/simple-linkbio/pkg/linkbio/media/memory"
	"github.com/tendant/simple-linkbio/pkg/linkbio/repo/memory"
)

const testPassword = "correct horse battery"

type testEnv struct {
	router   chi.Router
	service  linkbio.Service
	sessions *auth.Sessions
	owner    uuid.UUID
}

// setupRouterTest builds the full router on the memory repository with a
// published owner and password login for the "admin" subject.
func setupRouterTest(t *testing.T) *testEnv {
	t.Helper()
	owner, err := uuid.NewV7()
	require.NoError(t, err)

	media := mediamemory.New("/media/")
	svc, err := linkbio.New(
		linkbio.WithRepository(memory.New()),
		linkbio.WithMediaStore(media),
		linkbio.WithPublishedOwner(owner),
		linkbio.WithAdminSubject("admin"),
	)
	require.NoError(t, err)

	sessions, err := auth.NewSessions("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	password, err := auth.NewPasswordLogin("admin", "Site Owner", hash)
	require.NoError(t, err)

	router, err := NewRouter(RouterConfig{
		Service:               svc,
		Sessions:              sessions,
		Password:              password,
		Media:                 media,
		PublicWritesPerMinute: 1000,
	})
	require.NoError(t, err)

	return &testEnv{router: router, service: svc, sessions: sessions, owner: owner}
}

func (e *testEnv) token(t *testing.T, owner uuid.UUID) string {
	t.Helper()
	token, _, err := e.sessions.Issue(owner)
	require.NoError(t, err)
	return token
}

// do sends a JSON request; token may be empty for anonymous calls
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestNewRouter_RequiresDependencies(t *testing.T) {
	_, err := NewRouter(RouterConfig{})
	assert.Error(t, err)
}

func TestPublicProfile_NullBeforeFirstWrite(t *testing.T) {
	env := setupRouterTest(t)
	w := env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(bytes.TrimSpace(w.Body.Bytes())))
}

func TestManage_RequiresSession(t *testing.T) {
	env := setupRouterTest(t)
	w := env.do(t, http.MethodGet, "/api/v1/manage/links", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[ErrorBody](t, w)
	assert.Equal(t, "unauthorized", body.Error.Code)
}

func TestManage_LinkLifecycleAndPublicView(t *testing.T) {
	env := setupRouterTest(t)
	token := env.token(t, env.owner)

	w := env.do(t, http.MethodPost, "/api/v1/manage/links", token, map[string]interface{}{
		"title": "Blog", "url": "https://blog.example.com", "sortOrder": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	blog := decode[linkbio.Link](t, w)
	assert.True(t, blog.IsActive)

	w = env.do(t, http.MethodPost, "/api/v1/manage/links", token, map[string]interface{}{
		"title": "Shop", "url": "https://shop.example.com", "isPriority": true, "sortOrder": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	shop := decode[linkbio.Link](t, w)

	w = env.do(t, http.MethodPost, "/api/v1/manage/links", token, map[string]interface{}{
		"title": "Draft", "url": "https://draft.example.com", "isActive": false,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/links", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	public := decode[[]linkbio.Link](t, w)
	require.Len(t, public, 2)
	assert.Equal(t, shop.ID, public[0].ID, "priority links come first")
	assert.Equal(t, blog.ID, public[1].ID)

	w = env.do(t, http.MethodGet, "/api/v1/manage/links", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]linkbio.Link](t, w), 3)

	w = env.do(t, http.MethodPatch, "/api/v1/manage/links/"+blog.ID.String(), token, map[string]interface{}{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[linkbio.Link](t, w).IsActive)

	w = env.do(t, http.MethodDelete, "/api/v1/manage/links/"+shop.ID.String(), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/links", "", nil)
	assert.Empty(t, decode[[]linkbio.Link](t, w))

	w = env.do(t, http.MethodDelete, "/api/v1/manage/links/"+shop.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestManage_ErrorMapping(t *testing.T) {
	env := setupRouterTest(t)
	token := env.token(t, env.owner)

	w := env.do(t, http.MethodPost, "/api/v1/manage/links", token, map[string]interface{}{
		"title": "Bad", "url": "javascript:alert(1)",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[ErrorBody](t, w)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, "url", body.Error.Field)

	w = env.do(t, http.MethodPost, "/api/v1/manage/links", token, map[string]interface{}{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, "/api/v1/manage/links/not-a-uuid", token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/manage/links/stats?limit=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManage_ForeignOwnerCannotMutate(t *testing.T) {
	env := setupRouterTest(t)
	w := env.do(t, http.MethodPost, "/api/v1/manage/products", env.token(t, env.owner), map[string]interface{}{
		"name": "Lens", "imageUrl": "https://img.example.com/lens.png", "affiliateUrl": "https://aff.example.com/lens",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[linkbio.Product](t, w)

	intruder := env.token(t, uuid.New())
	w = env.do(t, http.MethodPatch, "/api/v1/manage/products/"+product.ID.String(), intruder, map[string]interface{}{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/manage/products/"+product.ID.String(), intruder, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/products", "", nil)
	products := decode[[]linkbio.Product](t, w)
	require.Len(t, products, 1)
	assert.Equal(t, "Lens", products[0].Name)
}

func TestProfile_UpdateAndPublicRead(t *testing.T) {
	env := setupRouterTest(t)
	token := env.token(t, env.owner)

	w := env.do(t, http.MethodPut, "/api/v1/manage/profile", token, map[string]interface{}{
		"displayName": "Dana", "bio": "Photographer",
		"socialLinks": map[string]string{"youtube": "https://youtube.com/@dana"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/profile", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[linkbio.Profile](t, w)
	assert.Equal(t, "Dana", profile.DisplayName)
	require.NotNil(t, profile.Bio)
	assert.Equal(t, "https://youtube.com/@dana", profile.SocialLinks["youtube"])
}

func TestCarousel_PublicHidesInactive(t *testing.T) {
	env := setupRouterTest(t)
	token := env.token(t, env.owner)

	for i, active := range []bool{true, false, true} {
		w := env.do(t, http.MethodPost, "/api/v1/manage/carousel", token, map[string]interface{}{
			"imageUrl": fmt.Sprintf("https://img.example.com/%d.png", i), "sortOrder": 3 - i, "isActive": active,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.do(t, http.MethodGet, "/api/v1/carousel", "", nil)
	images := decode[[]linkbio.CarouselImage](t, w)
	require.Len(t, images, 2)
	assert.Equal(t, "https://img.example.com/2.png", images[0].ImageURL)
	assert.Equal(t, "https://img.example.com/0.png", images[1].ImageURL)
}

func TestNewsletter(t *testing.T) {
	env := setupRouterTest(t)

	w := env.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", "", map[string]string{"email": " Fan@Example.com "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	subscriber := decode[linkbio.Subscriber](t, w)
	assert.Equal(t, "fan@example.com", subscriber.Email)

	w = env.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", "", map[string]string{"email": "fan@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate_email", decode[ErrorBody](t, w).Error.Code)

	w = env.do(t, http.MethodPost, "/api/v1/newsletter/subscribe", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := env.token(t, env.owner)
	w = env.do(t, http.MethodPatch, "/api/v1/manage/subscribers/"+subscriber.ID.String(), token, map[string]bool{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/manage/subscribers?active=true", token, nil)
	assert.Empty(t, decode[[]linkbio.Subscriber](t, w))
	w = env.do(t, http.MethodGet, "/api/v1/manage/subscribers", token, nil)
	assert.Len(t, decode[[]linkbio.Subscriber](t, w), 1)

	w = env.do(t, http.MethodGet, "/api/v1/manage/subscribers", env.token(t, uuid.New()), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClicksAndRedirect(t *testing.T) {
	env := setupRouterTest(t)
	token := env.token(t, env.owner)

	w := env.do(t, http.MethodPost, "/api/v1/manage/links", token, map[string]interface{}{
		"title": "Shop", "url": "https://shop.example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	link := decode[linkbio.Link](t, w)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/links/"+link.ID.String()+"/clicks", nil)
	req.RemoteAddr = "198.51.100.9:40000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	click := decode[linkbio.LinkClick](t, rec)
	require.NotNil(t, click.IPAddress)
	assert.Equal(t, "198.51.100.9", *click.IPAddress, "forwarding headers are untrusted by default")
	require.NotNil(t, click.UserAgent)
	assert.Equal(t, "test-agent", *click.UserAgent)

	w = env.do(t, http.MethodPost, "/api/v1/links/"+uuid.NewString()+"/clicks", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/l/"+link.ID.String(), "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Location"))

	assert.Eventually(t, func() bool {
		stats, err := env.service.LinkStats(context.Background(), env.owner, 0)
		return err == nil && stats.TotalClicks == 2
	}, 2*time.Second, 10*time.Millisecond)

	w = env.do(t, http.MethodGet, "/api/v1/manage/links/stats?limit=1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[linkbio.ClickStats](t, w)
	assert.Equal(t, int64(2), stats.TotalClicks)
	require.Len(t, stats.Links, 1)
	assert.Equal(t, link.ID, stats.Links[0].LinkID)

	w = env.do(t, http.MethodGet, "/l/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrackClick_CallerSuppliedMetadata(t *testing.T) {
	env := setupRouterTest(t)
	token := env.token(t, env.owner)

	w := env.do(t, http.MethodPost, "/api/v1/manage/links", token, map[string]interface{}{
		"title": "Shop", "url": "https://shop.example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	link := decode[linkbio.Link](t, w)

	w = env.do(t, http.MethodPost, "/api/v1/links/"+link.ID.String()+"/clicks", "", map[string]string{
		"ipAddress": "198.51.100.4",
		"userAgent": "ua",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	click := decode[linkbio.LinkClick](t, w)
	require.NotNil(t, click.IPAddress)
	assert.Equal(t, "198.51.100.4", *click.IPAddress)
	require.NotNil(t, click.UserAgent)
	assert.Equal(t, "ua", *click.UserAgent)

	stats, err := env.service.LinkStats(context.Background(), env.owner, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalClicks)
}

func TestTrackClick_InactiveLinkMatchesRedirect(t *testing.T) {
	env := setupRouterTest(t)
	token := env.token(t, env.owner)

	w := env.do(t, http.MethodPost, "/api/v1/manage/links", token, map[string]interface{}{
		"title": "Hidden", "url": "https://hidden.example.com", "isActive": false,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	link := decode[linkbio.Link](t, w)

	w = env.do(t, http.MethodGet, "/l/"+link.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodPost, "/api/v1/links/"+link.ID.String()+"/clicks", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	stats, err := env.service.LinkStats(context.Background(), env.owner, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalClicks)
}

func TestRateLimit_IgnoresForwardedForRotation(t *testing.T) {
	env := setupRouterTest(t)
	router, err := NewRouter(RouterConfig{
		Service:               env.service,
		Sessions:              env.sessions,
		PublicWritesPerMinute: 1,
	})
	require.NoError(t, err)

	subscribe := func(email, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/newsletter/subscribe", bytes.NewBufferString(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwarded)
		req.RemoteAddr = "198.51.100.20:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusCreated, subscribe("a@example.com", "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, subscribe("b@example.com", "203.0.113.2"))
}

func TestRouter_TrustProxy(t *testing.T) {
	env := setupRouterTest(t)
	router, err := NewRouter(RouterConfig{
		Service:    env.service,
		Sessions:   env.sessions,
		TrustProxy: true,
	})
	require.NoError(t, err)

	link, err := env.service.CreateLink(context.Background(), env.owner, linkbio.CreateLinkRequest{
		Title: "Shop", URL: "https://shop.example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/links/"+link.ID.String()+"/clicks", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	click := decode[linkbio.LinkClick](t, w)
	require.NotNil(t, click.IPAddress)
	assert.Equal(t, "203.0.113.7", *click.IPAddress)
}

func TestAuth_PasswordLoginAndMe(t *testing.T) {
	env := setupRouterTest(t)

	w := env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(bytes.TrimSpace(w.Body.Bytes())))

	w = env.do(t, http.MethodPost, "/auth/password", "", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/auth/password", "", map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode[SessionResponse](t, w)
	assert.Equal(t, env.owner, session.Owner.ID, "admin subject claims the published owner")
	assert.Equal(t, linkbio.RoleOwner, session.Owner.Role)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[linkbio.Owner](t, rec)
	assert.Equal(t, env.owner, me.ID)
	require.NotNil(t, me.Name)
	assert.Equal(t, "Site Owner", *me.Name)

	w = env.do(t, http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
}

func TestAuth_OAuthDisabled(t *testing.T) {
	env := setupRouterTest(t)
	w := env.do(t, http.MethodGet, "/auth/login", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMedia_UploadAndServe(t *testing.T) {
	env := setupRouterTest(t)
	token := env.token(t, env.owner)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

	upload := func(contentType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="avatar.png"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(png)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/manage/media", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("image/png")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	object := decode[linkbio.MediaObject](t, rec)
	assert.Equal(t, "/media/"+object.Key, object.URL)

	w := env.do(t, http.MethodGet, object.URL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, png, w.Body.Bytes())

	rec = upload("application/pdf")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	w = env.do(t, http.MethodGet, "/media/missing.png", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/manage/media/"+object.Key, env.token(t, uuid.New()), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/manage/media/"+object.Key, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = env.do(t, http.MethodGet, object.URL, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/manage/media/"+object.Key, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"))

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow("a"))
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"https://bio.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/links", nil)
	req.Header.Set("Origin", "https://bio.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://bio.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/links", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{&linkbio.ValidationError{Field: "title", Message: "is required"}, http.StatusBadRequest, "validation_error"},
		{linkbio.ErrDuplicateEmail, http.StatusConflict, "duplicate_email"},
		{linkbio.ErrForbidden, http.StatusForbidden, "forbidden"},
		{linkbio.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{&linkbio.OpError{Entity: "link", Op: "get", Err: linkbio.ErrLinkNotFound}, http.StatusNotFound, "not_found"},
		{fmt.Errorf("wrapped: %w", linkbio.ErrStoreUnavailable), http.StatusServiceUnavailable, "unavailable"},
		{linkbio.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5555"
	assert.Equal(t, "198.51.100.4", clientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.1 , 10.0.0.2")
	assert.Equal(t, "198.51.100.4", clientIP(req))
}

func TestProducts_Lifecycle(t *testing.T) {
	env := setupRouterTest(t)
	token := env.token(t, env.owner)

	w := env.do(t, http.MethodPost, "/api/v1/manage/products", token, map[string]interface{}{
		"name":         "Camera strap",
		"imageUrl":     "https://img.example.com/strap.png",
		"affiliateUrl": "https://shop.example.com/strap",
		"price":        "$24",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[linkbio.Product](t, w)
	require.NotNil(t, product.Price)
	assert.Equal(t, "$24", *product.Price)
	assert.True(t, product.IsActive)

	w = env.do(t, http.MethodPatch, "/api/v1/manage/products/"+product.ID.String(), token, map[string]interface{}{"isActive": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Empty(t, decode[[]linkbio.Product](t, w))

	w = env.do(t, http.MethodGet, "/api/v1/manage/products", token, nil)
	assert.Len(t, decode[[]linkbio.Product](t, w), 1)

	w = env.do(t, http.MethodPost, "/api/v1/manage/products", token, map[string]interface{}{
		"name": "No links", "imageUrl": "not a url", "affiliateUrl": "https://shop.example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/manage/products/"+product.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = env.do(t, http.MethodDelete, "/api/v1/manage/products/"+product.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
