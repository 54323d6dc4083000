package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/feedline/internal/domain"
	"github.com/vedran77/feedline/internal/repository/memory"
	"github.com/vedran77/feedline/internal/seed"
	"github.com/vedran77/feedline/internal/service"
	"github.com/vedran77/feedline/internal/upload"
	"golang.org/x/crypto/bcrypt"
)

const maxUpload = 3 << 20

type app struct {
	t    *testing.T
	h    http.Handler
	auth *service.AuthService
}

func newApp(t *testing.T) *app {
	t.Helper()
	users := memory.NewUserRepo()
	auth := service.NewAuthService(users, "router-test-secret", time.Hour)
	auth.SetHashCost(bcrypt.MinCost)

	dir := t.TempDir()
	posts := service.NewPostService(memory.NewPostRepo(), users, upload.NewImageStore(dir, maxUpload))
	require.NoError(t, seed.Apply(context.Background(), auth, posts, "adonay-pw", "well-pw"))

	h := New(Deps{
		AuthService:    auth,
		PostService:    posts,
		UploadDir:      dir,
		MaxUploadBytes: maxUpload,
		CORSOrigins:    []string{"*"},
	})
	return &app{t: t, h: h, auth: auth}
}

func (a *app) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func (a *app) postJSON(path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	data, err := json.Marshal(body)
	require.NoError(a.t, err)
	return a.do(http.MethodPost, path, token, bytes.NewReader(data), "application/json")
}

func (a *app) login(name, password string) string {
	a.t.Helper()
	rec := a.postJSON("/login", "", map[string]string{"name": name, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct{ Token string }
	decode(a.t, rec, &res)
	return res.Token
}

func (a *app) registerAndLogin(name, password string) string {
	a.t.Helper()
	rec := a.postJSON("/register", "", map[string]string{"name": name, "password": password, "avatar": name + ".png"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return a.login(name, password)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string
		Error   struct{ Code string }
	}
	decode(t, rec, &body)
	assert.NotEmpty(t, body.Message)
	return body.Error.Code
}

type part struct {
	field, filename, contentType string
	data                         []byte
}

func multipartBody(t *testing.T, text string, parts ...part) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if text != "" {
		require.NoError(t, mw.WriteField("textContent", text))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		h.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func imageBytes(magic string, size int) []byte {
	data := make([]byte, size)
	copy(data, magic)
	return data
}

func TestRegisterLoginLikeFlow(t *testing.T) {
	a := newApp(t)

	token := a.registerAndLogin("alice", "pw1")

	rec := a.postJSON("/register", "", map[string]string{"name": "alice", "password": "other", "avatar": "x.png"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NAME_TAKEN", errorCode(t, rec))

	rec = a.do(http.MethodPost, "/like/1", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var like struct {
		Message string
		Likes   int
		LikedBy []int64
	}
	decode(t, rec, &like)
	assert.Equal(t, "Like added", like.Message)
	assert.Equal(t, 11, like.Likes)
	assert.Equal(t, []int64{3}, like.LikedBy)

	rec = a.do(http.MethodPost, "/like/1", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &like)
	assert.Equal(t, "Like removed", like.Message)
	assert.Equal(t, 10, like.Likes)
	assert.Empty(t, like.LikedBy)
}

func TestLoginFailures(t *testing.T) {
	a := newApp(t)

	rec := a.postJSON("/login", "", map[string]string{"name": "adonay", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = a.postJSON("/login", "", map[string]string{"name": "ghost", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPost, "/login", "", strings.NewReader("{"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, rec))

	rec = a.postJSON("/login", "", map[string]string{"name": "", "password": ""})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, rec))

	rec = a.postJSON("/login", "", map[string]string{"name": "adonay", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
}

func TestRegisterTakenNameBeatsFieldErrors(t *testing.T) {
	a := newApp(t)
	a.registerAndLogin("alice", "pw1")

	rec := a.postJSON("/register", "", map[string]string{"name": "alice", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NAME_TAKEN", errorCode(t, rec))

	rec = a.postJSON("/register", "", map[string]string{"name": "bob", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = a.postJSON("/register", "", map[string]string{"name": "bob smith", "password": "pw"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestSeedUsersCanLogIn(t *testing.T) {
	a := newApp(t)
	rec := a.postJSON("/login", "", map[string]string{"name": "well", "password": "well-pw"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct{ Message, Token, Avatar string }
	decode(t, rec, &res)
	assert.Equal(t, "useravatar2.png", res.Avatar)
	assert.NotEmpty(t, res.Token)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	a := newApp(t)

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/user"},
		{http.MethodGet, "/posts"},
		{http.MethodGet, "/posts/1"},
		{http.MethodPost, "/posts"},
		{http.MethodPost, "/like/1"},
	} {
		rec := a.do(r.method, r.path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)

		rec = a.do(r.method, r.path, "garbage", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	a := newApp(t)
	a.auth.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token := a.login("adonay", "adonay-pw")
	a.auth.SetClock(time.Now)

	rec := a.do(http.MethodGet, "/posts", token, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileAndUsers(t *testing.T) {
	a := newApp(t)
	token := a.registerAndLogin("alice", "pw1")

	rec := a.do(http.MethodGet, "/user", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.User
	decode(t, rec, &me)
	assert.Equal(t, int64(3), me.ID)
	assert.Equal(t, "alice", me.Name)
	assert.Equal(t, "alice.png", me.Avatar)

	rec = a.do(http.MethodGet, "/users", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
	var users []domain.User
	decode(t, rec, &users)
	assert.Len(t, users, 3)
}

func TestFeedReads(t *testing.T) {
	a := newApp(t)
	token := a.login("adonay", "adonay-pw")
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/like/2", token, nil, "").Code)

	rec := a.do(http.MethodGet, "/posts", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []domain.PostView
	decode(t, rec, &feed)
	require.Len(t, feed, 4)
	assert.Equal(t, int64(4), feed[0].ID)
	assert.Equal(t, int64(2), feed[2].ID)
	assert.True(t, feed[2].LikedByUser)
	assert.False(t, feed[0].LikedByUser)

	rec = a.do(http.MethodGet, "/posts/2", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var one domain.PostView
	decode(t, rec, &one)
	assert.Equal(t, "imagem1.png", one.ImageContent)
	assert.Equal(t, 16, one.Likes)
	assert.True(t, one.LikedByUser)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/posts/abc", token, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/posts/99", token, nil, "").Code)

	rec = a.do(http.MethodGet, "/posts/user/well", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var wells []domain.PostView
	decode(t, rec, &wells)
	require.Len(t, wells, 2)
	assert.Equal(t, "well", wells[0].UserName)

	rec = a.do(http.MethodGet, "/posts/user/adonay", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []domain.PostView
	decode(t, rec, &mine)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].LikedByUser)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/posts/user/nobody", "", nil, "").Code)
}

func TestLikeBadInput(t *testing.T) {
	a := newApp(t)
	token := a.login("adonay", "adonay-pw")

	rec := a.do(http.MethodPost, "/like/abc", token, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, rec))

	rec = a.do(http.MethodPost, "/like/99", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, path := range []string{"/like/0", "/like/-1"} {
		rec = a.do(http.MethodPost, path, token, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/posts/0", token, nil, "").Code)
}

func TestCreatePost(t *testing.T) {
	a := newApp(t)
	token := a.registerAndLogin("alice", "pw1")

	t.Run("text only", func(t *testing.T) {
		body, ct := multipartBody(t, "hello feed")
		rec := a.do(http.MethodPost, "/posts", token, body, ct)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res struct {
			Message string
			Post    domain.Post
		}
		decode(t, rec, &res)
		assert.Equal(t, int64(5), res.Post.ID)
		assert.Equal(t, "alice", res.Post.UserName)
		assert.Equal(t, "alice.png", res.Post.UserAvatar)
		assert.Equal(t, "hello feed", res.Post.TextContent)
		assert.Equal(t, time.Now().Format(domain.DateLayout), res.Post.Date)

		feed := a.do(http.MethodGet, "/posts", token, nil, "")
		var posts []domain.PostView
		decode(t, feed, &posts)
		assert.Equal(t, res.Post.ID, posts[0].ID)
	})

	t.Run("json text", func(t *testing.T) {
		rec := a.postJSON("/posts", token, map[string]string{"textContent": "from json"})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("empty", func(t *testing.T) {
		body, ct := multipartBody(t, "")
		rec := a.do(http.MethodPost, "/posts", token, body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_CONTENT", errorCode(t, rec))
	})

	t.Run("png accepted and served", func(t *testing.T) {
		data := imageBytes("\x89PNG\r\n\x1a\n", 1<<20)
		body, ct := multipartBody(t, "", part{"image", "pic.png", "image/png", data})
		rec := a.do(http.MethodPost, "/posts", token, body, ct)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res struct{ Post domain.Post }
		decode(t, rec, &res)
		assert.Regexp(t, `^\d+-[0-9a-f]{8}-pic\.png$`, res.Post.ImageContent)
		assert.Empty(t, res.Post.TextContent)

		served := a.do(http.MethodGet, UploadsPrefix+res.Post.ImageContent, "", nil, "")
		require.Equal(t, http.StatusOK, served.Code)
		assert.Equal(t, data, served.Body.Bytes())
	})

	t.Run("jpeg too large", func(t *testing.T) {
		body, ct := multipartBody(t, "big", part{"image", "big.jpg", "image/jpeg", imageBytes("\xff\xd8\xff\xe0", 4<<20)})
		rec := a.do(http.MethodPost, "/posts", token, body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "FILE_TOO_LARGE", errorCode(t, rec))
	})

	t.Run("gif rejected", func(t *testing.T) {
		body, ct := multipartBody(t, "anim", part{"image", "anim.gif", "image/gif", imageBytes("GIF89a", 1024)})
		rec := a.do(http.MethodPost, "/posts", token, body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_FILE_TYPE", errorCode(t, rec))
	})

	t.Run("two images rejected", func(t *testing.T) {
		png := part{"image", "a.png", "image/png", imageBytes("\x89PNG\r\n\x1a\n", 64)}
		body, ct := multipartBody(t, "two", png, png)
		rec := a.do(http.MethodPost, "/posts", token, body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "TOO_MANY_FILES", errorCode(t, rec))
	})

	t.Run("file under another field rejected", func(t *testing.T) {
		png := imageBytes("\x89PNG\r\n\x1a\n", 64)
		body, ct := multipartBody(t, "extra",
			part{"image", "a.png", "image/png", png},
			part{"photo", "b.png", "image/png", png},
		)
		rec := a.do(http.MethodPost, "/posts", token, body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "TOO_MANY_FILES", errorCode(t, rec))

		body, ct = multipartBody(t, "only photo", part{"photo", "b.png", "image/png", png})
		rec = a.do(http.MethodPost, "/posts", token, body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "TOO_MANY_FILES", errorCode(t, rec))
	})
}

func TestUploadsHideDirectoryListing(t *testing.T) {
	a := newApp(t)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, UploadsPrefix, "", nil, "").Code)
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
