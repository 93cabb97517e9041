package apiserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lapor-chat/internal/config"
	"lapor-chat/internal/imtypes"
	"lapor-chat/internal/middleware"
	imredis "lapor-chat/internal/redis"
	"lapor-chat/internal/services"
	"lapor-chat/internal/storage"
)

var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00,
}

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	log := zap.NewNop().Sugar()
	ctx := context.Background()

	db, err := storage.InitDB(config.DatabaseConfig{
		Type:     "sqlite",
		Path:     filepath.Join(t.TempDir(), "api.db"),
		LogLevel: "silent",
	}, log)
	require.NoError(t, err)
	require.NoError(t, storage.AutoMigrateTables(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	blacklist := imredis.NewRedisTokenBlacklist(rdb)
	ownership := imredis.NewRedisUploadOwnership(rdb, time.Hour)

	storageCfg := config.StorageConfig{Type: "local", LocalPath: t.TempDir(), KeyPrefix: "uploads/", MaxFileSizeMB: 1}
	blobs, err := storage.NewStorageService(ctx, storageCfg, "http://example.test", log)
	require.NoError(t, err)

	authCfg := config.AuthConfig{JWTSecretKey: "secret", JWTExpiry: time.Hour, Issuer: "test"}
	userRepo := storage.NewGormUserRepository(db)
	authSvc := services.NewAuthService(userRepo, authCfg)
	userSvc := services.NewUserService(userRepo)
	msgSvc := services.NewMessageService(storage.NewGormMessageRepository(db), nil, config.ChatConfig{DeletePolicy: config.DeletePolicyAny}, log)
	pushSvc := services.NewPushTokenService(storage.NewGormPushTokenRepository(db))

	router := Router{
		Auth:      NewAuthHandler(authSvc, userSvc, blacklist, log),
		Messages:  NewMessageHandler(msgSvc, log),
		Uploads:   NewUploadHandler(blobs, ownership, storageCfg, log),
		PushToken: NewPushTokenHandler(pushSvc, log),
		Blobs:     NewBlobHandler(blobs, log),
		AuthMW:    middleware.AuthMiddleware(authCfg.JWTSecretKey, blacklist),
	}.Build()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiClient{t: t, srv: srv}
}

func (c *apiClient) do(method, path, token string, body io.Reader, contentType string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.srv.URL+path, body)
	require.NoError(c.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c *apiClient) json(method, path, token string, v interface{}) *http.Response {
	c.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(c.t, err)
		body = bytes.NewReader(b)
	}
	return c.do(method, path, token, body, "application/json")
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (c *apiClient) anonymous() string {
	resp := c.json(http.MethodPost, "/auth/anonymous", "", nil)
	require.Equal(c.t, http.StatusCreated, resp.StatusCode)
	return decode[services.Session](c.t, resp).Token
}

func (c *apiClient) upload(token, name string, data []byte) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(c.t, err)
	_, err = fw.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())
	return c.do(http.MethodPost, "/api/v1/uploads", token, &buf, mw.FormDataContentType())
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	require.Equal(t, http.StatusOK, api.json(http.MethodGet, "/healthz", "", nil).StatusCode)
}

func TestAuthRoutes(t *testing.T) {
	api := newTestAPI(t)

	t.Run("register requires both fields", func(t *testing.T) {
		resp := api.json(http.MethodPost, "/auth/register", "", CredentialsRequest{Email: "a@b.co"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "Harap isi email dan kata sandi", decode[ErrorResponse](t, resp).Error)
	})

	t.Run("register, duplicate, login", func(t *testing.T) {
		creds := CredentialsRequest{Email: "sari@example.com", Password: "rahasia"}
		resp := api.json(http.MethodPost, "/auth/register", "", creds)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		sess := decode[services.Session](t, resp)
		require.NotEmpty(t, sess.Token)
		require.Empty(t, sess.User.PasswordHash)

		require.Equal(t, http.StatusConflict, api.json(http.MethodPost, "/auth/register", "", creds).StatusCode)
		require.Equal(t, http.StatusOK, api.json(http.MethodPost, "/auth/login", "", creds).StatusCode)

		creds.Password = "salah123"
		require.Equal(t, http.StatusUnauthorized, api.json(http.MethodPost, "/auth/login", "", creds).StatusCode)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		token := api.anonymous()
		require.Equal(t, http.StatusOK, api.json(http.MethodGet, "/api/v1/users/me", token, nil).StatusCode)
		require.Equal(t, http.StatusOK, api.json(http.MethodPost, "/api/v1/auth/logout", token, nil).StatusCode)
		require.Equal(t, http.StatusUnauthorized, api.json(http.MethodGet, "/api/v1/users/me", token, nil).StatusCode)
	})
}

func TestMessageRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.anonymous()

	require.Equal(t, http.StatusUnauthorized, api.json(http.MethodGet, "/api/v1/messages", "", nil).StatusCode)

	resp := api.json(http.MethodPost, "/api/v1/messages", token, imtypes.AppendMessageInput{Text: "   "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.json(http.MethodPost, "/api/v1/messages", token, imtypes.AppendMessageInput{Text: "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	hello := decode[imtypes.Message](t, resp)
	require.NotNil(t, hello.CreatedAt)

	resp = api.json(http.MethodPost, "/api/v1/messages", token, imtypes.AppendMessageInput{
		Type:     imtypes.LocationMessageType,
		Location: &imtypes.Location{Latitude: -6.2, Longitude: 106.8},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	list := decode[MessageListResponse](t, api.json(http.MethodGet, "/api/v1/messages", token, nil))
	require.Len(t, list.Messages, 2)
	require.Equal(t, imtypes.LocationMessageType, list.Messages[0].Type)

	require.Equal(t, http.StatusNoContent, api.json(http.MethodDelete, "/api/v1/messages/"+hello.ID, token, nil).StatusCode)
	require.Equal(t, http.StatusNotFound, api.json(http.MethodDelete, "/api/v1/messages/"+hello.ID, token, nil).StatusCode)

	list = decode[MessageListResponse](t, api.json(http.MethodGet, "/api/v1/messages", token, nil))
	require.Len(t, list.Messages, 1)
}

func TestUploadRoutes(t *testing.T) {
	api := newTestAPI(t)
	owner := api.anonymous()
	other := api.anonymous()

	resp := api.upload(owner, "note.txt", []byte("just some text"))
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp = api.upload(owner, "photo.png", pngBytes)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[imtypes.FileInfo](t, resp)
	require.Equal(t, "image/png", info.MimeType)
	require.Regexp(t, `^uploads/[0-9a-f-]{36}\.png$`, info.Key)
	require.Equal(t, "http://example.test/blobs/"+info.Key, info.URL)

	blob := api.do(http.MethodGet, "/blobs/"+info.Key, "", nil, "")
	require.Equal(t, http.StatusOK, blob.StatusCode)
	got, err := io.ReadAll(blob.Body)
	require.NoError(t, err)
	require.Equal(t, pngBytes, got)

	require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/blobs/uploads/", "", nil, "").StatusCode)

	require.Equal(t, http.StatusForbidden, api.json(http.MethodDelete, "/api/v1/uploads/"+info.Key, other, nil).StatusCode)
	require.Equal(t, http.StatusNoContent, api.json(http.MethodDelete, "/api/v1/uploads/"+info.Key, owner, nil).StatusCode)
	require.Equal(t, http.StatusForbidden, api.json(http.MethodDelete, "/api/v1/uploads/"+info.Key, owner, nil).StatusCode)
	require.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/blobs/"+info.Key, "", nil, "").StatusCode)
}

func TestPushTokenRoute(t *testing.T) {
	api := newTestAPI(t)
	token := api.anonymous()

	require.Equal(t, http.StatusBadRequest, api.json(http.MethodPut, "/api/v1/push-token", token, PushTokenRequest{}).StatusCode)
	require.Equal(t, http.StatusNoContent, api.json(http.MethodPut, "/api/v1/push-token", token, PushTokenRequest{Token: "ExponentPushToken[x]"}).StatusCode)
}
