package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"messageboard/pkg/api/auth"
	"messageboard/pkg/api/router"
	"messageboard/pkg/api/utils"
	"messageboard/pkg/board"
	"messageboard/pkg/codec"
	"messageboard/pkg/models"
	"messageboard/pkg/store/db/storedb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

var (
	alice = models.MustIdentity("0x00000000000000000000000000000000000000a1")
	bob   = models.MustIdentity("0x00000000000000000000000000000000000000b2")
)

type fakeBackup struct {
	calls int
}

func (f *fakeBackup) RunNow(ctx context.Context) (models.BackupResult, error) {
	f.calls++
	return models.BackupResult{ID: "run-1", Path: "/tmp/backup-1", Bytes: 42}, nil
}

type testServer struct {
	handler fasthttp.RequestHandler
	backup  *fakeBackup
}

func newTestServer(t *testing.T, sec auth.SecConfig) *testServer {
	t.Helper()
	db, err := storedb.Open("", storedb.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	b, err := board.New(context.Background(), db, board.Config{CharLimit: 20, MaxBatch: 3})
	require.NoError(t, err)

	if sec.RPS == 0 {
		sec.RPS, sec.Burst = 1000, 1000
	}
	gw := auth.NewGateway(sec)
	t.Cleanup(gw.Close)

	fb := &fakeBackup{}
	h := Handler(context.Background(), router.New(), Deps{Board: b, DB: db, Backup: fb}, gw)
	return &testServer{handler: h, backup: fb}
}

func (s *testServer) do(method, path string, body string, headers map[string]string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	for k, v := range headers {
		ctx.Request.Header.Set(k, v)
	}
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	s.handler(ctx)
	return ctx
}

func as(id models.Identity) map[string]string {
	return map[string]string{utils.HeaderIdentity: id.Hex()}
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &out); err != nil {
		t.Fatalf("decode %s: %v", ctx.Response.Body(), err)
	}
	return out
}

func result(t *testing.T, ctx *fasthttp.RequestCtx) any {
	t.Helper()
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	return decode(t, ctx)["result"]
}

func TestBroadcastFlow(t *testing.T) {
	s := newTestServer(t, auth.SecConfig{})

	for _, m := range []string{"M1", "M2", "M3", "M4"} {
		ctx := s.do("POST", "/v1/broadcasts", `{"message":"`+m+`"}`, as(alice))
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
		body := decode(t, ctx)
		assert.Equal(t, true, body["status"])
		assert.Equal(t, true, body["stored"])
	}

	assert.Equal(t, `"M4"`, result(t, s.do("GET", "/v1/broadcasts/0", "", nil)))
	assert.Equal(t, `"M1"`, result(t, s.do("GET", "/v1/broadcasts/3", "", nil)))
	assert.Equal(t, "", result(t, s.do("GET", "/v1/broadcasts/4", "", nil)))

	raw := result(t, s.do("GET", "/v1/broadcasts?limit=1999", "", nil)).(string)
	blob, err := codec.ParseBlob(raw)
	require.NoError(t, err)
	env, err := codec.DecodeEnvelope(blob)
	require.NoError(t, err)
	require.Len(t, env.Records, 3, "clamped to max batch")
	assert.Equal(t, uint64(1), env.Records[0].Seq)
	assert.Equal(t, "M4", env.Records[2].Message)

	assert.Equal(t, float64(20), result(t, s.do("GET", "/v1/char-limit", "", nil)))
}

func TestPostTooLong(t *testing.T) {
	s := newTestServer(t, auth.SecConfig{})
	ctx := s.do("POST", "/v1/broadcasts", `{"message":"`+strings.Repeat("x", 21)+`"}`, as(alice))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var receipt board.Receipt
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &receipt))
	assert.True(t, receipt.Status)
	assert.False(t, receipt.Stored)
	assert.Equal(t, board.Diagnostic(20), receipt.Diagnostic())

	assert.Equal(t, "", result(t, s.do("GET", "/v1/broadcasts/0", "", nil)))
}

func TestWriteValidation(t *testing.T) {
	s := newTestServer(t, auth.SecConfig{})
	cases := []struct {
		name    string
		path    string
		body    string
		headers map[string]string
		status  int
	}{
		{"no identity", "/v1/broadcasts", `{"message":"hi"}`, nil, fasthttp.StatusUnauthorized},
		{"bad identity", "/v1/broadcasts", `{"message":"hi"}`, map[string]string{utils.HeaderIdentity: "bob"}, fasthttp.StatusBadRequest},
		{"empty body", "/v1/broadcasts", "", as(alice), fasthttp.StatusBadRequest},
		{"bad json", "/v1/broadcasts", `{"message":`, as(alice), fasthttp.StatusBadRequest},
		{"missing message", "/v1/broadcasts", `{}`, as(alice), fasthttp.StatusBadRequest},
		{"bad recipient", "/v1/messages", `{"to":"x","message":"hi"}`, as(alice), fasthttp.StatusBadRequest},
		{"missing send message", "/v1/messages", `{"to":"` + bob.Hex() + `"}`, as(alice), fasthttp.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := s.do("POST", tc.path, tc.body, tc.headers)
			assert.Equal(t, tc.status, ctx.Response.StatusCode(), string(ctx.Response.Body()))
			assert.NotEmpty(t, decode(t, ctx)["error"])
		})
	}
}

func TestReadValidation(t *testing.T) {
	s := newTestServer(t, auth.SecConfig{})
	for _, path := range []string{
		"/v1/broadcasts/-1",
		"/v1/broadcasts/abc",
		"/v1/broadcasts?limit=x",
		"/v1/threads/nope/" + bob.String() + "/messages",
		"/v1/threads/" + alice.String() + "/" + bob.String() + "/messages/x",
		"/v1/friends/zz",
	} {
		ctx := s.do("GET", path, "", nil)
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), path)
	}
	ctx := s.do("GET", "/v1/unknown", "", nil)
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestThreadAndFriendsFlow(t *testing.T) {
	s := newTestServer(t, auth.SecConfig{})

	ctx := s.do("POST", "/v1/messages", `{"to":"`+bob.Hex()+`","message":"hi"}`, as(alice))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	ctx = s.do("POST", "/v1/messages", `{"to":"`+alice.String()+`","message":"yo"}`, as(bob))
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	ab := "/v1/threads/" + alice.Hex() + "/" + bob.Hex() + "/messages"
	ba := "/v1/threads/" + bob.String() + "/" + alice.String() + "/messages"
	assert.Equal(t, `"yo"`, result(t, s.do("GET", ab+"/0", "", nil)))
	assert.Equal(t, `"yo"`, result(t, s.do("GET", ba+"/0", "", nil)))
	assert.Equal(t, `"hi"`, result(t, s.do("GET", ba+"/1", "", nil)))
	assert.Equal(t, "", result(t, s.do("GET", ba+"/2", "", nil)))

	raw := result(t, s.do("GET", ab+"?limit=10", "", nil)).(string)
	blob, err := codec.ParseBlob(raw)
	require.NoError(t, err)
	env, err := codec.DecodeEnvelope(blob)
	require.NoError(t, err)
	assert.Len(t, env.Records, 2)

	raw = result(t, s.do("GET", "/v1/friends/"+alice.Hex(), "", nil)).(string)
	blob, err = codec.ParseBlob(raw)
	require.NoError(t, err)
	ids, err := codec.DecodeFriends(blob)
	require.NoError(t, err)
	assert.Equal(t, []models.Identity{bob}, ids)

	assert.Equal(t, alice.String(), result(t, s.do("GET", "/v1/friends/"+bob.String()+"/string", "", nil)))
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, auth.SecConfig{AdminKeys: map[string]struct{}{"adm": {}}})
	s.do("POST", "/v1/broadcasts", `{"message":"hello"}`, as(alice))
	s.do("POST", "/v1/messages", `{"to":"`+bob.Hex()+`","message":"hi"}`, as(alice))

	ctx := s.do("GET", "/admin/stats", "", nil)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

	key := map[string]string{utils.HeaderAPIKey: "adm"}
	ctx = s.do("GET", "/admin/stats", "", key)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	stats := decode(t, ctx)
	assert.Equal(t, float64(1), stats["broadcasts"])
	assert.Equal(t, float64(1), stats["threads"])
	assert.Equal(t, float64(1), stats["private_messages"])
	assert.Equal(t, float64(2), stats["friend_edges"])
	assert.Equal(t, true, stats["in_memory"])

	ctx = s.do("GET", "/admin/metrics", "", key)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "messageboard_writes_total")

	ctx = s.do("POST", "/admin/backup", "", key)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "run-1", decode(t, ctx)["id"])
	assert.Equal(t, 1, s.backup.calls)
}
