package client

import (
	"context"
	"errors"
	"net"
	"testing"

	"messageboard/pkg/api"
	"messageboard/pkg/api/auth"
	"messageboard/pkg/api/router"
	"messageboard/pkg/board"
	"messageboard/pkg/models"
	"messageboard/pkg/store/db/storedb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

var (
	alice = models.MustIdentity("0x00000000000000000000000000000000000000a1")
	bob   = models.MustIdentity("0x00000000000000000000000000000000000000b2")
)

const signingKey = "sk-test"

// startServer serves the full API over an in-memory listener and returns a
// dialer-bound fasthttp client.
func startServer(t *testing.T) *fasthttp.Client {
	t.Helper()
	db, err := storedb.Open("", storedb.Options{InMemory: true})
	require.NoError(t, err)
	b, err := board.New(context.Background(), db, board.Config{CharLimit: 16, MaxBatch: 10})
	require.NoError(t, err)

	gw := auth.NewGateway(auth.SecConfig{
		RPS:         1000,
		Burst:       1000,
		SigningKeys: []string{signingKey},
		AdminKeys:   map[string]struct{}{"adm": {}},
	})
	srv := &fasthttp.Server{Handler: api.Handler(context.Background(), router.New(), api.Deps{Board: b, DB: db}, gw)}

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		gw.Close()
		_ = db.Close()
	})
	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func newClient(t *testing.T, hc *fasthttp.Client, id models.Identity) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: "board.test", Identity: id, SigningKey: signingKey, AdminKey: "adm", HTTP: hc})
	require.NoError(t, err)
	return c
}

func TestClientRoundTrip(t *testing.T) {
	hc := startServer(t)
	ctx := context.Background()
	ac := newClient(t, hc, alice)
	bc := newClient(t, hc, bob)

	limit, err := ac.CharLimit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, limit)

	for _, m := range []string{"one", "two", "three"} {
		r, err := ac.Post(ctx, m)
		require.NoError(t, err)
		require.True(t, r.Stored)
	}
	env, err := bc.Broadcasts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, env.Records, 2)
	assert.Equal(t, "three", env.Newest()[0].Message)
	assert.Equal(t, alice, env.Records[0].Sender)

	s, err := bc.Broadcast(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, `"one"`, s)
	s, err = bc.Broadcast(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	r, err := ac.Send(ctx, bob, "hi bob")
	require.NoError(t, err)
	require.True(t, r.Stored)
	r, err = bc.Send(ctx, alice, "this reply is far too long")
	require.NoError(t, err)
	assert.True(t, r.Status)
	assert.False(t, r.Stored)
	assert.Equal(t, board.Diagnostic(16), r.Diagnostic())

	msg, err := bc.Message(ctx, bob, alice, 0)
	require.NoError(t, err)
	assert.Equal(t, `"hi bob"`, msg)
	env, err = ac.Messages(ctx, alice, bob, 5)
	require.NoError(t, err)
	require.Len(t, env.Records, 1)
	assert.Equal(t, bob, env.Records[0].Recipient)

	friends, err := ac.Friends(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, []models.Identity{alice}, friends)
	fs, err := ac.FriendsString(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, bob.String(), fs)

	st, err := ac.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), st.Broadcasts)
	assert.Equal(t, uint64(1), st.Private)
}

func TestClientErrors(t *testing.T) {
	hc := startServer(t)
	ctx := context.Background()

	unsigned, err := New(Options{BaseURL: "http://board.test/", Identity: alice, HTTP: hc})
	require.NoError(t, err)
	_, err = unsigned.Post(ctx, "hi")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, fasthttp.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "missing signature", apiErr.Message)

	anon, err := New(Options{BaseURL: "http://board.test", HTTP: hc})
	require.NoError(t, err)
	_, err = anon.Post(ctx, "hi")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, fasthttp.StatusUnauthorized, apiErr.Status)

	_, err = anon.Stats(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, fasthttp.StatusUnauthorized, apiErr.Status)

	c := newClient(t, hc, alice)
	_, err = c.Backup(ctx)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, fasthttp.StatusServiceUnavailable, apiErr.Status)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.CharLimit(cancelled)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = New(Options{})
	assert.Error(t, err)
}
