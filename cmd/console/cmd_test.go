package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// syncBuffer lets the fetcher callback and the test share output.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func remoteAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/coupons", r.URL.Path)
		assert.Equal(t, "tok", mustCookie(r))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		search := r.URL.Query().Get("search")

		code := "SAVE" + strconv.Itoa(page)
		if search != "" {
			code = strings.ToUpper(search)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"coupons":    []map[string]any{{"_id": "c" + strconv.Itoa(page), "code": code}},
				"pagination": map[string]int{"page": page, "pages": 3, "total": 3},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func mustCookie(r *http.Request) string {
	c, err := r.Cookie("token")
	if err != nil {
		return ""
	}
	return c.Value
}

func newTestCLI(input string, out *syncBuffer) *commandLine {
	v := viper.New()
	v.SetDefault("SESSION_COOKIE", "token")
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("SEARCH_DEBOUNCE", "10ms")
	return &commandLine{v: v, in: strings.NewReader(input), out: out, logger: zap.NewNop()}
}

func TestUsage(t *testing.T) {
	out := &syncBuffer{}
	cli := newTestCLI("", out)
	assert.ErrorIs(t, cli.run(context.Background(), []string{"console"}), errHelp)
	assert.Contains(t, out.String(), "list RESOURCE")

	assert.ErrorIs(t, cli.run(context.Background(), []string{"console", "nope"}), errHelp)

	listOut := &syncBuffer{}
	cli = newTestCLI("", listOut)
	assert.NotPanics(t, func() {
		assert.ErrorIs(t, cli.run(context.Background(), []string{"console", "list"}), errHelp)
	})
	assert.Contains(t, listOut.String(), "list RESOURCE")
	assert.Contains(t, listOut.String(), "--page")
}

func TestListUnknownResource(t *testing.T) {
	cli := newTestCLI("", &syncBuffer{})
	err := cli.run(context.Background(), []string{"console", "list", "spaceships", "--token", "tok"})
	assert.EqualError(t, err, `unknown resource "spaceships"`)
}

func stubTerminal(t *testing.T, isTerm bool, read func(int) ([]byte, error)) {
	t.Helper()
	origIsTerm, origRead := isTerminalFunc, readTokenFunc
	t.Cleanup(func() { isTerminalFunc, readTokenFunc = origIsTerm, origRead })
	isTerminalFunc = func(int) bool { return isTerm }
	if read != nil {
		readTokenFunc = read
	}
}

func TestListRequiresToken(t *testing.T) {
	stubTerminal(t, false, nil)

	cli := newTestCLI("", &syncBuffer{})
	err := cli.run(context.Background(), []string{"console", "list", "coupons"})
	assert.Error(t, err)
}

func TestListPromptsForToken(t *testing.T) {
	srv := remoteAPI(t)
	stubTerminal(t, true, func(int) ([]byte, error) { return []byte("tok\n"), nil })

	out := &syncBuffer{}
	cli := newTestCLI("q\n", out)
	require.NoError(t, cli.run(context.Background(), []string{"console", "list", "coupons", "--api", srv.URL}))
	assert.Contains(t, out.String(), "Session token:")

	readTokenFunc = func(int) ([]byte, error) { return nil, errors.New("no tty") }
	err := newTestCLI("", &syncBuffer{}).run(context.Background(), []string{"console", "list", "coupons", "--api", srv.URL})
	assert.Error(t, err)
}

func TestListOpensRequestedPage(t *testing.T) {
	srv := remoteAPI(t)
	out := &syncBuffer{}
	cli := newTestCLI("", out)

	err := cli.run(context.Background(), []string{"console", "list", "coupons", "--api", srv.URL, "--token", "tok", "--page", "2"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "coupons page 2/3")
	assert.Contains(t, out.String(), "c2  SAVE2")
}

func TestListPagesAndSearches(t *testing.T) {
	srv := remoteAPI(t)
	out := &syncBuffer{}
	cli := newTestCLI("n\ng 3\ng x\n/welcome\nbogus\n", out)

	err := cli.run(context.Background(), []string{"console", "list", "coupons", "--api", srv.URL, "--token", "tok"})
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "c1  WELCOME")
	assert.Contains(t, got, "page must be a positive number")
	assert.Contains(t, got, `unknown command "bogus"`)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "b1  Booked", summarize(json.RawMessage(`{"_id":"b1","status":"Booked"}`)))
	assert.Equal(t, "u1", summarize(json.RawMessage(`{"_id":"u1"}`)))
	assert.Equal(t, "42", summarize(json.RawMessage(`42`)))
}
