package pinterest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pinscraper/internal/pintest"
	errs "pinscraper/pkg/errors"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBoard = models.BoardIdentity{UserName: "someuser", BoardName: "recipes"}

// countingLimiter records how often the client asked for permission
type countingLimiter struct {
	waits int32
}

func (l *countingLimiter) Allow() bool { return true }

func (l *countingLimiter) Wait(ctx context.Context) error {
	atomic.AddInt32(&l.waits, 1)
	return ctx.Err()
}

func newTestClient(t *testing.T, baseURL string, log logger.Logger) *Client {
	t.Helper()
	return NewClient(Options{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Logger:  log,
	})
}

// newHTMLServer serves body for every request
func newHTMLServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	client := NewClient(Options{})

	assert.NotNil(t, client.httpClient)
	assert.Equal(t, BaseURL, client.BaseURL())
	assert.Equal(t, defaultUserAgent, client.headers["User-Agent"])
	assert.Zero(t, client.httpClient.Timeout)
	assert.NotNil(t, client.limiter)
	assert.NotNil(t, client.logger)

	client = NewClient(Options{BaseURL: "http://localhost:1234/", UserAgent: "agent/1.0", Timeout: time.Second})
	assert.Equal(t, "http://localhost:1234", client.BaseURL())
	assert.Equal(t, "agent/1.0", client.headers["User-Agent"])
	assert.Equal(t, time.Second, client.httpClient.Timeout)
}

func TestResolveBoardID(t *testing.T) {
	srv := pintest.NewServer()
	defer srv.Close()
	srv.AddBoard(&pintest.Board{User: "someuser", Name: "recipes", ID: 5629574391738173})

	log := logger.NewTestLogger()
	client := newTestClient(t, srv.URL(), log)

	id, err := client.ResolveBoardID(context.Background(), testBoard)
	require.NoError(t, err)
	assert.Equal(t, int64(5629574391738173), id)
	assert.Equal(t, 1, srv.PageRequests())
	assert.Empty(t, srv.FeedRequests())
	assert.True(t, log.HasMessage("resolved board id"))
}

func TestResolveBoardIDNotFound(t *testing.T) {
	t.Run("feed resource missing from page", func(t *testing.T) {
		srv := pintest.NewServer()
		defer srv.Close()
		srv.AddBoard(&pintest.Board{User: "someuser", Name: "recipes", ID: 1, Hidden: true})

		client := newTestClient(t, srv.URL(), nil)
		_, err := client.ResolveBoardID(context.Background(), testBoard)

		require.Error(t, err)
		assert.True(t, errs.IsNotFound(err))
		assert.Contains(t, err.Error(), "board 'recipes' of user 'someuser'")
		assert.Empty(t, srv.FeedRequests())
	})

	t.Run("board page returns 404", func(t *testing.T) {
		srv := pintest.NewServer()
		defer srv.Close()
		srv.SetBoardPageStatus("someuser", "recipes", http.StatusNotFound)

		client := newTestClient(t, srv.URL(), nil)
		_, err := client.ResolveBoardID(context.Background(), testBoard)

		require.Error(t, err)
		assert.True(t, errs.IsNotFound(err))
		assert.Empty(t, srv.FeedRequests())
	})
}

func TestResolveBoardIDUsesFirstResourceKey(t *testing.T) {
	state := `{"props":{"initialReduxState":{"resources":{"BoardFeedResource":{` +
		`"board_id=\"111\",board_url=\"/someuser/recipes/\"":{"data":[]},` +
		`"board_id=\"222\",board_url=\"/someuser/other/\"":{"data":[]}}}}}}`
	srv := newHTMLServer(t, http.StatusOK, pintest.BoardPageHTML(state))

	client := newTestClient(t, srv.URL, nil)
	id, err := client.ResolveBoardID(context.Background(), testBoard)

	require.NoError(t, err)
	assert.Equal(t, int64(111), id)
}

func TestResolveBoardIDMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "no page state script",
			body: `<html><head></head><body>nothing here</body></html>`,
		},
		{
			name: "page state is not JSON",
			body: pintest.BoardPageHTML(`{"props": {`),
		},
		{
			name: "no resources",
			body: pintest.BoardPageHTML(`{"props":{}}`),
		},
		{
			name: "empty feed resource",
			body: pintest.BoardPageHTML(`{"props":{"initialReduxState":{"resources":{"BoardFeedResource":{}}}}}`),
		},
		{
			name: "key without board id",
			body: pintest.BoardPageHTML(`{"props":{"initialReduxState":{"resources":{"BoardFeedResource":{"board_url=\"/a/b/\"":{}}}}}}`),
		},
		{
			name: "non numeric board id",
			body: pintest.BoardPageHTML(`{"props":{"initialReduxState":{"resources":{"BoardFeedResource":{"board_id=\"abc\"":{}}}}}}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newHTMLServer(t, http.StatusOK, tt.body)
			client := newTestClient(t, srv.URL, nil)

			_, err := client.ResolveBoardID(context.Background(), testBoard)
			require.Error(t, err)
			assert.True(t, errs.IsType(err, errs.ErrorTypeParsing), "got %v", err)
		})
	}
}

func TestResolveBoardIDServerError(t *testing.T) {
	srv := newHTMLServer(t, http.StatusBadGateway, "")
	client := newTestClient(t, srv.URL, nil)

	_, err := client.ResolveBoardID(context.Background(), testBoard)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeServerError))

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, http.StatusBadGateway, typed.Code)
}

func TestResolveBoardIDNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	log := logger.NewTestLogger()
	client := newTestClient(t, url, log)

	_, err := client.ResolveBoardID(context.Background(), testBoard)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))
	assert.True(t, log.HasMessage("HTTP request failed"))
}

func TestFetchFeedPage(t *testing.T) {
	srv := pintest.NewServer()
	defer srv.Close()

	var pins []pintest.Pin
	for i := 0; i < 30; i++ {
		pins = append(pins, pintest.Pin{ID: int64(1000 - i), Title: fmt.Sprintf("pin %d", i), Image: srv.MediaURL(fmt.Sprintf("%d.jpg", i))})
	}
	srv.AddBoard(&pintest.Board{User: "someuser", Name: "recipes", ID: 42, Pins: pins})

	client := newTestClient(t, srv.URL(), nil)

	first, err := client.FetchFeedPage(context.Background(), 42, testBoard, nil)
	require.NoError(t, err)
	assert.Len(t, first.Entries, PageSize)
	assert.True(t, first.HasMore)
	assert.Equal(t, "page-1", first.Bookmark)

	second, err := client.FetchFeedPage(context.Background(), 42, testBoard, []string{first.Bookmark})
	require.NoError(t, err)
	assert.Len(t, second.Entries, 5)
	assert.False(t, second.HasMore)
	assert.Equal(t, EndBookmark, second.Bookmark)

	requests := srv.FeedRequests()
	require.Len(t, requests, 2)

	assert.Equal(t, "42", requests[0].BoardID)
	assert.Equal(t, "/someuser/recipes/", requests[0].BoardURL)
	assert.Equal(t, []string{}, requests[0].Bookmarks)
	assert.Equal(t, []string{"page-1"}, requests[1].Bookmarks)

	opts := requests[0].Options
	assert.Equal(t, float64(-1), opts["currentFilter"])
	assert.Equal(t, "react_grid_pin", opts["field_set_key"])
	assert.Equal(t, true, opts["filter_section_pins"])
	assert.Equal(t, "default", opts["sort"])
	assert.Equal(t, "default", opts["layout"])
	assert.Equal(t, float64(25), opts["page_size"])
	assert.Equal(t, true, opts["redux_normalize_feed"])
	assert.Equal(t, map[string]interface{}{}, opts["context"])
}

func TestFetchFeedPageBookmark(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		hasMore     bool
		wantBookmrk string
	}{
		{"cursor present", `{"resource_response":{"data":[],"bookmark":"Y2JVSG81V2sxcmNHRlpWM1J"}}`, true, "Y2JVSG81V2sxcmNHRlpWM1J"},
		{"end sentinel", `{"resource_response":{"data":[],"bookmark":"-end-"}}`, false, "-end-"},
		{"empty cursor", `{"resource_response":{"data":[],"bookmark":""}}`, false, ""},
		{"no cursor", `{"resource_response":{"data":[]}}`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newHTMLServer(t, http.StatusOK, tt.body)
			client := newTestClient(t, srv.URL, nil)

			page, err := client.FetchFeedPage(context.Background(), 1, testBoard, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.hasMore, page.HasMore)
			assert.Equal(t, tt.wantBookmrk, page.Bookmark)
			assert.NotNil(t, page.Entries)
		})
	}
}

func TestFetchFeedPageErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType errs.ErrorType
	}{
		{"server error", http.StatusInternalServerError, "", errs.ErrorTypeServerError},
		{"not found", http.StatusNotFound, "", errs.ErrorTypeNotFound},
		{"forbidden", http.StatusForbidden, "", errs.ErrorTypeUnknown},
		{"invalid JSON", http.StatusOK, "<html>not json</html>", errs.ErrorTypeParsing},
		{"missing resource_response", http.StatusOK, `{"status":"ok"}`, errs.ErrorTypeParsing},
		{"missing data", http.StatusOK, `{"resource_response":{"bookmark":"abc"}}`, errs.ErrorTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newHTMLServer(t, tt.status, tt.body)
			log := logger.NewTestLogger()
			client := newTestClient(t, srv.URL, log)

			page, err := client.FetchFeedPage(context.Background(), 1, testBoard, nil)
			require.Error(t, err)
			assert.Nil(t, page)
			assert.Equal(t, tt.wantType, errs.TypeOf(err))
		})
	}
}

func TestFetchFeedPageLogsBodyPreview(t *testing.T) {
	body := "<html>" + string(make([]byte, 500)) + "</html>"
	srv := newHTMLServer(t, http.StatusOK, body)
	log := logger.NewTestLogger()
	client := newTestClient(t, srv.URL, log)

	_, err := client.FetchFeedPage(context.Background(), 1, testBoard, nil)
	require.Error(t, err)

	errorsLogged := log.GetMessagesByLevel("ERROR")
	require.Len(t, errorsLogged, 1)
	preview, ok := errorsLogged[0].Fields["body_preview"].(string)
	require.True(t, ok)
	assert.Len(t, preview, 203)
}

func TestClientSendsHeaders(t *testing.T) {
	var userAgent, language, accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		language = r.Header.Get("Accept-Language")
		accept = r.Header.Get("Accept")
		fmt.Fprint(w, `{"resource_response":{"data":[]}}`)
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, UserAgent: "pinscraper-test"})

	_, err := client.FetchFeedPage(context.Background(), 1, testBoard, nil)
	require.NoError(t, err)
	assert.Equal(t, "pinscraper-test", userAgent)
	assert.Equal(t, "en-US,en;q=0.9", language)
	assert.Contains(t, accept, "application/json")
}

func TestClientWaitsOnLimiter(t *testing.T) {
	srv := newHTMLServer(t, http.StatusOK, `{"resource_response":{"data":[]}}`)
	limiter := &countingLimiter{}
	client := NewClient(Options{BaseURL: srv.URL, Limiter: limiter})

	for i := 0; i < 3; i++ {
		_, err := client.FetchFeedPage(context.Background(), 1, testBoard, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&limiter.waits))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FetchFeedPage(ctx, 1, testBoard, nil)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypeNetwork))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownload(t *testing.T) {
	srv := pintest.NewServer()
	defer srv.Close()

	client := newTestClient(t, srv.URL(), nil)

	data, err := client.Download(context.Background(), srv.MediaURL("abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, pintest.MediaContent("abc.jpg"), data)

	srv.FailMedia("gone.jpg", http.StatusNotFound)
	_, err = client.Download(context.Background(), srv.MediaURL("gone.jpg"))
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}
