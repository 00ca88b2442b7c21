package pinterest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	errs "pinscraper/pkg/errors"
	"pinscraper/pkg/logger"
	"pinscraper/pkg/models"
	"pinscraper/pkg/ratelimit"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL   string
	UserAgent string
	// Timeout bounds each HTTP request; zero means no client-side timeout
	Timeout time.Duration
	Limiter ratelimit.Limiter
	Logger  logger.Logger
	// HTTPClient replaces the client built from Timeout when set
	HTTPClient *http.Client
}

// Client talks to the board page and the board feed resource
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a new Pinterest client
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent":      opts.UserAgent,
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		limiter: opts.Limiter,
		logger:  opts.Logger,
	}
}

// BaseURL returns the site root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest waits for the limiter, then performs req with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "request to %s not sent", req.URL.Path)
	}

	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "%s %s", req.Method, req.URL.Path)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// get performs a GET request and returns the body of a 200 response
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: "failed to read response body",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return body, nil
}

// checkResponseStatus maps non-200 responses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	errType := errs.FromStatusCode(resp.StatusCode)
	c.logger.WarnWithFields("unexpected response status", map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
		"type":   string(errType),
	})

	return &errs.Error{
		Type:    errType,
		Message: fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, resp.Request.URL.Path),
		Code:    resp.StatusCode,
	}
}

// ResolveBoardID fetches the board page and extracts the internal board id
// from the page state embedded in the __PWS_DATA__ script
func (c *Client) ResolveBoardID(ctx context.Context, board models.BoardIdentity) (int64, error) {
	pageURL := GetBoardPageURL(c.baseURL, board)
	log := c.logger.WithFields(map[string]interface{}{
		"user_name":  board.UserName,
		"board_name": board.BoardName,
	})

	log.DebugWithFields("fetching board page", map[string]interface{}{"url": pageURL})

	body, err := c.get(ctx, pageURL, "text/html,application/xhtml+xml")
	if err != nil {
		if errs.IsNotFound(err) {
			return 0, boardNotFound(board, err)
		}
		return 0, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse board page HTML")
	}

	script := doc.Find("script#" + PageStateScriptID).First()
	if script.Length() == 0 {
		return 0, errs.New(errs.ErrorTypeParsing, "board page has no %s script", PageStateScriptID)
	}

	var state pageState
	if err := json.Unmarshal([]byte(script.Text()), &state); err != nil {
		return 0, errs.Wrap(errs.ErrorTypeParsing, err, "failed to decode page state")
	}
	if state.Props == nil || state.Props.InitialReduxState == nil || state.Props.InitialReduxState.Resources == nil {
		return 0, errs.New(errs.ErrorTypeParsing, "page state has no props.initialReduxState.resources")
	}

	resource, ok := state.Props.InitialReduxState.Resources[BoardFeedResourceName]
	if !ok {
		log.Warn("board feed resource missing from page state")
		return 0, boardNotFound(board, nil)
	}

	key, err := firstObjectKey(resource)
	if err != nil {
		return 0, err
	}

	boardID, err := parseBoardIDKey(key)
	if err != nil {
		return 0, err
	}

	log.DebugWithFields("resolved board id", map[string]interface{}{"board_id": boardID})
	return boardID, nil
}

func boardNotFound(board models.BoardIdentity, cause error) error {
	return &errs.Error{
		Type:    errs.ErrorTypeNotFound,
		Message: fmt.Sprintf("%s was not found", board),
		Code:    http.StatusNotFound,
		Err:     cause,
	}
}

// firstObjectKey returns the first key of a JSON object in document order
func firstObjectKey(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeParsing, err, "failed to read board feed resource")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", errs.New(errs.ErrorTypeParsing, "board feed resource is not an object")
	}

	tok, err = dec.Token()
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeParsing, err, "failed to read board feed resource")
	}
	key, ok := tok.(string)
	if !ok {
		return "", errs.New(errs.ErrorTypeParsing, "board feed resource is empty")
	}
	return key, nil
}

// parseBoardIDKey extracts the digits of the board_id="<digits>" part of a
// comma-delimited resource key
func parseBoardIDKey(key string) (int64, error) {
	for _, part := range strings.Split(key, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || name != "board_id" {
			continue
		}
		value = strings.Trim(value, `"`)
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, errs.Wrap(errs.ErrorTypeParsing, err, "board id %q is not numeric", value)
		}
		return id, nil
	}
	return 0, errs.New(errs.ErrorTypeParsing, "resource key %q carries no board_id", key)
}

// FetchFeedPage requests one page of the board feed. bookmarks is the cursor
// returned by the previous page, or empty for the first page.
func (c *Client) FetchFeedPage(ctx context.Context, boardID int64, board models.BoardIdentity, bookmarks []string) (*FeedPage, error) {
	feedURL, err := GetBoardFeedURL(c.baseURL, boardID, board, bookmarks)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, feedURL, "application/json, text/javascript, */*; q=0.01")
	if err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"board_id":  boardID,
			"bookmarks": bookmarks,
		}).Error("failed to fetch feed page")
		return nil, err
	}

	var response feedResponse
	if err := json.Unmarshal(body, &response); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse feed response", map[string]interface{}{
			"board_id":     boardID,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to parse feed response")
	}

	if response.ResourceResponse == nil {
		return nil, errs.New(errs.ErrorTypeParsing, "feed response has no resource_response")
	}
	if response.ResourceResponse.Data == nil {
		return nil, errs.New(errs.ErrorTypeParsing, "feed response has no data list")
	}

	page := &FeedPage{Entries: response.ResourceResponse.Data}
	if bm := response.ResourceResponse.Bookmark; bm != nil {
		page.Bookmark = *bm
		page.HasMore = *bm != "" && *bm != EndBookmark
	}

	c.logger.DebugWithFields("feed page fetched", map[string]interface{}{
		"board_id": boardID,
		"entries":  len(page.Entries),
		"has_more": page.HasMore,
	})

	return page, nil
}

// Download fetches a pin resource (image or video) and returns its bytes
func (c *Client) Download(ctx context.Context, resourceURL string) ([]byte, error) {
	body, err := c.get(ctx, resourceURL, "image/avif,image/webp,video/mp4,*/*;q=0.8")
	if err != nil {
		c.logger.WithError(err).WithField("url", resourceURL).Error("failed to download resource")
		return nil, err
	}
	return body, nil
}
