// Package pintest provides an in-process fake of the Pinterest endpoints the
// scraper talks to: board pages, the board feed resource and a media host.
package pintest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	feedPath  = "/resource/BoardFeedResource/get/"
	mediaPath = "/media/"
	endCursor = "-end-"
)

// Pin is a pin served by the fake feed
type Pin struct {
	ID    int64
	Title string
	// NoTitle omits grid_title from the entry entirely
	NoTitle bool
	Image   string
	// Video, when set, is embedded in the entry's videos block
	Video string
}

// Board is a board served by the fake site. Pins are newest first, the order
// the real feed serves them in.
type Board struct {
	User     string
	Name     string
	ID       int64
	Pins     []Pin
	PageSize int
	// Hidden serves the board page without a BoardFeedResource, the way the
	// site answers for boards that do not exist or are private
	Hidden bool
}

// FeedRequest is a decoded feed request as received by the server
type FeedRequest struct {
	BoardID   string
	BoardURL  string
	Bookmarks []string
	Options   map[string]interface{}
}

// Server is a fake Pinterest site
type Server struct {
	server *httptest.Server

	mu            sync.RWMutex
	boards        map[string]*Board
	feedRequests  []FeedRequest
	feedFailures  map[int]int
	pageStatus    map[string]int
	mediaFailures map[string][]int

	pageRequests  int32
	mediaRequests int32
}

// NewServer starts a fake site. Call Close when done.
func NewServer() *Server {
	s := &Server{
		boards:        make(map[string]*Board),
		feedFailures:  make(map[int]int),
		pageStatus:    make(map[string]int),
		mediaFailures: make(map[string][]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(feedPath, s.handleFeed)
	mux.HandleFunc(mediaPath, s.handleMedia)
	mux.HandleFunc("/", s.handleBoardPage)

	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the fake site
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down
func (s *Server) Close() {
	s.server.Close()
}

// MediaURL returns a URL on the fake media host for name
func (s *Server) MediaURL(name string) string {
	return s.server.URL + mediaPath + name
}

// AddBoard registers or replaces a board
func (s *Server) AddBoard(b *Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[b.User+"/"+b.Name] = b
}

// PrependPins adds newer pins to the front of a registered board's feed
func (s *Server) PrependPins(user, name string, pins ...Pin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.boards[user+"/"+name]
	b.Pins = append(append([]Pin{}, pins...), b.Pins...)
}

// FailFeedPage makes the feed answer with status for the given zero-based page
func (s *Server) FailFeedPage(page, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedFailures[page] = status
}

// ClearFailures removes all configured failures
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedFailures = make(map[int]int)
	s.pageStatus = make(map[string]int)
	s.mediaFailures = make(map[string][]int)
}

// SetBoardPageStatus makes the board page for user/name answer with status
func (s *Server) SetBoardPageStatus(user, name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageStatus["/"+user+"/"+name] = status
}

// FailMedia makes the next requests for name answer with the given statuses, in order
func (s *Server) FailMedia(name string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaFailures[name] = append(s.mediaFailures[name], statuses...)
}

// FeedRequests returns the feed requests received so far
func (s *Server) FeedRequests() []FeedRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FeedRequest, len(s.feedRequests))
	copy(out, s.feedRequests)
	return out
}

// ResetRequests forgets recorded requests
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedRequests = nil
	atomic.StoreInt32(&s.pageRequests, 0)
	atomic.StoreInt32(&s.mediaRequests, 0)
}

// PageRequests returns how many board pages were requested
func (s *Server) PageRequests() int {
	return int(atomic.LoadInt32(&s.pageRequests))
}

// MediaRequests returns how many media files were requested
func (s *Server) MediaRequests() int {
	return int(atomic.LoadInt32(&s.mediaRequests))
}

func (s *Server) handleBoardPage(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.pageRequests, 1)

	path := strings.TrimSuffix(r.URL.Path, "/")

	s.mu.RLock()
	status := s.pageStatus[path]
	board, ok := s.boards[strings.TrimPrefix(path, "/")]
	s.mu.RUnlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !ok || board.Hidden {
		fmt.Fprint(w, BoardPageHTML(`{"props":{"initialReduxState":{"resources":{"UserResource":{}}}}}`))
		return
	}
	fmt.Fprint(w, BoardPageHTML(PageState(board.ID, board.User, board.Name)))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Options map[string]interface{} `json:"options"`
	}
	if err := json.Unmarshal([]byte(r.URL.Query().Get("data")), &payload); err != nil || payload.Options == nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	req := FeedRequest{Options: payload.Options}
	req.BoardID, _ = payload.Options["board_id"].(string)
	req.BoardURL, _ = payload.Options["board_url"].(string)
	if bms, ok := payload.Options["bookmarks"].([]interface{}); ok {
		req.Bookmarks = []string{}
		for _, bm := range bms {
			if str, ok := bm.(string); ok {
				req.Bookmarks = append(req.Bookmarks, str)
			}
		}
	}

	s.mu.Lock()
	s.feedRequests = append(s.feedRequests, req)
	var board *Board
	for _, b := range s.boards {
		if strconv.FormatInt(b.ID, 10) == req.BoardID {
			board = b
			break
		}
	}
	page := 0
	if len(req.Bookmarks) > 0 {
		page, _ = strconv.Atoi(strings.TrimPrefix(req.Bookmarks[0], "page-"))
	}
	status := s.feedFailures[page]
	var pins []Pin
	pageSize := 25
	if board != nil {
		pins = append(pins, board.Pins...)
		if board.PageSize > 0 {
			pageSize = board.PageSize
		}
	}
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if board == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	start := page * pageSize
	if start > len(pins) {
		start = len(pins)
	}
	end := start + pageSize
	bookmark := fmt.Sprintf("page-%d", page+1)
	if end >= len(pins) {
		end = len(pins)
		bookmark = endCursor
	}

	entries := make([]map[string]interface{}, 0, end-start)
	for _, p := range pins[start:end] {
		entries = append(entries, Entry(p))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"resource_response": map[string]interface{}{
			"status":   "success",
			"data":     entries,
			"bookmark": bookmark,
		},
	})
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.mediaRequests, 1)
	name := strings.TrimPrefix(r.URL.Path, mediaPath)

	s.mu.Lock()
	var status int
	if queued := s.mediaFailures[name]; len(queued) > 0 {
		status = queued[0]
		s.mediaFailures[name] = queued[1:]
	}
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.Write(MediaContent(name))
}

// MediaContent returns the bytes the media host serves for name
func MediaContent(name string) []byte {
	return []byte("media:" + name)
}

// Entry renders a pin the way the feed serves it
func Entry(p Pin) map[string]interface{} {
	entry := map[string]interface{}{
		"id":   strconv.FormatInt(p.ID, 10),
		"type": "pin",
		"images": map[string]interface{}{
			"236x": map[string]interface{}{"url": strings.Replace(p.Image, "/originals/", "/236x/", 1), "width": 236},
			"orig": map[string]interface{}{"url": p.Image, "width": 1000},
		},
		"board": map[string]interface{}{"privacy": "public"},
	}
	if !p.NoTitle {
		entry["grid_title"] = p.Title
	}
	if p.Video != "" {
		entry["videos"] = map[string]interface{}{
			"video_list": map[string]interface{}{
				"V_720P": map[string]interface{}{"url": p.Video, "width": 720},
			},
		}
	}
	return entry
}

// PageState renders the page state JSON carrying a board feed resource
func PageState(boardID int64, user, board string) string {
	key := fmt.Sprintf(`board_id=%q,board_url="/%s/%s/",currentFilter=-1,field_set_key="react_grid_pin",filter_section_pins=true,layout="default",page_size=25,redux_normalize_feed=true`,
		strconv.FormatInt(boardID, 10), user, board)
	state := map[string]interface{}{
		"props": map[string]interface{}{
			"initialReduxState": map[string]interface{}{
				"resources": map[string]interface{}{
					"BoardFeedResource": map[string]interface{}{
						key: map[string]interface{}{"data": []interface{}{}},
					},
				},
			},
		},
	}
	data, _ := json.Marshal(state)
	return string(data)
}

// BoardPageHTML wraps a page state document the way the board page embeds it
func BoardPageHTML(state string) string {
	return `<!DOCTYPE html><html lang="en"><head><title>Pinterest</title>` +
		`<script id="__PWS_CONFIG__" type="application/json">{}</script>` +
		`<script id="__PWS_DATA__" type="application/json">` + state + `</script>` +
		`</head><body><div id="__PWS_ROOT__"></div></body></html>`
}
