package pinterest

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"pinscraper/pkg/models"
)

const (
	// BaseURL is the base URL for Pinterest
	BaseURL = "https://pinterest.com"

	// BoardFeedEndpoint is the internal resource serving a board's pins page by page
	BoardFeedEndpoint = "/resource/BoardFeedResource/get/"

	// BoardFeedResourceName is the key of the feed resource inside the page state
	BoardFeedResourceName = "BoardFeedResource"

	// PageStateScriptID is the id of the script element holding the page state JSON
	PageStateScriptID = "__PWS_DATA__"

	// PageSize is the number of pins requested per feed page
	PageSize = 25

	// FieldSetKey selects the set of fields returned for each pin
	FieldSetKey = "react_grid_pin"

	// EndBookmark is the cursor value the feed returns once no pages remain
	EndBookmark = "-end-"
)

// feedOptions is the options object sent JSON-encoded in the data query parameter
type feedOptions struct {
	BoardID            string   `json:"board_id"`
	BoardURL           string   `json:"board_url"`
	CurrentFilter      int      `json:"currentFilter"`
	FieldSetKey        string   `json:"field_set_key"`
	FilterSectionPins  bool     `json:"filter_section_pins"`
	Sort               string   `json:"sort"`
	Layout             string   `json:"layout"`
	PageSize           int      `json:"page_size"`
	ReduxNormalizeFeed bool     `json:"redux_normalize_feed"`
	Bookmarks          []string `json:"bookmarks"`
	Context            struct{} `json:"context"`
}

type feedRequest struct {
	Options feedOptions `json:"options"`
}

// GetBoardPageURL constructs the URL of a board's public page
func GetBoardPageURL(baseURL string, board models.BoardIdentity) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"),
		url.PathEscape(board.UserName), url.PathEscape(board.BoardName))
}

// GetBoardFeedURL constructs the feed URL for one page of a board
func GetBoardFeedURL(baseURL string, boardID int64, board models.BoardIdentity, bookmarks []string) (string, error) {
	if bookmarks == nil {
		bookmarks = []string{}
	}

	data, err := json.Marshal(feedRequest{Options: feedOptions{
		BoardID:            fmt.Sprintf("%d", boardID),
		BoardURL:           quotePath(board.Path()),
		CurrentFilter:      -1,
		FieldSetKey:        FieldSetKey,
		FilterSectionPins:  true,
		Sort:               "default",
		Layout:             "default",
		PageSize:           PageSize,
		ReduxNormalizeFeed: true,
		Bookmarks:          bookmarks,
	}})
	if err != nil {
		return "", fmt.Errorf("failed to encode feed options: %w", err)
	}

	params := url.Values{}
	params.Set("data", string(data))

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), BoardFeedEndpoint, params.Encode()), nil
}

// quotePath percent-encodes every byte of p except unreserved characters and '/'
func quotePath(p string) string {
	const hex = "0123456789ABCDEF"

	var sb strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		if isUnreserved(c) || c == '/' {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&15])
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

// IsValidName checks that a user or board name can be used as a single path segment
func IsValidName(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > 200 {
		return false
	}
	return !strings.ContainsAny(name, "/?#") && strings.TrimSpace(name) == name
}

// SanitizeName strips decorations users commonly paste along with a name
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "@")
	return strings.Trim(name, "/")
}
