package pinterest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	errs "pinscraper/pkg/errors"
	"pinscraper/pkg/models"
)

// videoURLPattern matches an mp4 asset URL anywhere in an entry's JSON text
var videoURLPattern = regexp.MustCompile(`https://[^ ,"]+\.mp4`)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// pageState is the part of the __PWS_DATA__ document the resolver reads
type pageState struct {
	Props *struct {
		InitialReduxState *struct {
			Resources map[string]json.RawMessage `json:"resources"`
		} `json:"initialReduxState"`
	} `json:"props"`
}

// feedResponse is the envelope returned by the board feed endpoint
type feedResponse struct {
	ResourceResponse *struct {
		Data     []json.RawMessage `json:"data"`
		Bookmark *string           `json:"bookmark"`
	} `json:"resource_response"`
}

// FeedPage is one page of a board feed, newest pins first
type FeedPage struct {
	// Entries holds the raw pin objects in the order they were served
	Entries []json.RawMessage
	// Bookmark is the cursor for the next page, empty when none was returned
	Bookmark string
	// HasMore is true when the response carried a usable bookmark
	HasMore bool
}

// feedEntry holds the fields of a pin object that a Pin is built from
type feedEntry struct {
	ID     *json.Number `json:"id"`
	Images map[string]struct {
		URL *string `json:"url"`
	} `json:"images"`
	GridTitle *string `json:"grid_title"`
}

// Entry is a decoded feed entry
type Entry struct {
	pin models.Pin
	raw json.RawMessage
}

// ParseEntry decodes one raw feed entry into a candidate pin for board.
// The entry must carry an id and an "orig" image URL.
func ParseEntry(raw json.RawMessage, board models.BoardIdentity) (*Entry, error) {
	var fe feedEntry
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fe); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to decode feed entry")
	}

	if fe.ID == nil {
		return nil, errs.New(errs.ErrorTypeParsing, "feed entry has no id")
	}
	id, err := strconv.ParseInt(fe.ID.String(), 10, 64)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "feed entry id %q is not numeric", fe.ID.String())
	}

	orig, ok := fe.Images["orig"]
	if !ok || orig.URL == nil {
		return nil, errs.New(errs.ErrorTypeParsing, "feed entry %d has no original image", id)
	}

	title := ""
	if fe.GridTitle != nil {
		title = *fe.GridTitle
	}

	return &Entry{
		pin: models.Pin{
			ID:           id,
			ResourceLink: *orig.URL,
			Title:        title,
			BoardName:    board.BoardName,
			BoardAuthor:  board.UserName,
		},
		raw: raw,
	}, nil
}

// Pin returns the candidate pin built from the entry's image fields
func (e *Entry) Pin() models.Pin {
	return e.pin
}

// VideoURL returns the first mp4 URL found in the entry, or "" if there is none.
// The entry is scanned in document order with its strings unescaped, so escaped
// slashes in the served JSON still match.
func (e *Entry) VideoURL() string {
	return findVideoURL(e.raw)
}

// ResolvedPin returns the candidate pin with its resource link switched to the
// video asset when the entry carries one
func (e *Entry) ResolvedPin() models.Pin {
	pin := e.pin
	if video := e.VideoURL(); video != "" {
		pin.ResourceLink = video
	}
	return pin
}

func findVideoURL(raw json.RawMessage) string {
	text, err := entryText(raw)
	if err != nil {
		text = raw
	}
	return string(videoURLPattern.Find(text))
}

// entryText rewrites raw token by token, keeping document order, with string
// values unescaped apart from quotes and backslashes
func entryText(raw json.RawMessage) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var buf bytes.Buffer
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}

		switch v := tok.(type) {
		case json.Delim:
			buf.WriteString(v.String())
		case string:
			buf.WriteByte('"')
			buf.WriteString(quoteEscaper.Replace(v))
			buf.WriteByte('"')
		default:
			fmt.Fprint(&buf, v)
		}
		buf.WriteByte(',')
	}
}
