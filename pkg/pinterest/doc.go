// Package pinterest talks to the public, unauthenticated side of pinterest.com.
//
// Two requests are involved in listing a board:
//   - the board page (<host>/<user>/<board>), whose __PWS_DATA__ script embeds
//     the page state the internal board id is read from
//   - the BoardFeedResource endpoint, which serves the board's pins newest
//     first, 25 per page, chained by an opaque bookmark cursor
//
// Example usage:
//
//	client := pinterest.NewClient(pinterest.Options{Timeout: 30 * time.Second})
//
//	board := models.BoardIdentity{UserName: "someuser", BoardName: "recipes"}
//	id, err := client.ResolveBoardID(ctx, board)
//	if errors.IsNotFound(err) {
//	    // no such public board
//	}
//
//	page, err := client.FetchFeedPage(ctx, id, board, nil)
//	for _, raw := range page.Entries {
//	    entry, err := pinterest.ParseEntry(raw, board)
//	    ...
//	    pin := entry.ResolvedPin()
//	}
//
// The wire format of both documents is observed rather than documented and
// may change without notice.
package pinterest
