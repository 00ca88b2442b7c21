package models

import "fmt"

// Pin is one image or video item on a board
type Pin struct {
	ID           int64  `json:"pin_id" yaml:"pin_id"`
	ResourceLink string `json:"resource_link" yaml:"resource_link"`
	Title        string `json:"title" yaml:"title"`
	BoardName    string `json:"board_name" yaml:"board_name"`
	BoardAuthor  string `json:"board_author" yaml:"board_author"`
}

// Key returns the identity key of a pin
func (p Pin) Key() int64 {
	return p.ID
}

// Equal reports whether two pins are the same pin. Only the id is compared.
func (p Pin) Equal(other Pin) bool {
	return p.ID == other.ID
}

// IsVideo reports whether the resource link points at a video asset
func (p Pin) IsVideo() bool {
	n := len(p.ResourceLink)
	return n >= 4 && p.ResourceLink[n-4:] == ".mp4"
}

// BoardIdentity identifies a board by owner and name. The resolved board id is not part of it.
type BoardIdentity struct {
	UserName  string `json:"user_name" yaml:"user_name"`
	BoardName string `json:"board_name" yaml:"board_name"`
}

// Equal reports whether two identities name the same board
func (b BoardIdentity) Equal(other BoardIdentity) bool {
	return b.UserName == other.UserName && b.BoardName == other.BoardName
}

// Key returns a map key for the identity
func (b BoardIdentity) Key() string {
	return b.UserName + "/" + b.BoardName
}

func (b BoardIdentity) String() string {
	return fmt.Sprintf("board '%s' of user '%s'", b.BoardName, b.UserName)
}

// Path returns the board's path on the site, e.g. "/alice/recipes/"
func (b BoardIdentity) Path() string {
	return "/" + b.UserName + "/" + b.BoardName + "/"
}
