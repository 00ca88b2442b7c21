// Package cache persists the pin list of one board in a local JSON manifest.
//
// A manifest records which board it belongs to. Loading it for any other
// board fails with a cache_identity_mismatch error, and a file that cannot be
// decoded fails with cache_corrupted. A missing file is not an error: it
// means nothing has been cached yet.
//
// Saves rewrite the whole file through a temporary file and a rename, so a
// crash never leaves a half-written manifest behind.
package cache
