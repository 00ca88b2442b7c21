// Package storage writes downloaded pin resources to disk.
//
// Each resource is stored as <pin_id><ext> in the output directory, the
// extension taken from the resource URL. Files already present when a
// Manager is created count as downloaded, so interrupted runs pick up where
// they stopped.
//
// Usage:
//
//	manager, err := storage.NewManager("pins/someuser/recipes")
//	if err != nil {
//	    return err
//	}
//
//	if !manager.IsDownloaded(pin.ID) {
//	    path, err := manager.Save(body, pin.ID, storage.ExtensionFor(pin.ResourceLink))
//	    ...
//	}
package storage
