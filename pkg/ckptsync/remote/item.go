package remote

import (
	"path"
	"strings"
)

// Item is a file or folder in a remote store.
type Item struct {
	// Name is the display name (the last path segment).
	Name string
	// ID is the backend identifier. Folder IDs end in "/".
	ID string
}

// IsFolder reports whether the item is a folder.
func (i Item) IsFolder() bool {
	return strings.HasSuffix(i.ID, "/")
}

// Folder returns a folder item for the given name under root.
func Folder(name string) Item {
	name = strings.Trim(name, "/")
	return Item{Name: path.Base(name), ID: name + "/"}
}

// ItemForKey returns the item for an object key.
func ItemForKey(key string) Item {
	return Item{Name: path.Base(strings.TrimSuffix(key, "/")), ID: key}
}

// Child returns the ID of name inside folder. A nil folder means root.
func Child(folder *Item, name string) string {
	if folder == nil || folder.ID == "" {
		return name
	}
	return strings.TrimSuffix(folder.ID, "/") + "/" + name
}

// expandFolders returns items with one folder item inserted before the
// first key beneath each prefix. Explicit folder markers are not repeated.
func expandFolders(items []Item) []Item {
	seen := make(map[string]bool)
	out := make([]Item, 0, len(items))
	for _, it := range items {
		segments := strings.Split(strings.TrimSuffix(it.ID, "/"), "/")
		for i := 1; i < len(segments); i++ {
			id := strings.Join(segments[:i], "/") + "/"
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, Item{Name: segments[i-1], ID: id})
		}
		if it.IsFolder() {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
		}
		out = append(out, it)
	}
	return out
}
