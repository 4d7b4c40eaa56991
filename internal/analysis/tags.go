package analysis

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Title returns a display title for the file at path from its embedded tags
// ("Artist - Title"), falling back to the file name without its extension.
func Title(path string) string {
	var artist, title string
	if f, err := os.Open(path); err == nil {
		if m, err := tag.ReadFrom(f); err == nil {
			artist, title = m.Artist(), m.Title()
		}
		f.Close()
	}
	return formatTitle(path, artist, title)
}

func formatTitle(path, artist, title string) string {
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	switch {
	case title == "":
		base := filepath.Base(path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	case artist == "":
		return title
	default:
		return artist + " - " + title
	}
}
