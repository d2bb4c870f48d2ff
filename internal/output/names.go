// Package output names and stores page renders and tiles.
//
// Layout, with 0-based document page indices:
//
//	<root>/Word_List_<page>/page_<page>.<ext>
//	<root>/Word_List_<page>/word_list_<page>_<region>_cut_<seq>.<ext>
//
// region is the 1-based reading-order index of the region on its page and
// seq is the page's tile counter, starting at 1 and running across regions.
package output

import "fmt"

// PageDir returns the directory name of a page.
func PageDir(page int) string { return fmt.Sprintf("Word_List_%d", page) }

// PageImageName returns the file name of the rendered page.
func PageImageName(page int, ext string) string { return fmt.Sprintf("page_%d%s", page, ext) }

// TileName returns the file name of one tile.
func TileName(page, region, seq int, ext string) string {
	return fmt.Sprintf("word_list_%d_%d_cut_%d%s", page, region, seq, ext)
}
