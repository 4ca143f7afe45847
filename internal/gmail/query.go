package gmail

import "fmt"

// BuildQuery assembles the per-category search: sender, exact subject match,
// and exclusion of the processed label so already-handled messages never
// come back. Label exclusion is eventually consistent on Gmail's side; the
// downstream dedup column covers the window.
func BuildQuery(from, subject, excludeLabel string) string {
	return fmt.Sprintf(`from:%s subject:"%s" -label:%s`, from, subject, excludeLabel)
}
