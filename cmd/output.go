// ABOUTME: Output helpers shared by commands
// ABOUTME: Renders results as human text, JSON or YAML and formats common fields

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/markalston/wishlist-cli/internal/client"
	"gopkg.in/yaml.v3"
)

// render writes v in the selected machine format, or calls human for text output
func render(w io.Writer, v any, human func(io.Writer)) error {
	switch format() {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		// round-trip through JSON so YAML keys match the API's field names
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		fmt.Fprint(w, string(out))
	case "text", "":
		human(w)
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format())
	}
	return nil
}

// renderOrFail is render with the error printed as a command failure
func renderOrFail(w io.Writer, v any, human func(io.Writer)) int {
	if err := render(w, v, human); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

// since formats t relative to now, or "-" for the zero time
func since(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%s %s", humanize.Comma(int64(n)), word)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), word)
}

func formatUser(u client.UserSummary) string {
	line := fmt.Sprintf("@%s", u.Username)
	if u.FullName != "" {
		line += fmt.Sprintf(" (%s)", u.FullName)
	}
	if u.IsAdmin() {
		line += " [admin]"
	}
	return line
}

// formatPost renders one post as a short block; viewer marks posts the viewer liked
func formatPost(p client.Post, viewer int64) string {
	var b strings.Builder
	heart := "♡"
	if viewer != 0 && p.LikedBy(viewer) {
		heart = "♥"
	}
	fmt.Fprintf(&b, "#%d %s", p.ID, p.Title)
	if p.IsPrivate {
		b.WriteString(" [private]")
	}
	b.WriteString("\n")
	meta := []string{"@" + p.User.Username}
	if p.ShopName != "" {
		meta = append(meta, p.ShopName)
	}
	if p.Price != "" {
		meta = append(meta, p.Price)
	}
	meta = append(meta, since(p.CreatedAt))
	fmt.Fprintf(&b, "   %s\n", strings.Join(meta, " · "))
	fmt.Fprintf(&b, "   %s %d  💬 %d", heart, len(p.LikeList), len(p.CommentList))
	if p.ItemURL != "" {
		fmt.Fprintf(&b, "  %s", p.ItemURL)
	}
	return b.String()
}

func writePosts(w io.Writer, posts []client.Post, viewer int64) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts.")
		return
	}
	for i, p := range posts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, formatPost(p, viewer))
	}
}

func writePageFooter[T any](w io.Writer, page *client.Page[T]) {
	if page.TotalPages == 0 {
		return
	}
	fmt.Fprintf(w, "\nPage %d of %d", page.Number+1, page.TotalPages)
	if page.TotalElements > 0 {
		fmt.Fprintf(w, " (%s total)", humanize.Comma(page.TotalElements))
	}
	fmt.Fprintln(w)
}
