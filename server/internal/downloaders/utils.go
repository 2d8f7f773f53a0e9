package downloaders

import (
	"bufio"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var unsafeArg = regexp.MustCompile(`(\$\{)|(\&\&)`)

func argsSanitizer(params []string) []string {
	return slices.DeleteFunc(slices.Clone(params), func(e string) bool {
		return e == "" || unsafeArg.MatchString(e)
	})
}

// escapeOutput keeps yt-dlp from expanding a literal file name as an output
// template.
func escapeOutput(path string) string {
	return strings.ReplaceAll(path, "%", "%%")
}

// drainErrors logs every stderr line of a yt-dlp process and returns the last
// one, which carries the reason of a failure.
func drainErrors(r io.Reader, url string) string {
	var last string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		slog.Debug("yt-dlp stderr",
			slog.String("url", url),
			slog.String("line", line),
		)
		last = line
	}

	return last
}

// validURL accepts absolute http(s) urls only.
func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// targetPath joins name to folder and reports whether the result stays
// strictly inside folder.
func targetPath(folder, name string) (string, bool) {
	path := filepath.Join(folder, name)

	rel, err := filepath.Rel(folder, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}
