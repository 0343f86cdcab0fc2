package graph

import (
	"bufio"
	"bytes"
	"path"
	"strings"
)

// lineCommentMarkers start a comment-only line, by extension. Anything not
// listed uses "//".
var lineCommentMarkers = map[string][]string{
	".py": {"#"}, ".rb": {"#"}, ".sh": {"#"}, ".bash": {"#"}, ".zsh": {"#"},
	".yaml": {"#"}, ".yml": {"#"}, ".toml": {"#"}, ".ps1": {"#"},
	".ex": {"#"}, ".exs": {"#"},
	".php": {"//", "#"},
	".sql": {"--"}, ".lua": {"--"}, ".hs": {"--"},
	".graphql": {"#"}, ".gql": {"#"},
}

var defaultCommentMarkers = []string{"//"}

func commentMarkers(p string) []string {
	if m, ok := lineCommentMarkers[strings.ToLower(path.Ext(p))]; ok {
		return m
	}
	return defaultCommentMarkers
}

// blockCommentLines are lines that consist solely of a block-comment delimiter.
var blockCommentLines = map[string]bool{
	"/*": true, "*/": true, "/**": true, "**/": true,
	"<!--": true, "-->": true,
	`"""`: true, "'''": true,
	"{-": true, "-}": true,
}

// CountLOC counts non-blank lines of the file at p that are not
// comment-only. Detection is line-prefix based, not a tokenizer: a line that
// opens a block comment and carries code after it still counts. The
// extension of p picks the line-comment markers.
func CountLOC(p string, source []byte) int {
	markers := commentMarkers(p)
	loc := 0
	scanner := bufio.NewScanner(bytes.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isCommentLine(line, markers) {
			continue
		}
		loc++
	}
	return loc
}

func isCommentLine(line string, markers []string) bool {
	if blockCommentLines[line] {
		return true
	}
	// "* text" continuation inside a /** ... */ block.
	if line == "*" || strings.HasPrefix(line, "* ") {
		return true
	}
	for _, m := range markers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}
