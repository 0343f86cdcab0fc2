package changes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/dusk-indust/archgraph/internal/logging"
)

// ErrNotRepository is returned by GitSource.Toplevel when the workspace is
// not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// GitSource reads the working-tree and staged changes of the repository
// containing a workspace root.
type GitSource struct {
	root    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGitSource returns a source for the workspace at root. A zero timeout
// means 30s per git invocation.
func NewGitSource(root string, timeout time.Duration, logger *slog.Logger) (*GitSource, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GitSource{root: abs, timeout: timeout, logger: logging.OrDefault(logger)}, nil
}

// ChangeSets returns the merged change sets, working tree first and index
// second. A workspace outside any repository yields three empty sets.
func (g *GitSource) ChangeSets(ctx context.Context) (Sets, error) {
	top, err := g.Toplevel(ctx)
	if errors.Is(err, ErrNotRepository) {
		g.logger.Debug("workspace is not in a git repository", "root", g.root)
		return NewSets(), nil
	}
	if err != nil {
		return NewSets(), err
	}
	prefix, err := workspacePrefix(top, g.root)
	if err != nil {
		return NewSets(), err
	}

	status, err := g.run(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return NewSets(), err
	}
	staged, err := g.run(ctx, "diff", "--cached", "-M", "--unified=0", "--no-color", "--no-ext-diff")
	if err != nil {
		return NewSets(), err
	}

	worktree, index := parsePorcelain(status)
	stagedChanges, err := parseStagedDiff(staged)
	if err != nil {
		g.logger.Warn("unparseable staged diff, using status columns", "error", err)
		stagedChanges = index
	}

	m := NewMerger()
	for _, obs := range [][]observation{worktree, stagedChanges} {
		for _, o := range obs {
			if rel, ok := toWorkspace(o.path, prefix); ok {
				m.Observe(rel, o.change)
			}
		}
	}
	return m.Sets(), nil
}

// Toplevel returns the repository root containing the workspace.
func (g *GitSource) Toplevel(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s: %w", g.root, ErrNotRepository)
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// run executes a git command in the workspace root and returns stdout.
func (g *GitSource) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("git %s: timeout after %v", args[0], g.timeout)
		}
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// workspacePrefix is the slash path of root below the repository top level,
// "" when they coincide.
func workspacePrefix(top, root string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if resolved, err := filepath.EvalSymlinks(top); err == nil {
		top = resolved
	}
	rel, err := filepath.Rel(top, root)
	if err != nil {
		return "", fmt.Errorf("workspace %s is outside repository %s: %w", root, top, err)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// toWorkspace converts a repository-relative path to a workspace-relative
// one, dropping paths outside the workspace.
func toWorkspace(repoPath, prefix string) (string, bool) {
	if prefix == "" {
		return repoPath, repoPath != ""
	}
	rest, ok := strings.CutPrefix(repoPath, prefix+"/")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

type observation struct {
	path   string
	change Change
}

// parsePorcelain splits `git status --porcelain=v1 -z` output into
// working-tree observations (Y column and untracked) and index observations
// (X column).
func parsePorcelain(out []byte) (worktree, index []observation) {
	fields := strings.Split(string(out), "\x00")
	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if len(entry) < 4 {
			continue
		}
		x, y, p := entry[0], entry[1], entry[3:]
		// Renamed and copied entries carry the source path in the next field.
		if x == 'R' || x == 'C' || y == 'R' || y == 'C' {
			i++
		}

		if x == '?' && y == '?' {
			worktree = append(worktree, observation{p, ChangeAdded})
			continue
		}
		if x == '!' {
			continue
		}
		if c, ok := statusLetter(y); ok {
			worktree = append(worktree, observation{p, c})
		}
		if c, ok := statusLetter(x); ok {
			index = append(index, observation{p, c})
		}
	}
	return worktree, index
}

func statusLetter(b byte) (Change, bool) {
	switch b {
	case 'A':
		return ChangeAdded, true
	case 'D':
		return ChangeRemoved, true
	case 'M', 'T', 'U':
		return ChangeModified, true
	case 'R':
		return ChangeRenamed, true
	case 'C':
		return ChangeCopied, true
	default:
		return 0, false
	}
}

// parseStagedDiff reads `git diff --cached -M` output.
func parseStagedDiff(out []byte) ([]observation, error) {
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, nil
	}
	fileDiffs, err := diff.NewMultiFileDiffReader(bytes.NewReader(out)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parse staged diff: %w", err)
	}
	obs := make([]observation, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		if o, ok := classifyFileDiff(fd); ok {
			obs = append(obs, o)
		}
	}
	return obs, nil
}

// classifyFileDiff reads the git extended headers first, then falls back to
// the ---/+++ names.
func classifyFileDiff(fd *diff.FileDiff) (observation, bool) {
	var (
		newFile, deleted bool
		renameTo, copyTo string
		headerNew        string
	)
	for _, h := range fd.Extended {
		switch {
		case strings.HasPrefix(h, "diff --git "):
			headerNew = diffGitNewName(h)
		case strings.HasPrefix(h, "new file mode"):
			newFile = true
		case strings.HasPrefix(h, "deleted file mode"):
			deleted = true
		case strings.HasPrefix(h, "rename to "):
			renameTo = unquote(strings.TrimPrefix(h, "rename to "))
		case strings.HasPrefix(h, "copy to "):
			copyTo = unquote(strings.TrimPrefix(h, "copy to "))
		}
	}

	origName := stripSide(fd.OrigName, "a/")
	newName := stripSide(fd.NewName, "b/")

	switch {
	case renameTo != "":
		return observation{renameTo, ChangeRenamed}, true
	case copyTo != "":
		return observation{copyTo, ChangeCopied}, true
	case newFile || (origName == "" && newName != ""):
		return observation{firstNonEmpty(newName, headerNew), ChangeAdded}, firstNonEmpty(newName, headerNew) != ""
	case deleted || (newName == "" && origName != ""):
		return observation{firstNonEmpty(origName, headerNew), ChangeRemoved}, firstNonEmpty(origName, headerNew) != ""
	default:
		p := firstNonEmpty(newName, origName, headerNew)
		return observation{p, ChangeModified}, p != ""
	}
}

// stripSide removes the a/ or b/ prefix; /dev/null becomes "".
func stripSide(name, side string) string {
	name = unquote(strings.TrimSpace(name))
	if name == "/dev/null" {
		return ""
	}
	return strings.TrimPrefix(name, side)
}

// diffGitNewName extracts P from "diff --git a/P b/P". For renames the two
// sides differ and the caller relies on "rename to" instead.
func diffGitNewName(h string) string {
	rest := strings.TrimPrefix(h, "diff --git ")
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return unquote(rest[i+3:])
	}
	return ""
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
