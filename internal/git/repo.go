package git

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// Checkout is what the local working copy tells about the project it belongs to.
type Checkout struct {
	// Project is the URL-escaped "group/project" path of the origin remote,
	// usable wherever the server takes a project ID.
	Project string
	Branch  string
}

// Detect inspects the git checkout around the working directory. Outside a
// checkout, or without git installed, it returns an error.
func Detect(ctx context.Context) (Checkout, error) {
	var c Checkout

	branch, err := CurrentBranch(ctx)
	if err != nil {
		return Checkout{}, err
	}
	c.Branch = branch

	// A checkout without an origin remote still has a branch.
	if remote, err := run(ctx, "remote", "get-url", "origin"); err == nil {
		c.Project = ProjectPath(remote)
	}
	return c, nil
}

// CurrentBranch returns the name of the current branch, empty on a detached HEAD.
func CurrentBranch(ctx context.Context) (string, error) {
	out, err := run(ctx, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	return out, nil
}

// ProjectPath turns a remote URL into an escaped project path:
//
//	git@gitlab.example.com:group/sub/app.git  ->  group%2Fsub%2Fapp
//	https://gitlab.example.com/group/app      ->  group%2Fapp
//
// It returns "" when remote has no usable path.
func ProjectPath(remote string) string {
	remote = strings.TrimSpace(remote)
	var path string

	switch {
	case strings.Contains(remote, "://"):
		u, err := url.Parse(remote)
		if err != nil {
			return ""
		}
		path = u.Path
	case strings.Contains(remote, ":"):
		// scp-like syntax: [user@]host:path
		path = remote[strings.Index(remote, ":")+1:]
	default:
		return ""
	}

	path = strings.Trim(strings.TrimSuffix(strings.Trim(path, "/"), ".git"), "/")
	if path == "" || !strings.Contains(path, "/") {
		return ""
	}
	return url.PathEscape(path)
}

func run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
