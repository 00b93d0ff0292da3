package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client provides the git operations used after a sync
type Client interface {
	// TopLevel returns the root of the working tree containing dir
	TopLevel(ctx context.Context, dir string) (string, error)
	// Add stages the given paths in the working tree containing dir
	Add(ctx context.Context, dir string, paths ...string) error
}

// ShellClient implements Client by shelling out to the git command
type ShellClient struct{}

// NewShellClient creates a new git client that uses the git command
func NewShellClient() *ShellClient {
	return &ShellClient{}
}

// TopLevel resolves the working tree root with `git rev-parse`
func (c *ShellClient) TopLevel(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed in %s: %w", dir, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Add runs `git add` for paths. Paths may be absolute or relative to dir.
func (c *ShellClient) Add(ctx context.Context, dir string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	args := append([]string{"-C", dir, "add", "--"}, paths...)
	cmd := exec.CommandContext(ctx, "git", args...)
	if err := c.runCommand(cmd); err != nil {
		return fmt.Errorf("git add failed: %w", err)
	}
	return nil
}

// runCommand executes a command and returns an error with stderr on failure
func (c *ShellClient) runCommand(cmd *exec.Cmd) error {
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
