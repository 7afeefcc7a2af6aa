package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var ErrNoRemote = errors.New("git: no remote configured")

// Client answers read-only questions about the working tree in Dir.
type Client struct {
	Dir string
}

func New(dir string) *Client {
	return &Client{Dir: dir}
}

func (c *Client) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = c.Dir

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("git %s failed: %s: %w", strings.Join(args, " "), msg, err)
	}

	return strings.TrimSpace(out.String()), nil
}

// CurrentBranch returns the checked-out branch, or the short commit hash when
// HEAD is detached.
func (c *Client) CurrentBranch() (string, error) {
	branch, err := c.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if branch == "HEAD" {
		return c.CommitHash()
	}
	return branch, nil
}

// CurrentRemoteURL returns the URL of origin, or of the first remote when
// there is no origin.
func (c *Client) CurrentRemoteURL() (string, error) {
	if url, err := c.run("remote", "get-url", "origin"); err == nil && url != "" {
		return url, nil
	}

	remotes, err := c.run("remote")
	if err != nil {
		return "", err
	}
	fields := strings.Fields(remotes)
	if len(fields) == 0 {
		return "", ErrNoRemote
	}
	return c.run("remote", "get-url", fields[0])
}

func (c *Client) CommitHash() (string, error) {
	return c.run("rev-parse", "--short=7", "HEAD")
}

func (c *Client) IsDirty() bool {
	out, err := c.run("status", "--porcelain")
	return err == nil && out != ""
}
