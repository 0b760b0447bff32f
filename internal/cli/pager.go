package cli

import (
	"bufio"
	"errors"
	"os"
	"os/exec"
	"syscall"

	gerrors "github.com/git-graph/git-graph/pkg/errors"
)

// writeLines prints the rendered lines, through a pager when requested and
// one is available. The pager is taken from $GIT_GRAPH_PAGER, then $PAGER,
// then "less".
func writeLines(lines []string, usePager bool) error {
	if !usePager {
		return writeDirect(lines)
	}

	pager := os.Getenv("GIT_GRAPH_PAGER")
	if pager == "" {
		pager = os.Getenv("PAGER")
	}
	args := []string{}
	if pager == "" {
		// -R passes color escapes through, -F quits immediately when the
		// output fits on one screen, -X keeps it on the screen afterwards.
		pager = "less"
		args = []string{"-RFX"}
	}

	cmd := exec.Command(pager, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return writeDirect(lines)
	}
	if err := cmd.Start(); err != nil {
		return writeDirect(lines)
	}

	w := bufio.NewWriter(stdin)
	var writeErr error
	for _, line := range lines {
		if _, writeErr = w.WriteString(line); writeErr != nil {
			break
		}
		if _, writeErr = w.WriteString("\n"); writeErr != nil {
			break
		}
	}
	if writeErr == nil {
		writeErr = w.Flush()
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return gerrors.Wrap(gerrors.ErrCodeRender, err, "pager %s", pager)
	}
	// The user quitting the pager mid-stream closes our pipe; that is a
	// normal exit, not an error.
	if writeErr != nil && !isBrokenPipe(writeErr) {
		return gerrors.Wrap(gerrors.ErrCodeRender, writeErr, "write to pager")
	}
	return nil
}

func writeDirect(lines []string) error {
	w := bufio.NewWriter(os.Stdout)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		if _, err := w.WriteString("\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed)
}

// renderWriteError classifies an output failure: a broken pipe is a
// graceful exit, anything else is a render error.
func renderWriteError(err error) error {
	if err == nil || isBrokenPipe(err) {
		return nil
	}
	if gerrors.GetCode(err) != "" {
		return err
	}
	return gerrors.Wrap(gerrors.ErrCodeRender, err, "write output")
}
