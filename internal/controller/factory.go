package controller

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// UI kinds accepted by NewUI.
const (
	KindSimple = "simple"
	KindTUI    = "tui"
)

// NewUI picks the interactive TUI when requested and the output is a
// terminal, and falls back to SimpleUI otherwise.
func NewUI(cmd *cobra.Command, kind string) UI {
	if kind == KindTUI && isTerminal(cmd.OutOrStdout()) {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
