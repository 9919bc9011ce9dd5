package shell

import (
	"bufio"
	"errors"
	"io"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

// LineReader supplies command lines. *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("insert", readline.PcItem("-")),
	readline.PcItem("update"),
	readline.PcItem("delete"),
	readline.PcItem("window"),
	readline.PcItem("range"),
	readline.PcItem("knn"),
	readline.PcItem("stats"),
	readline.PcItem("check"),
	readline.PcItem("set-log-level",
		readline.PcItem("debug"),
		readline.PcItem("info"),
		readline.PcItem("warn"),
		readline.PcItem("error"),
	),
	readline.PcItem("help"),
	readline.PcItem("quit"),
)

// NewTerminal creates a line editor with history and command completion for
// interactive use. An empty historyFile disables history.
func NewTerminal(historyFile string) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:          color.New(color.FgCyan).Sprint("rtree» "),
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
}

type scanner struct {
	sc *bufio.Scanner
}

// NewScanner reads one command per line from r, for scripts and piped input.
func NewScanner(r io.Reader) LineReader {
	return scanner{bufio.NewScanner(r)}
}

func (s scanner) Readline() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func isEndOfInput(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt)
}
