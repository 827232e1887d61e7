// Package repl implements the interactive command loop of the harness.
//
// Lines are one of:
//
//	load <path>                      load a wasm file under its canonical name
//	run <module> <entry> [args...]   run a module export
//	!<entry> [args]                  run a native entry point
//	!<module>.<entry> [args]         run a module export
//	list                             list entry points and modules
//	help
//	quit
//
// Each reply is one line prefixed with "++ " on success or "!! " on
// failure.
package repl

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a parsed command.
type Kind int

const (
	KindLoad Kind = iota + 1
	KindRun
	KindCall
	KindList
	KindHelp
	KindQuit
)

// Command is one parsed REPL line.
type Command struct {
	Kind Kind

	// Path is the file to load, for KindLoad.
	Path string

	// URL is set instead of Path when the module is loaded over HTTP.
	URL string

	// Module is empty when Entry names a native entry point.
	Module string
	Entry  string

	// Args is the guest input.
	Args string
}

// ErrUnparsable is returned for lines that are not a command.
var ErrUnparsable = errors.New("cannot parse input")

// ParseCommand parses one line. Blank lines are reported as
// ErrUnparsable too; callers skip them before parsing.
func ParseCommand(line string) (Command, error) {
	trimmed := strings.TrimLeft(line, " \t")
	if rest, ok := strings.CutPrefix(trimmed, "!"); ok {
		return parseBang(rest)
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnparsable
	}
	switch fields[0] {
	case "load":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: usage: load <path|url>", ErrUnparsable)
		}
		if isURL(fields[1]) {
			return Command{Kind: KindLoad, URL: fields[1]}, nil
		}
		return Command{Kind: KindLoad, Path: fields[1]}, nil
	case "run":
		if len(fields) < 3 {
			return Command{}, fmt.Errorf("%w: usage: run <module> <entry> [args...]", ErrUnparsable)
		}
		return Command{
			Kind:   KindRun,
			Module: fields[1],
			Entry:  fields[2],
			Args:   strings.Join(fields[3:], " "),
		}, nil
	case "list":
		return Command{Kind: KindList}, nil
	case "help":
		return Command{Kind: KindHelp}, nil
	case "quit", "exit":
		return Command{Kind: KindQuit}, nil
	}
	return Command{}, ErrUnparsable
}

// parseBang parses what follows "!": optional blanks, a name, optional
// blanks, then the arguments verbatim.
func parseBang(s string) (Command, error) {
	s = strings.TrimLeft(s, " \t")
	first, n := identifier(s)
	if n == 0 {
		return Command{}, ErrUnparsable
	}
	cmd := Command{Kind: KindCall, Entry: first}
	s = s[n:]

	if rest, ok := strings.CutPrefix(s, "."); ok {
		if second, m := identifier(rest); m > 0 {
			cmd.Module, cmd.Entry = first, second
			s = rest[m:]
		}
	}
	cmd.Args = strings.TrimLeft(s, " \t")
	return cmd, nil
}

// identifier returns the longest [A-Za-z_][A-Za-z0-9_]* prefix of s and
// its length.
func identifier(s string) (string, int) {
	n := 0
	for n < len(s) {
		c := s[n]
		letter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if !letter && !(digit && n > 0) {
			break
		}
		n++
	}
	return s[:n], n
}

// SplitName splits "entry" or "module.entry". Both parts must be
// identifiers.
func SplitName(name string) (module, entry string, err error) {
	first, n := identifier(name)
	switch {
	case n == 0:
	case n == len(name):
		return "", first, nil
	case name[n] == '.':
		if second, m := identifier(name[n+1:]); m > 0 && n+1+m == len(name) {
			return first, second, nil
		}
	}
	return "", "", fmt.Errorf("invalid entry point name %q", name)
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
