// Package prompt reads operator input from a terminal for the command-line
// tools.
package prompt

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// ErrMismatch is returned by ConfirmedPassword when the two entries differ.
var ErrMismatch = errors.New("passwords do not match")

// Line prints prompt to w and reads a single trimmed line from reader.
// A partial line before EOF is returned as is.
func Line(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password prints prompt to w and reads a password without echo.
func Password(prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer clear(pw)
	return string(bytes.TrimSpace(pw)), nil
}

// ConfirmedPassword asks for the password twice.
func ConfirmedPassword(w io.Writer) (string, error) {
	first, err := Password("Password", w)
	if err != nil {
		return "", err
	}
	second, err := Password("Repeat password", w)
	if err != nil {
		return "", err
	}
	if first != second {
		return "", ErrMismatch
	}
	return first, nil
}
