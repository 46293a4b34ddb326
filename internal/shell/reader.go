package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const prompt = "ovsnett> "

// lineReader reads one command line at a time. suspend/resume hand the
// terminal to a child process and take it back.
type lineReader interface {
	ReadLine() (string, error)
	// writer is where command output goes while the reader owns the
	// terminal.
	writer() io.Writer
	suspend() error
	resume() error
	close() error
}

func newLineReader(in io.Reader, out io.Writer) (lineReader, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return newTermReader(f, out)
	}
	return &plainReader{scanner: bufio.NewScanner(in), out: out}, nil
}

// termReader gives line editing and history on an interactive terminal
type termReader struct {
	fd    int
	state *term.State
	term  *term.Terminal
}

func newTermReader(f *os.File, out io.Writer) (*termReader, error) {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("terminal raw mode: %w", err)
	}

	rw := struct {
		io.Reader
		io.Writer
	}{f, out}

	return &termReader{
		fd:    fd,
		state: state,
		term:  term.NewTerminal(rw, prompt),
	}, nil
}

func (r *termReader) ReadLine() (string, error) {
	return r.term.ReadLine()
}

func (r *termReader) writer() io.Writer {
	return r.term
}

func (r *termReader) suspend() error {
	return term.Restore(r.fd, r.state)
}

func (r *termReader) resume() error {
	state, err := term.MakeRaw(r.fd)
	if err != nil {
		return err
	}
	r.state = state
	return nil
}

func (r *termReader) close() error {
	return term.Restore(r.fd, r.state)
}

// plainReader reads scripted input, one command per line
type plainReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *plainReader) ReadLine() (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *plainReader) writer() io.Writer { return r.out }
func (r *plainReader) suspend() error    { return nil }
func (r *plainReader) resume() error     { return nil }
func (r *plainReader) close() error      { return nil }
