package transfer

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// fileSink writes to a file. A failed transfer leaves the partial file.
type fileSink struct {
	file afero.File
}

// FileSink creates or truncates the file at path.
func FileSink(fs afero.Fs, path string) (Sink, error) {
	file, err := fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileSink{file: file}, nil
}

func (s *fileSink) Write(b []byte) (int, error) {
	return s.file.Write(b)
}

func (s *fileSink) Close() error {
	return multierr.Append(s.file.Sync(), s.file.Close())
}

func (s *fileSink) Abort(error) {
	s.file.Close()
}

// commandSink feeds the standard input of a process.
type commandSink struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// CommandSink starts cmd with a pipe on its standard input. On clean completion the pipe is
// closed and the process is waited for, its exit status is the result of the sink.
func CommandSink(cmd *exec.Cmd) (Sink, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", cmd.Path, err)
	}
	return &commandSink{cmd: cmd, stdin: stdin}, nil
}

func (s *commandSink) Write(b []byte) (int, error) {
	return s.stdin.Write(b)
}

func (s *commandSink) Close() error {
	return multierr.Append(s.stdin.Close(), s.cmd.Wait())
}

func (s *commandSink) Abort(error) {
	s.stdin.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
}

// connSink sends to a network connection.
type connSink struct {
	conn net.Conn
}

// ConnSink writes to conn. On clean completion the write side is shut down when the
// connection supports it, then the connection is closed.
func ConnSink(conn net.Conn) Sink {
	return &connSink{conn: conn}
}

func (s *connSink) Write(b []byte) (int, error) {
	return s.conn.Write(b)
}

func (s *connSink) Close() error {
	var err error
	if cw, ok := s.conn.(interface{ CloseWrite() error }); ok {
		err = cw.CloseWrite()
	}
	return multierr.Append(err, s.conn.Close())
}

func (s *connSink) Abort(error) {
	s.conn.Close()
}
