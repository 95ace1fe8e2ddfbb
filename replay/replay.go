// Package replay records what a world.Source reported, tick by tick, and
// plays it back as a world.Source. Recordings are JSON lines compressed with
// zstd, one Frame per snapshot.
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrEndOfRecording is returned once every frame has been read.
var ErrEndOfRecording = errors.New("replay: end of recording")

// Writer appends frames to a compressed stream.
type Writer struct {
	mu     sync.Mutex
	closer io.Closer
	enc    *zstd.Encoder
	w      *bufio.Writer
	frames int
}

// NewWriter compresses frames into dst. Closing the Writer does not close dst.
func NewWriter(dst io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("replay: new encoder: %w", err)
	}
	return &Writer{
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

// Create opens path for writing, truncating it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

func (w *Writer) Write(frame Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return errors.New("replay: write on closed writer")
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("replay: marshal frame %d: %w", frame.Tick, err)
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Frames counts the frames written so far.
func (w *Writer) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return nil
	}
	err := w.w.Flush()
	err = errors.Join(err, w.enc.Close())
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}
	w.w = nil
	w.enc = nil
	return err
}

// Reader reads frames back in order.
type Reader struct {
	closer io.Closer
	dec    *zstd.Decoder
	sc     *bufio.Scanner
	line   int
}

func NewReader(src io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("replay: new decoder: %w", err)
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{dec: dec, sc: sc}, nil
}

// Open reads the recording at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Next returns the next frame, or ErrEndOfRecording.
func (r *Reader) Next() (Frame, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return Frame{}, fmt.Errorf("replay: line %d: %w", r.line+1, err)
		}
		return Frame{}, ErrEndOfRecording
	}
	r.line++

	var frame Frame
	if err := json.Unmarshal(r.sc.Bytes(), &frame); err != nil {
		return Frame{}, fmt.Errorf("replay: line %d: unmarshal: %w", r.line, err)
	}
	return frame, nil
}

func (r *Reader) Close() error {
	r.dec.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
