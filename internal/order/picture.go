// internal/order/picture.go
//
// Orderform – order domain: asynchronous picture loading.
//
// Context
//   LoadPicture reads a user-selected file in its own goroutine, checks that
//   the bytes are an image, and encodes them as a data URL the renderer can
//   embed directly in <img src>.  Ordering between overlapping loads is
//   resolved by Controller.BeginPicture / CompletePicture.
//
//   Failures (read error, not an image, over the size cap) leave the state
//   untouched and are reported through PictureLoad.Wait.
//
//------------------------------------------------------------------------------

package order

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultPictureMaxBytes caps a picture when the caller passes limit <= 0.
const DefaultPictureMaxBytes = 5 << 20

var (
	ErrNotImage        = errors.New("order: picture is not an image")
	ErrPictureTooLarge = errors.New("order: picture exceeds size limit")
)

// PictureLoad tracks one in-flight read.
type PictureLoad struct {
	Seq uint64

	done    chan struct{}
	applied bool
	err     error
}

// Wait blocks until the load finishes or ctx ends.  applied is false when the
// read failed or a newer load had already been applied.
func (p *PictureLoad) Wait(ctx context.Context) (applied bool, err error) {
	select {
	case <-p.done:
		return p.applied, p.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Done is closed when the load has finished.
func (p *PictureLoad) Done() <-chan struct{} { return p.done }

// Result blocks until the load has finished and returns its outcome.  Unlike
// Wait it cannot be cut short, so it reports what actually reached the state.
func (p *PictureLoad) Result() (applied bool, err error) {
	<-p.done
	return p.applied, p.err
}

// LoadPicture starts reading src.  limit bounds the accepted size in bytes.
func (c *Controller) LoadPicture(src io.Reader, limit int64) *PictureLoad {
	if limit <= 0 {
		limit = DefaultPictureMaxBytes
	}
	p := &PictureLoad{Seq: c.BeginPicture(), done: make(chan struct{})}

	go func() {
		defer close(p.done)
		dataURL, err := EncodePicture(src, limit)
		if err != nil {
			p.err = err
			return
		}
		p.applied = c.CompletePicture(p.Seq, dataURL)
	}()
	return p
}

// EncodePicture reads at most limit bytes from src and returns a base64 data
// URL carrying the detected image MIME type.
func EncodePicture(src io.Reader, limit int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return "", fmt.Errorf("read picture: %w", err)
	}
	if int64(len(raw)) > limit {
		return "", ErrPictureTooLarge
	}

	mt := mimetype.Detect(raw)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}

	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mt.String()) + base64.StdEncoding.EncodedLen(len(raw)))
	b.WriteString("data:")
	b.WriteString(mt.String())
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(raw))
	return b.String(), nil
}
