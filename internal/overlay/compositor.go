// Package overlay composites generated artwork onto rendered card
// images at the rectangle resolved from the card's layout.
package overlay

import (
	"fmt"
	"image"
	"io"
	"os"

	"github.com/disintegration/imaging"

	"github.com/michaelwuwar/CardGener/internal/layout"
)

// Error reports an unusable overlay input: an unreadable image or a
// rectangle too far outside the base image to clamp.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("overlay failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("overlay failed: %s", e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Composite writes the base image with the artwork pasted into bounds
// to outPath. When hasBounds is false or artPath is empty, the base is
// copied to outPath byte for byte and no compositing happens.
func Composite(basePath, artPath, outPath string, bounds layout.Bounds, hasBounds bool) error {
	if !hasBounds || artPath == "" {
		return copyFile(basePath, outPath)
	}

	base, err := imaging.Open(basePath)
	if err != nil {
		return &Error{Message: fmt.Sprintf("cannot open base image %s", basePath), Err: err}
	}
	art, err := imaging.Open(artPath)
	if err != nil {
		return &Error{Message: fmt.Sprintf("cannot open artwork image %s", artPath), Err: err}
	}

	out, err := CompositeImage(base, art, bounds)
	if err != nil {
		return err
	}

	if err := imaging.Save(out, outPath); err != nil {
		return &Error{Message: fmt.Sprintf("cannot save composited image %s", outPath), Err: err}
	}
	return nil
}

// CompositeImage pastes art into base at bounds. The artwork is resized
// aspect-fill and center-cropped to the rectangle's aspect ratio, so it
// exactly covers the rectangle without distortion.
func CompositeImage(base image.Image, art image.Image, bounds layout.Bounds) (image.Image, error) {
	rect, err := clampRect(bounds, base.Bounds())
	if err != nil {
		return nil, err
	}

	fitted := imaging.Fill(art, rect.Dx(), rect.Dy(), imaging.Center, imaging.Lanczos)
	return imaging.Paste(base, fitted, rect.Min), nil
}

// clampRect clips the target rectangle to the base image. Minor
// overflow is tolerated: the clipped rectangle must retain at least
// half the requested area, otherwise the bounds are unusable.
func clampRect(b layout.Bounds, baseBounds image.Rectangle) (image.Rectangle, error) {
	if b.Width <= 0 || b.Height <= 0 {
		return image.Rectangle{}, &Error{Message: fmt.Sprintf("bounds have no area: %dx%d", b.Width, b.Height)}
	}
	want := image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
	got := want.Intersect(baseBounds)
	if got.Empty() {
		return image.Rectangle{}, &Error{
			Message: fmt.Sprintf("bounds %v lie entirely outside base image %v", want, baseBounds),
		}
	}
	wantArea := want.Dx() * want.Dy()
	gotArea := got.Dx() * got.Dy()
	if gotArea*2 < wantArea {
		return image.Rectangle{}, &Error{
			Message: fmt.Sprintf("bounds %v lose too much area when clipped to base image %v", want, baseBounds),
		}
	}
	return got, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &Error{Message: fmt.Sprintf("cannot open base image %s", src), Err: err}
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return &Error{Message: fmt.Sprintf("cannot create output image %s", dst), Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return &Error{Message: "cannot copy base image", Err: err}
	}
	return nil
}
