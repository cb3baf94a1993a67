package caption

import "context"

// Captioner produces a folder-safe, one-word label for an image.
type Captioner interface {
	Caption(ctx context.Context, image []byte) (string, bool)
}

// Func adapts a plain function to the Captioner interface. The returned label
// is normalized the same way Client normalizes model output.
type Func func(ctx context.Context, image []byte) (string, bool)

// Caption implements Captioner.
func (f Func) Caption(ctx context.Context, image []byte) (string, bool) {
	if f == nil {
		return "", false
	}
	raw, ok := f(ctx, image)
	if !ok {
		return "", false
	}
	return NormalizeLabel(raw)
}

// Nop never captions.
type Nop struct{}

// Caption implements Captioner.
func (Nop) Caption(context.Context, []byte) (string, bool) { return "", false }
