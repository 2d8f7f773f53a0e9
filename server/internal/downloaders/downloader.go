package downloaders

import "context"

// Fetcher stores the media behind url at path.
type Fetcher interface {
	Fetch(ctx context.Context, url, path string) error
}

// StatusFunc receives the human readable lines emitted while a batch runs.
type StatusFunc func(msg string)

func (f StatusFunc) emit(msg string) {
	if f != nil {
		f(msg)
	}
}
