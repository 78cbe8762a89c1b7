package middleware

import (
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// wraps h so responses of at least minSize bytes are gzip-compressed
// for clients that accept it; level follows compress/gzip (-1 default, 0-9)
func Compression(h http.Handler, level, minSize int) (http.Handler, error) {
	wrap, err := gzhttp.NewWrapper(
		gzhttp.MinSize(minSize),
		gzhttp.CompressionLevel(level),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build compression wrapper: %w", err)
	}

	return wrap(h), nil
}
