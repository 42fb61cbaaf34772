package client

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// MaxImageBytes caps inline images sent with signup and new posts.
const MaxImageBytes = 5 << 20

// EncodeImageFile reads an image from disk and returns it as a data URL,
// the inline form the API accepts for profile pictures and post images.
func EncodeImageFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return EncodeImage(data)
}

// EncodeImage returns data as a data URL after checking it is an image.
func EncodeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ValidationError{Message: "image is empty"}
	}
	if len(data) > MaxImageBytes {
		return "", &ValidationError{Message: fmt.Sprintf("image is larger than %d MB", MaxImageBytes>>20)}
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", &ValidationError{Message: fmt.Sprintf("not an image (%s)", mime)}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
