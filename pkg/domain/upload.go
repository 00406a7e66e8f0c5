package domain

import "strings"

// MaxImageSize is the largest image the backend accepts (5 MiB).
const MaxImageSize = 5 << 20

// Upload is an image file picked for a multipart form.
// Data is only populated for files within MaxImageSize.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// IsImage reports whether the sniffed content type is an image type.
func (u Upload) IsImage() bool {
	return strings.HasPrefix(u.ContentType, "image/")
}
