package models

// MediaAsset is an uploaded CDN resource
type MediaAsset struct {
	PublicID     string `json:"public_id"`
	URL          string `json:"url"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Format       string `json:"format,omitempty"`
	ResourceType string `json:"resource_type"`
	Bytes        int64  `json:"bytes"`
}

// ImageSource records how the client acquired an image
type ImageSource string

const (
	ImageFromLibrary ImageSource = "library"
	ImageFromCamera  ImageSource = "camera"
)

func (s ImageSource) Valid() bool {
	return s == ImageFromLibrary || s == ImageFromCamera
}

// AssetOptions controls delivery URL transformations
type AssetOptions struct {
	ResourceType string // image (default) or video
	Width        int
	Height       int
	Crop         string // fill (default), thumb, scale
	Quality      string // "auto" or a number
	Format       string // omitted when empty or "auto"
}
