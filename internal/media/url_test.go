package media

import (
	"errors"
	"testing"

	"sitetrack/internal/domain/models"
)

func TestAssetURL(t *testing.T) {
	c := NewClient(Config{CloudName: "demo"}, testLogger())

	tests := []struct {
		name string
		opts models.AssetOptions
		want string
	}{
		{"plain", models.AssetOptions{}, "https://res.cloudinary.com/demo/image/upload/site/a1"},
		{"width only", models.AssetOptions{Width: 200}, "https://res.cloudinary.com/demo/image/upload/c_fill,w_200/site/a1"},
		{"thumb", models.AssetOptions{Width: 100, Height: 80, Crop: "thumb"}, "https://res.cloudinary.com/demo/image/upload/c_thumb,w_100,h_80/site/a1"},
		{"quality and format", models.AssetOptions{Quality: "auto", Format: "webp"}, "https://res.cloudinary.com/demo/image/upload/q_auto,f_webp/site/a1"},
		{"auto format omitted", models.AssetOptions{Format: "auto"}, "https://res.cloudinary.com/demo/image/upload/site/a1"},
		{"video", models.AssetOptions{ResourceType: "video"}, "https://res.cloudinary.com/demo/video/upload/site/a1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.AssetURL("site/a1", tt.opts)
			if err != nil {
				t.Fatalf("AssetURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssetURL_NotConfigured(t *testing.T) {
	c := NewClient(Config{}, testLogger())
	if _, err := c.AssetURL("x", models.AssetOptions{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}
