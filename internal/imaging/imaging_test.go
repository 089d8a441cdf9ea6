package imaging

import (
	"errors"
	"strings"
	"testing"

	"endflow/internal/models"
)

func ref(asset string) *models.ImageRef {
	return &models.ImageRef{Asset: &models.Reference{Ref: asset}}
}

func TestParseAsset(t *testing.T) {
	a, err := ParseAsset("image-Tb9Ew8CXIwaY6R1kjMvI0uRR-2000x3000-jpg")
	if err != nil {
		t.Fatalf("ParseAsset: %v", err)
	}
	want := Asset{ID: "Tb9Ew8CXIwaY6R1kjMvI0uRR", Width: 2000, Height: 3000, Format: "jpg"}
	if a != want {
		t.Errorf("got %+v, want %+v", a, want)
	}

	invalid := []string{
		"",
		"file-abc-10x10-pdf",
		"image-abc",
		"image-abc-10by10-png",
		"image-abc-0x10-png",
		"image--10x10-png",
	}
	for _, s := range invalid {
		if _, err := ParseAsset(s); !errors.Is(err, ErrInvalidAsset) {
			t.Errorf("ParseAsset(%q) error = %v, want ErrInvalidAsset", s, err)
		}
	}
}

func TestURL(t *testing.T) {
	b := NewBuilder("proj", "production", "")

	got, err := b.URL(ref("image-abc123-1200x800-png"), 600, 400)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	want := "https://cdn.sanity.io/images/proj/production/abc123-1200x800.png?w=600&h=400"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}

	again, _ := b.URL(ref("image-abc123-1200x800-png"), 600, 400)
	if again != got {
		t.Errorf("URL is not deterministic: %q vs %q", again, got)
	}
}

func TestURLWidthOnly(t *testing.T) {
	b := NewBuilder("proj", "production", "https://img.example.com/")

	got, err := b.URL(ref("image-abc-1200x800-webp"), 300, 0)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if got != "https://img.example.com/images/proj/production/abc-1200x800.webp?w=300" {
		t.Errorf("unexpected URL %q", got)
	}

	plain, _ := b.URL(ref("image-abc-1200x800-webp"), 0, 0)
	if strings.Contains(plain, "?") {
		t.Errorf("URL without dimensions should have no query: %q", plain)
	}
}

func TestURLWithCrop(t *testing.T) {
	b := NewBuilder("proj", "production", "")
	r := ref("image-abc-1000x500-jpg")
	r.Crop = &models.ImageCrop{Left: 0.1, Right: 0.2, Top: 0.1, Bottom: 0.1}

	got, err := b.URL(r, 600, 400)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	want := "https://cdn.sanity.io/images/proj/production/abc-1000x500.jpg?rect=100,50,700,400&w=600&h=400"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestURLMissingAsset(t *testing.T) {
	b := NewBuilder("proj", "production", "")
	if _, err := b.URL(nil, 10, 10); !errors.Is(err, ErrInvalidAsset) {
		t.Errorf("nil ref error = %v", err)
	}
	if _, err := b.URL(&models.ImageRef{}, 10, 10); !errors.Is(err, ErrInvalidAsset) {
		t.Errorf("empty ref error = %v", err)
	}
}

func TestSrcset(t *testing.T) {
	b := NewBuilder("proj", "production", "")

	got := b.Srcset(ref("image-abc-1200x800-jpg"), DefaultVariants)
	want := "https://cdn.sanity.io/images/proj/production/abc-1200x800.jpg?w=640&q=80 640w, " +
		"https://cdn.sanity.io/images/proj/production/abc-1200x800.jpg?w=1024&q=80 1024w"
	if got != want {
		t.Errorf("Srcset() =\n%q\nwant\n%q", got, want)
	}

	if b.Srcset(nil, DefaultVariants) != "" {
		t.Error("nil ref should give empty srcset")
	}
}
