package locator_test

import (
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/afero"

	"filesort/internal/buckets"
	"filesort/internal/locator"
)

func TestLocateNonImageUsesExtensionFolder(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := buckets.Build([]string{"x.txt", "y.jpg"})
	loc := locator.New(fs, "/out", m, "")

	res := loc.Locate("x.txt")
	if !res.Found {
		t.Fatal("expected x.txt to be found")
	}
	if want := filepath.Join("/out", "txt", "x.txt"); res.Path != want {
		t.Fatalf("expected %s, got %s", want, res.Path)
	}
	if res.Bucket != ".txt" {
		t.Fatalf("unexpected bucket %q", res.Bucket)
	}
}

func TestLocateImageScansCaptionFolders(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/out/images/dog/y.jpg", []byte("img"), 0o644)
	_ = fs.MkdirAll("/out/images/cat", 0o755)
	m := buckets.Build([]string{"x.txt", "y.jpg"})
	loc := locator.New(fs, "/out", m, "")

	res := loc.Locate("y.jpg")
	if want := filepath.Join("/out", "images", "dog", "y.jpg"); res.Path != want {
		t.Fatalf("expected %s, got %s", want, res.Path)
	}
}

func TestLocateImageFallsBackToOthers(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = fs.MkdirAll("/out/images/cat", 0o755)
	m := buckets.Build([]string{"y.PNG"})
	loc := locator.New(fs, "/out", m, "")

	res := loc.Locate("y.PNG")
	if want := filepath.Join("/out", "images", "others", "y.PNG"); res.Path != want {
		t.Fatalf("expected %s, got %s", want, res.Path)
	}
}

func TestLocateImageWithoutImagesFolder(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := buckets.Build([]string{"y.jpeg"})
	loc := locator.New(fs, "/out", m, "")

	res := loc.Locate("y.jpeg")
	if !res.Found || res.Path != filepath.Join("/out", "images", "others", "y.jpeg") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLocateImagePicksFirstFolderInNameOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/out/images/zebra/p.png", []byte("1"), 0o644)
	_ = afero.WriteFile(fs, "/out/images/apple/p.png", []byte("2"), 0o644)
	m := buckets.Build([]string{"p.png"})

	res := locator.New(fs, "/out", m, "").Locate("p.png")
	if res.Path != filepath.Join("/out", "images", "apple", "p.png") {
		t.Fatalf("unexpected path %s", res.Path)
	}
}

func TestLocateReflectsFilesystemDrift(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/out/images/dog/y.jpg", []byte("img"), 0o644)
	m := buckets.Build([]string{"y.jpg"})
	loc := locator.New(fs, "/out", m, "")

	_ = fs.MkdirAll("/out/images/pets", 0o755)
	if err := fs.Rename("/out/images/dog/y.jpg", "/out/images/pets/y.jpg"); err != nil {
		t.Fatal(err)
	}
	if got := loc.Locate("y.jpg").Path; got != filepath.Join("/out", "images", "pets", "y.jpg") {
		t.Fatalf("expected live rescan to find moved file, got %s", got)
	}
}

func TestLocateNoExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := buckets.Build([]string{"README", ".bashrc", "..hidden"})

	for _, name := range []string{"README", ".bashrc", "..hidden"} {
		res := locator.New(fs, "/out", m, "").Locate(name)
		if !res.Found || res.Bucket != "" {
			t.Fatalf("expected %s in the no-extension bucket, got %+v", name, res)
		}
		if res.Path != filepath.Join("/out", name) {
			t.Fatalf("expected destination root for %s, got %s", name, res.Path)
		}
		if got := locator.New(fs, "/out", m, "misc").Locate(name).Path; got != filepath.Join("/out", "misc", name) {
			t.Fatalf("expected misc folder for %s, got %s", name, got)
		}
	}
}

func TestLocateUnknownName(t *testing.T) {
	m := buckets.Build([]string{"x.txt"})
	res := locator.New(afero.NewMemMapFs(), "/out", m, "").Locate("missing.txt")
	if res.Found || res.Path != "" {
		t.Fatalf("expected not found, got %+v", res)
	}
}

func TestSuggest(t *testing.T) {
	got := locator.Suggest([]string{"report.pdf", "repo.txt", "photo.png"}, "rep", 5)
	if !slices.Equal(got, []string{"repo.txt", "report.pdf"}) {
		t.Fatalf("unexpected suggestions %v", got)
	}
	if got := locator.Suggest([]string{"a"}, "", 5); got != nil {
		t.Fatalf("expected no suggestions for empty query, got %v", got)
	}
	if got := locator.Suggest([]string{"ab", "abc", "abcd"}, "a", 2); len(got) != 2 {
		t.Fatalf("expected limit to apply, got %v", got)
	}
}
