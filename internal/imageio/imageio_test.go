package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	return img
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.ErrorIs(t, err, ErrLoad)

	_, err = Load("")
	assert.ErrorIs(t, err, ErrLoad)
}

func TestLoadGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrLoad)
}

func TestSaveLoadPNG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "frame.png")
	src := checker(16, 8)

	require.NoError(t, Save(path, src))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), got.Bounds())
	assert.Equal(t, src.RGBAAt(5, 3), got.RGBAAt(5, 3))
}

func TestSaveJPEG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "detection_result.jpg")
	require.NoError(t, Save(path, checker(32, 24)))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), got.Bounds())
}

func TestSaveUnwritable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := Save(filepath.Join(blocker, "x.jpg"), checker(2, 2))
	assert.ErrorIs(t, err, ErrWrite)
}

func TestToRGBAOffsetOrigin(t *testing.T) {
	t.Parallel()

	src := checker(10, 10).SubImage(image.Rect(2, 3, 6, 8))
	got := ToRGBA(src)

	assert.Equal(t, image.Rect(0, 0, 4, 5), got.Bounds())
	assert.Equal(t, color.RGBA{2, 3, 0, 255}, got.RGBAAt(0, 0))
}

func TestThumbnail(t *testing.T) {
	t.Parallel()

	small := checker(100, 50)
	assert.Same(t, small, Thumbnail(small, 600, 400))

	big := image.NewRGBA(image.Rect(0, 0, 1200, 400))
	th := Thumbnail(big, 600, 400)
	assert.Equal(t, 600, th.Bounds().Dx())
	assert.Equal(t, 200, th.Bounds().Dy())
}

func TestOrient(t *testing.T) {
	t.Parallel()

	src := checker(3, 2)

	testCases := []struct {
		o        int
		size     image.Point
		at       image.Point
		expected color.RGBA
	}{
		{1, image.Pt(3, 2), image.Pt(0, 0), color.RGBA{0, 0, 0, 255}},
		{2, image.Pt(3, 2), image.Pt(0, 0), color.RGBA{2, 0, 0, 255}},
		{3, image.Pt(3, 2), image.Pt(0, 0), color.RGBA{2, 1, 0, 255}},
		{4, image.Pt(3, 2), image.Pt(0, 0), color.RGBA{0, 1, 0, 255}},
		{6, image.Pt(2, 3), image.Pt(1, 0), color.RGBA{0, 0, 0, 255}},
		{8, image.Pt(2, 3), image.Pt(0, 2), color.RGBA{0, 0, 0, 255}},
	}

	for _, tc := range testCases {
		got := Orient(src, tc.o)
		assert.Equal(t, tc.size, got.Bounds().Size(), "orientation %d", tc.o)
		assert.Equal(t, tc.expected, got.RGBAAt(tc.at.X, tc.at.Y), "orientation %d", tc.o)
	}
}

func TestOrientationWithoutExif(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plain.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, checker(4, 4)))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, Orientation(data))
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSupported("/a/b.JPG"))
	assert.True(t, IsSupported("x.tif"))
	assert.True(t, IsSupported("x.bmp"))
	assert.False(t, IsSupported("x.mp4"))

	assert.NoError(t, CheckSupported("street.PNG"))
	assert.ErrorIs(t, CheckSupported("notes.txt"), ErrUnsupported)
}
