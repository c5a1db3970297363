package media

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testExport(w, h int) (*editor.EncodedImage, editor.ExportMetadata) {
	img := &editor.EncodedImage{
		Data:     []byte("not really a jpeg"),
		Format:   imaging.FormatJPEG,
		MimeType: "image/jpeg",
		Width:    w,
		Height:   h,
	}
	meta := editor.ExportMetadata{
		Width:    w,
		Height:   h,
		Rotation: 90,
		Filters:  editor.NeutralFilters(),
		Crop:     &editor.Rect{X: 1, Y: 2, Width: 3, Height: 4},
		Format:   "jpeg",
		Quality:  90,
		Source:   editor.Dimensions{Width: 400, Height: 300},
	}
	return img, meta
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Config{}, nil)
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Dir: dir}, nil)
	require.NoError(t, err)
	img, meta := testExport(10, 20)
	id, err := s.Save(context.Background(), img, meta)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Migrations are already applied; the row survives.
	s, err = Open(Config{Dir: dir}, nil)
	require.NoError(t, err)
	defer s.Close()
	item, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 10, item.Width)
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	img, meta := testExport(150, 200)

	id, err := s.Save(ctx, img, meta)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	item, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, item.ID)
	assert.Equal(t, id+".jpg", item.Filename)
	assert.Equal(t, "image/jpeg", item.MimeType)
	assert.Equal(t, 150, item.Width)
	assert.Equal(t, 200, item.Height)
	assert.Equal(t, int64(len(img.Data)), item.SizeBytes)
	assert.Equal(t, meta, item.Metadata)
	assert.WithinDuration(t, time.Now(), item.CreatedAt, time.Minute)

	data, _, err := s.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, img.Data, data)

	_, err = os.Stat(filepath.Join(s.dir, item.Filename))
	assert.NoError(t, err)
}

func TestStore_GetUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveEmpty(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Save(context.Background(), &editor.EncodedImage{}, editor.ExportMetadata{})
	assert.Error(t, err)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		s.now = func() time.Time { return at }
		img, meta := testExport(10+i, 10)
		id, err := s.Save(ctx, img, meta)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	items, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, ids[2], items[0].ID)
	assert.Equal(t, ids[0], items[2].ID)

	items, err = s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestStore_ImplementsSaveHandler(t *testing.T) {
	s := openTestStore(t)

	src := image100x50()
	loader := staticLoader{src: src}
	session := editor.NewSession(editor.Options{Loader: loader})
	_, err := session.Load(context.Background(), "mem://src")
	require.NoError(t, err)

	id, meta, err := session.Save(context.Background(), s)
	require.NoError(t, err)

	item, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, meta, item.Metadata)
	assert.Equal(t, 100, item.Width)
}

type staticLoader struct {
	src image.Image
}

func (l staticLoader) Load(ctx context.Context, source string) (*imaging.Source, error) {
	b := l.src.Bounds()
	return &imaging.Source{
		Image: l.src,
		Info:  imaging.ImageInfo{Source: source, Width: b.Dx(), Height: b.Dy(), Format: "png"},
	}, nil
}

func image100x50() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	for i := range img.Pix {
		img.Pix[i] = 0xC0
	}
	return img
}
