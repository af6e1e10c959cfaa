package media_storage

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
)

func TestMemoryStore_UploadReportsMonotonicProgress(t *testing.T) {
	s := NewMemoryStore()
	body := strings.Repeat("x", 64*1024)

	var seen []float64
	asset, err := s.Upload(context.Background(), service.UploadInput{
		Key:        "portfolios/p1/hero_backgroundImage_1",
		Body:       strings.NewReader(body),
		Size:       int64(len(body)),
		OnProgress: func(f float64) { seen = append(seen, f) },
	})
	require.NoError(t, err)
	assert.Equal(t, "memory://portfolios/p1/hero_backgroundImage_1", asset.URL)

	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 1.0, seen[len(seen)-1])
	for _, f := range seen {
		assert.True(t, f >= 0 && f <= 1)
	}

	stored, ok := s.Object(asset.Key)
	require.True(t, ok)
	assert.Len(t, stored, len(body))
}

func TestMemoryStore_FailNext(t *testing.T) {
	s := NewMemoryStore()
	s.FailNext(apperror.NewTransient("network", nil))

	var last float64
	_, err := s.Upload(context.Background(), service.UploadInput{
		Key:        "k",
		Body:       bytes.NewReader([]byte("abc")),
		Size:       3,
		OnProgress: func(f float64) { last = f },
	})
	assert.ErrorIs(t, err, apperror.ErrTransient)
	assert.Less(t, last, 1.0)

	_, ok := s.Object("k")
	assert.False(t, ok)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.Upload(ctx, service.UploadInput{Key: "k", Body: strings.NewReader("a"), Size: 1})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "k"))
	assert.Equal(t, []string{"k"}, s.Deleted())
	assert.ErrorIs(t, s.Delete(ctx, "k"), apperror.ErrNotFound)
}

func TestMemoryStore_RequiresKey(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Upload(context.Background(), service.UploadInput{Body: strings.NewReader("a")})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestProgressReader_UnknownSizeOnlyReportsDone(t *testing.T) {
	var seen []float64
	pr := newProgressReader(strings.NewReader("abc"), 0, func(f float64) { seen = append(seen, f) })
	buf := make([]byte, 1)
	for {
		if _, err := pr.Read(buf); err != nil {
			break
		}
	}
	assert.Empty(t, seen)
	pr.done()
	assert.Equal(t, []float64{1}, seen)
	assert.EqualValues(t, 3, pr.BytesRead())
}

func TestFirebaseDownloadURL(t *testing.T) {
	s := &firebaseStorage{bucketName: "demo.appspot.com"}
	got := s.downloadURL("portfolios/p1/about_image_5", "tok")
	assert.Equal(t, "https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/portfolios%2Fp1%2Fabout_image_5?alt=media&token=tok", got)
}
