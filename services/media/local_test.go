package mediasvc

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educa/core"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	conf := &core.Config{Media: core.MediaConfig{Root: t.TempDir(), URL: "/media/"}}
	storage := NewLocalStorage(conf)

	path, err := storage.Save(ctx, "../../Slides.PDF", strings.NewReader("content"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "files/"))
	assert.True(t, strings.HasSuffix(path, ".pdf"))
	assert.Equal(t, "/media/"+path, storage.URL(path))

	data, err := ioutil.ReadFile(filepath.Join(conf.Media.Root, path))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	require.NoError(t, storage.Delete(ctx, path))
	_, err = os.Stat(filepath.Join(conf.Media.Root, path))
	assert.True(t, os.IsNotExist(err))

	// already deleted
	assert.NoError(t, storage.Delete(ctx, path))

	assert.Error(t, storage.Delete(ctx, "../outside.txt"))
	assert.Error(t, storage.Delete(ctx, ""))
}
