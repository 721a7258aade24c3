package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cloudTrailFilter(name string) bool {
	return strings.Contains(strings.ToLower(name), "cloudtrail")
}

func gzipBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func newImage(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string][]byte{
		"/image/AWSLogs/1/CloudTrail/us-east-1/1_CloudTrail_us-east-1_b.json": []byte(`{"Records":[]}`),
		"/image/AWSLogs/1/CloudTrail/us-east-1/1_CloudTrail_us-east-1_a.json": []byte(`{"Records":[]}`),
		"/image/exports/cloudtrail-dump.json.gz":                             gzipBytes(t, `{"Records":[{"eventName":"X"}]}`),
		"/image/exports/renamed.json":                                        []byte(`{"Records":[{"eventName":"X","awsRegion":"us-east-1"}]}`),
		"/image/var/log/syslog":                                              []byte("Jan 01 12:00:00 host sshd[1]: hello"),
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, content, 0644))
	}
	return fs
}

func names(files []File) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func TestFsSourceFind(t *testing.T) {
	src := NewFsSource(newImage(t), "/image", cloudTrailFilter)

	files, err := src.Find(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/image/AWSLogs/1/CloudTrail/us-east-1/1_CloudTrail_us-east-1_a.json",
		"/image/AWSLogs/1/CloudTrail/us-east-1/1_CloudTrail_us-east-1_b.json",
		"/image/exports/cloudtrail-dump.json.gz",
	}, names(files))
	assert.Equal(t, "1_CloudTrail_us-east-1_a.json", files[0].Name)
	assert.Equal(t, int64(len(`{"Records":[]}`)), files[0].Size)
}

func TestFsSourceSniffer(t *testing.T) {
	sniff := func(head []byte) bool {
		return bytes.Contains(head, []byte(`"awsRegion"`))
	}
	src := NewFsSource(newImage(t), "/image", cloudTrailFilter, WithSniffer(sniff))

	files, err := src.Find(context.Background())
	require.NoError(t, err)
	assert.Contains(t, names(files), "/image/exports/renamed.json")
	assert.NotContains(t, names(files), "/image/var/log/syslog")
}

func TestFsSourceSingleFileRoot(t *testing.T) {
	src := NewFsSource(newImage(t), "/image/var/log/syslog", cloudTrailFilter)

	files, err := src.Find(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/image/var/log/syslog"}, names(files))
}

func TestFsSourceMissingRoot(t *testing.T) {
	src := NewFsSource(afero.NewMemMapFs(), "/nowhere", cloudTrailFilter)

	_, err := src.Find(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFsSourceFindCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFsSource(newImage(t), "/image", cloudTrailFilter).Find(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFsSourceRead(t *testing.T) {
	src := NewFsSource(newImage(t), "/image", cloudTrailFilter)
	files, err := src.Find(context.Background())
	require.NoError(t, err)

	content, err := src.Read(context.Background(), files[0])
	require.NoError(t, err)
	assert.Equal(t, `{"Records":[]}`, string(content))

	// gzip is transparent
	content, err = src.Read(context.Background(), files[2])
	require.NoError(t, err)
	assert.Equal(t, `{"Records":[{"eventName":"X"}]}`, string(content))
}

func TestFsSourceReadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/CloudTrail.json.gz", []byte{0x1f, 0x8b, 0x00}, 0644))
	src := NewFsSource(fs, "/", cloudTrailFilter)

	_, err := src.Read(context.Background(), File{Key: "/CloudTrail.json.gz", Path: "/CloudTrail.json.gz"})
	assert.Error(t, err)

	_, err = src.Read(context.Background(), File{Key: "/gone.json", Path: "/gone.json"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
