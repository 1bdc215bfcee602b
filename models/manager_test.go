package models

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type rangeServer struct {
	mu     sync.Mutex
	ranges []string
	body   []byte
	plain  bool
}

func (s *rangeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.ranges = append(s.ranges, r.Header.Get("Range"))
	s.mu.Unlock()
	if s.plain {
		w.WriteHeader(http.StatusOK)
		w.Write(s.body)
		return
	}
	http.ServeContent(w, r, "model.bin", time.Time{}, bytes.NewReader(s.body))
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	return m
}

func testInfo(url string) ModelInfo {
	return ModelInfo{ID: "test", Engine: EngineWhisper, Filename: "model.bin", URL: url, Size: 10}
}

func TestDownload_Fresh(t *testing.T) {
	srv := &rangeServer{body: []byte("0123456789")}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	m := newTestManager(t)
	info := testInfo(ts.URL)
	progress := make(chan Progress, 64)

	require.NoError(t, m.Download(context.Background(), info, progress))

	data, err := os.ReadFile(m.GetModelPath(info))
	require.NoError(t, err)
	require.Equal(t, srv.body, data)
	require.True(t, m.IsDownloaded(info))
	require.Equal(t, []string{""}, srv.ranges)

	var last Progress
	for len(progress) > 0 {
		last = <-progress
	}
	require.True(t, last.Done)
	require.NoError(t, last.Error)
}

func TestDownload_ResumesPartialFile(t *testing.T) {
	srv := &rangeServer{body: []byte("0123456789")}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	m := newTestManager(t)
	info := testInfo(ts.URL)
	dest := m.GetModelPath(info)
	require.NoError(t, os.WriteFile(dest+".part", []byte("0123"), 0o644))

	require.NoError(t, m.Download(context.Background(), info, nil))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(data))
	require.Equal(t, []string{"bytes=4-"}, srv.ranges)
	require.NoFileExists(t, dest+".part")
}

func TestDownload_RestartsWhenRangeIgnored(t *testing.T) {
	srv := &rangeServer{body: []byte("0123456789"), plain: true}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	m := newTestManager(t)
	info := testInfo(ts.URL)
	dest := m.GetModelPath(info)
	require.NoError(t, os.WriteFile(dest+".part", []byte("xxxxxx"), 0o644))

	require.NoError(t, m.Download(context.Background(), info, nil))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(data))
}

func TestDownload_CompletePartial(t *testing.T) {
	srv := &rangeServer{body: []byte("0123456789")}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	m := newTestManager(t)
	info := testInfo(ts.URL)
	dest := m.GetModelPath(info)
	require.NoError(t, os.WriteFile(dest+".part", srv.body, 0o644))

	require.NoError(t, m.Download(context.Background(), info, nil))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, srv.body, data)
}

func TestDownload_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	m := newTestManager(t)
	progress := make(chan Progress, 8)
	err := m.Download(context.Background(), testInfo(ts.URL), progress)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")

	last := <-progress
	require.True(t, last.Done)
	require.Error(t, last.Error)
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDownload_Zip(t *testing.T) {
	srv := &rangeServer{body: buildZip(t, map[string]string{
		"vosk-test/am/final.mdl": "model",
		"vosk-test/conf/mfcc":    "conf",
	})}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	m := newTestManager(t)
	info := ModelInfo{ID: "vosk-test", Engine: EngineVosk, Filename: "vosk-test", URL: ts.URL, IsZip: true}

	require.NoError(t, m.Download(context.Background(), info, nil))
	require.True(t, m.IsDownloaded(info))
	require.FileExists(t, filepath.Join(m.GetModelPath(info), "am", "final.mdl"))
	require.NoFileExists(t, m.GetModelPath(info)+".zip")
}

func TestUnzip_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")
	require.NoError(t, os.WriteFile(src, buildZip(t, map[string]string{"../evil.txt": "x"}), 0o644))

	dest := filepath.Join(dir, "out")
	err := unzip(src, dest)
	require.Error(t, err)
	require.NoFileExists(t, filepath.Join(dir, "evil.txt"))
}

type fakePuller struct {
	pulled []string
	have   map[string]bool
}

func (f *fakePuller) Pull(_ context.Context, model string, progress func(int64, int64)) error {
	f.pulled = append(f.pulled, model)
	progress(5, 10)
	progress(10, 10)
	f.have[model] = true
	return nil
}

func (f *fakePuller) HasModel(_ context.Context, model string) (bool, error) {
	return f.have[model], nil
}

func TestDownload_Ollama(t *testing.T) {
	m := newTestManager(t)
	info, ok := GetModel("ollama-qwen3")
	require.True(t, ok)

	require.ErrorIs(t, m.Download(context.Background(), info, nil), ErrNoPuller)

	p := &fakePuller{have: map[string]bool{}}
	m.SetPuller(p)
	require.NoError(t, m.Download(context.Background(), info, nil))
	require.Equal(t, []string{"qwen3:0.6b"}, p.pulled)
	require.True(t, m.IsDownloaded(info))

	// повторная загрузка не нужна
	require.NoError(t, m.Download(context.Background(), info, nil))
	require.Len(t, p.pulled, 1)
}

func TestClean(t *testing.T) {
	m := newTestManager(t)
	voskFile := filepath.Join(m.EngineDir(EngineVosk), "m", "x")
	require.NoError(t, os.MkdirAll(filepath.Dir(voskFile), 0o755))
	require.NoError(t, os.WriteFile(voskFile, []byte("x"), 0o644))

	removed, err := m.Clean("V")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	require.NoDirExists(t, m.EngineDir(EngineVosk))
	require.DirExists(t, m.EngineDir(EngineImage))

	removed, err = m.Clean("")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	require.NoDirExists(t, m.EngineDir(EngineImage))

	_, err = m.Clean("X")
	require.Error(t, err)
}

func TestGroup(t *testing.T) {
	def, err := Group("")
	require.NoError(t, err)
	require.NotEmpty(t, def)
	for _, m := range def {
		require.True(t, m.InGroup(GroupDefault), m.ID)
	}

	vosk, err := Group("v")
	require.NoError(t, err)
	require.Len(t, vosk, 1)
	require.Equal(t, EngineVosk, vosk[0].Engine)

	_, err = Group("Z")
	require.Error(t, err)

	for _, f := range Flags() {
		require.NotEmpty(t, GroupDescription(f), f)
		list, err := Group(f)
		require.NoError(t, err)
		require.NotEmpty(t, list, f)
	}
}

func TestRegistryUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Registry {
		require.False(t, seen[m.ID], m.ID)
		seen[m.ID] = true
		if m.Engine != EngineOllama {
			require.True(t, strings.HasPrefix(m.URL, "https://"), m.ID)
		}
	}
}
