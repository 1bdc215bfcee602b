package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	answer  string
	err     error
	prompts []string
	files   []string
	existed []bool
}

func (f *fakeAsker) AskAndCopy(_ context.Context, prompt, filePath string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.files = append(f.files, filePath)
	_, err := os.Stat(filePath)
	f.existed = append(f.existed, err == nil)
	return f.answer, f.err
}

func newTestHelper(t *testing.T, asker *fakeAsker) (*CodeHelper, string) {
	t.Helper()
	dir := t.TempDir()
	h, err := NewCodeHelper(asker, nil, dir)
	require.NoError(t, err)
	h.capture = func(path string) error {
		return os.WriteFile(path, []byte("png"), 0o644)
	}
	return h, dir
}

func pngFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	require.NoError(t, err)
	return matches
}

func TestHandle_AsksAndCleansUp(t *testing.T) {
	asker := &fakeAsker{answer: "B"}
	h, dir := newTestHelper(t, asker)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	answer, err := h.Handle(context.Background())
	require.NoError(t, err)
	require.Equal(t, "B", answer)
	require.Equal(t, []string{HelperPrompt}, asker.prompts)
	require.Equal(t, []bool{true}, asker.existed)
	require.Equal(t, dir, filepath.Dir(asker.files[0]))

	require.NoFileExists(t, asker.files[0])
	require.FileExists(t, filepath.Join(dir, "keep.txt"))
}

func TestHandle_KeepsUserImages(t *testing.T) {
	asker := &fakeAsker{answer: "B"}
	h, dir := newTestHelper(t, asker)
	holiday := filepath.Join(dir, "Pictures", "holiday.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(holiday), 0o755))
	require.NoError(t, os.WriteFile(holiday, []byte("x"), 0o644))
	old := filepath.Join(dir, "old.PNG")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))

	_, err := h.Handle(context.Background())
	require.NoError(t, err)

	require.NoFileExists(t, asker.files[0])
	require.FileExists(t, holiday)
	require.FileExists(t, old)
}

func TestNewCodeHelper_TempDir(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	asker := &fakeAsker{answer: "A"}
	h, err := NewCodeHelper(asker, nil, "")
	require.NoError(t, err)
	require.NotEqual(t, wd, h.workDir)
	require.DirExists(t, h.workDir)
	h.capture = func(path string) error {
		return os.WriteFile(path, []byte("png"), 0o644)
	}

	_, err = h.Handle(context.Background())
	require.NoError(t, err)
	require.Equal(t, h.workDir, filepath.Dir(asker.files[0]))

	require.NoError(t, h.Close())
	require.NoDirExists(t, h.workDir)
}

func TestHandle_Errors(t *testing.T) {
	asker := &fakeAsker{err: errors.New("quota")}
	h, dir := newTestHelper(t, asker)

	_, err := h.Handle(context.Background())
	require.ErrorContains(t, err, "quota")
	require.Empty(t, pngFiles(t, dir))

	h.capture = func(string) error { return errors.New("no display") }
	_, err = h.Handle(context.Background())
	require.ErrorContains(t, err, "no display")
	require.Len(t, asker.prompts, 1)

	require.NoError(t, h.Close())
	require.DirExists(t, dir)
}

func TestHandle_EmptyAnswer(t *testing.T) {
	h, _ := newTestHelper(t, &fakeAsker{})
	answer, err := h.Handle(context.Background())
	require.NoError(t, err)
	require.Empty(t, answer)
}

func TestOnPress_DropsWhileBusy(t *testing.T) {
	h, _ := newTestHelper(t, &fakeAsker{answer: "A"})
	h.OnPress()
	h.OnPress()
	require.Len(t, h.presses, 1)
}

func TestRun_ProcessesPressesUntilCanceled(t *testing.T) {
	asker := &fakeAsker{answer: "A"}
	h, _ := newTestHelper(t, asker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	h.OnPress()
	require.Eventually(t, func() bool { return len(h.presses) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	require.Len(t, asker.prompts, 1)
}

func TestNewCodeHelper_RequiresAsker(t *testing.T) {
	_, err := NewCodeHelper(nil, nil, t.TempDir())
	require.Error(t, err)
}
