package models

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/freeai-utils/freeai-utils/logging"
)

// Поддиректории для моделей разных движков.
const (
	DirWhisper    = "whisper"
	DirVosk       = "vosk"
	DirTessdata   = "tessdata"
	DirDownloaded = "downloaded_models"
	DirEmbeddings = "embeddings"
)

// Цели команды clean.
const (
	CleanAll   = "A"
	CleanVosk  = "V"
	CleanImage = "ICF"
)

// ErrNoPuller модель Ollama нельзя скачать без клиента Ollama.
var ErrNoPuller = errors.New("клиент Ollama не подключён")

// Progress информация о прогрессе загрузки.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Done       bool
	Error      error
}

// Puller скачивает модели через Ollama.
type Puller interface {
	Pull(ctx context.Context, model string, progress func(completed, total int64)) error
	HasModel(ctx context.Context, model string) (bool, error)
}

// Manager управляет моделями.
type Manager struct {
	modelsDir string
	client    *http.Client
	puller    Puller
	log       *slog.Logger
	mu        sync.Mutex
}

// DefaultDir возвращает директорию моделей: FREEAI_MODELS_DIR или models/ рядом с бинарником.
func DefaultDir() (string, error) {
	if dir := os.Getenv("FREEAI_MODELS_DIR"); dir != "" {
		return dir, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("не удалось определить путь к бинарнику: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "", fmt.Errorf("не удалось разрешить симлинки: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), "models"), nil
}

// NewManager создаёт менеджер моделей в dir. Пустой dir означает DefaultDir.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	for _, sub := range []string{DirWhisper, DirVosk, DirTessdata, DirDownloaded} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", sub, err)
		}
	}
	return &Manager{
		modelsDir: dir,
		client:    &http.Client{},
		log:       logging.New("models"),
	}, nil
}

// SetPuller подключает клиент Ollama для моделей EngineOllama.
func (m *Manager) SetPuller(p Puller) {
	m.puller = p
}

// SetHTTPClient заменяет HTTP-клиент загрузки.
func (m *Manager) SetHTTPClient(c *http.Client) {
	m.client = c
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// EngineDir директория моделей движка.
func (m *Manager) EngineDir(engine Engine) string {
	switch engine {
	case EngineWhisper:
		return filepath.Join(m.modelsDir, DirWhisper)
	case EngineVosk:
		return filepath.Join(m.modelsDir, DirVosk)
	case EngineTessdata:
		return filepath.Join(m.modelsDir, DirTessdata)
	case EngineImage:
		return filepath.Join(m.modelsDir, DirDownloaded)
	case EngineImageEmb:
		return filepath.Join(m.modelsDir, DirDownloaded, DirEmbeddings)
	default:
		return m.modelsDir
	}
}

// GetModelPath возвращает полный путь к модели.
// Для Ollama возвращается тег модели.
func (m *Manager) GetModelPath(info ModelInfo) string {
	if info.Engine == EngineOllama {
		return info.Filename
	}
	return filepath.Join(m.EngineDir(info.Engine), info.Filename)
}

// IsDownloaded проверяет, скачана ли модель.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	if info.Engine == EngineOllama {
		if m.puller == nil {
			return false
		}
		ok, err := m.puller.HasModel(context.Background(), info.Filename)
		return err == nil && ok
	}

	stat, err := os.Stat(m.GetModelPath(info))
	if err != nil {
		return false
	}
	if info.IsZip {
		return stat.IsDir()
	}
	return stat.Size() > 0
}

// ListDownloaded возвращает список скачанных моделей.
func (m *Manager) ListDownloaded() []ModelInfo {
	var downloaded []ModelInfo
	for _, model := range Registry {
		if m.IsDownloaded(model) {
			downloaded = append(downloaded, model)
		}
	}
	return downloaded
}

// Download скачивает модель, продолжая прерванную загрузку.
// progress получает обновления без блокировки, финальное сообщение Done отправляется всегда (можно nil).
func (m *Manager) Download(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsDownloaded(info) {
		m.log.Info("модель уже скачана", "model", info.ID)
		sendDone(progress, info, info.Size, nil)
		return nil
	}

	var err error
	switch {
	case info.Engine == EngineOllama:
		err = m.pull(ctx, info, progress)
	case info.IsZip:
		err = m.downloadAndUnzip(ctx, info, progress)
	default:
		err = m.fetch(ctx, info, m.GetModelPath(info), progress)
	}
	if err != nil {
		sendDone(progress, info, 0, err)
		return fmt.Errorf("загрузка %s: %w", info.ID, err)
	}
	m.log.Info("модель скачана", "model", info.ID)
	sendDone(progress, info, info.Size, nil)
	return nil
}

// DownloadGroup скачивает все модели флага setup последовательно.
func (m *Manager) DownloadGroup(ctx context.Context, flag string, progress chan<- Progress) error {
	list, err := Group(flag)
	if err != nil {
		return err
	}
	var errs []error
	for _, info := range list {
		if err := m.Download(ctx, info, progress); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Error("ошибка загрузки модели", "model", info.ID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func sendDone(progress chan<- Progress, info ModelInfo, total int64, err error) {
	if progress != nil {
		progress <- Progress{ModelID: info.ID, Downloaded: total, Total: total, Done: true, Error: err}
	}
}

func sendProgress(progress chan<- Progress, p Progress) {
	if progress == nil {
		return
	}
	select {
	case progress <- p:
	default:
	}
}

func (m *Manager) pull(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	if m.puller == nil {
		return ErrNoPuller
	}
	return m.puller.Pull(ctx, info.Filename, func(completed, total int64) {
		sendProgress(progress, Progress{ModelID: info.ID, Downloaded: completed, Total: total})
	})
}

// fetch скачивает URL в dest через dest.part.
// Если .part уже есть, запрашивается только остаток (Range).
func (m *Manager) fetch(ctx context.Context, info ModelInfo, dest string, progress chan<- Progress) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	partPath := dest + ".part"

	var offset int64
	if st, err := os.Stat(partPath); err == nil {
		offset = st.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return err
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		m.log.Info("продолжение загрузки", "model", info.ID, "offset", offset)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка скачивания: %w", err)
	}
	defer resp.Body.Close()

	flags := os.O_WRONLY | os.O_CREATE
	switch resp.StatusCode {
	case http.StatusPartialContent:
		flags |= os.O_APPEND
	case http.StatusOK:
		// сервер не поддерживает Range, начинаем заново
		offset = 0
		flags |= os.O_TRUNC
	case http.StatusRequestedRangeNotSatisfiable:
		if offset > 0 {
			return os.Rename(partPath, dest)
		}
		return fmt.Errorf("HTTP ошибка: %s", resp.Status)
	default:
		return fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	total := info.Size
	if resp.ContentLength > 0 {
		total = offset + resp.ContentLength
	}

	file, err := os.OpenFile(partPath, flags, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	downloaded := offset
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := file.Write(buf[:n]); werr != nil {
				return werr
			}
			downloaded += int64(n)
			sendProgress(progress, Progress{ModelID: info.ID, Downloaded: downloaded, Total: total})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(partPath, dest)
}

func (m *Manager) downloadAndUnzip(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	dir := m.EngineDir(info.Engine)
	zipPath := filepath.Join(dir, info.Filename+".zip")
	if err := m.fetch(ctx, info, zipPath, progress); err != nil {
		return err
	}
	if err := unzip(zipPath, dir); err != nil {
		return fmt.Errorf("ошибка распаковки: %w", err)
	}
	return os.Remove(zipPath)
}

func unzip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return err
	}

	for _, f := range r.File {
		fpath := filepath.Join(root, f.Name)
		if fpath != root && !strings.HasPrefix(fpath, root+string(os.PathSeparator)) {
			return fmt.Errorf("недопустимый путь в архиве: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, fpath); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, fpath string) error {
	outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode()|0o200)
	if err != nil {
		return err
	}
	defer outFile.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := io.Copy(outFile, rc); err != nil {
		return err
	}
	return outFile.Close()
}

// Delete удаляет модель с диска.
func (m *Manager) Delete(info ModelInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info.Engine == EngineOllama {
		return fmt.Errorf("модель Ollama удаляется командой 'ollama rm %s'", info.Filename)
	}
	return os.RemoveAll(m.GetModelPath(info))
}

// Clean удаляет каталоги загруженных моделей: "V" - Vosk, "ICF" - safetensors, "A" или "" - всё.
// Возвращает удалённые каталоги.
func (m *Manager) Clean(target string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dirs []string
	switch strings.ToUpper(strings.TrimSpace(target)) {
	case CleanVosk:
		dirs = []string{DirVosk}
	case CleanImage:
		dirs = []string{DirDownloaded}
	case CleanAll, "":
		dirs = []string{DirVosk, DirDownloaded}
	default:
		return nil, fmt.Errorf("неизвестная цель очистки: %q", target)
	}

	var removed []string
	for _, d := range dirs {
		path := filepath.Join(m.modelsDir, d)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			m.log.Info("каталог не найден, пропуск", "path", path)
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("удаление %s: %w", path, err)
		}
		m.log.Info("каталог удалён", "path", path)
		removed = append(removed, path)
	}
	return removed, nil
}
