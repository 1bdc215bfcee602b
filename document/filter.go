package document

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/llm"
	"github.com/freeai-utils/freeai-utils/logging"
)

const (
	DefaultEmbedModel = "nomic-embed-text"
	DefaultThreshold  = 0.4
	DefaultMaxPerDoc  = 2
	DefaultTopK       = 4
	DefaultChunkSize  = 800
	embedBatch        = 32
)

// Embedder строит векторы текстов. *llm.Client подходит.
type Embedder interface {
	EmbedOptions(ctx context.Context, model string, input []string, opts llm.Options) ([][]float64, error)
}

// Document загруженный документ.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Answer найденный фрагмент.
type Answer struct {
	Text  string
	Score float64
	DocID string
}

type passage struct {
	doc    int
	text   string
	vector []float64
}

// FilterConfig параметры поиска по документам.
type FilterConfig struct {
	Model     string
	Path      string // каталог с документами, пустой означает текущий
	Threshold float64
	MaxPerDoc int
	TopK      int
	ChunkSize int // символов в одном фрагменте
	Device    string
	AutoInit  bool
}

// DefaultFilterConfig значения по умолчанию.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Model:     DefaultEmbedModel,
		Threshold: DefaultThreshold,
		MaxPerDoc: DefaultMaxPerDoc,
		TopK:      DefaultTopK,
		ChunkSize: DefaultChunkSize,
		AutoInit:  true,
	}
}

// Filter ранжирует фрагменты документов по близости к запросу.
type Filter struct {
	cfg      FilterConfig
	embedder Embedder
	opts     llm.Options
	device   device.Device
	reader   *Reader
	docs     []Document
	passages []passage
	log      *slog.Logger
}

// NewFilter проверяет параметры, выбирает устройство для модели эмбеддингов
// и при AutoInit загружает все .pdf и .docx из cfg.Path.
func NewFilter(ctx context.Context, embedder Embedder, cfg FilterConfig) (*Filter, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultEmbedModel
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if err := guard.Range("threshold", cfg.Threshold, 0, 1); err != nil {
		return nil, err
	}
	if err := guard.Positive("max_per_doc", cfg.MaxPerDoc); err != nil {
		return nil, err
	}
	if err := guard.Positive("top_answer", cfg.TopK); err != nil {
		return nil, err
	}
	if err := guard.Positive("chunk_size", cfg.ChunkSize); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.Path = wd
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("путь '%s' не существует: %w", cfg.Path, err)
	}

	reader, err := NewReader(Pages{Last: AllPages})
	if err != nil {
		return nil, err
	}
	f := &Filter{
		cfg:      cfg,
		embedder: embedder,
		reader:   reader,
		log:      logging.New("document-filter"),
	}

	opts, dev, err := device.Load(f.log, device.Candidates(cfg.Device), func(d device.Device) (llm.Options, error) {
		opts := llm.DeviceOptions(d)
		_, err := embedder.EmbedOptions(ctx, cfg.Model, []string{"warm up"}, opts)
		return opts, err
	})
	if err != nil {
		return nil, fmt.Errorf("модель %s: %w", cfg.Model, err)
	}
	f.opts, f.device = opts, dev
	f.log.Info("модель эмбеддингов запущена", "model", cfg.Model, "device", dev)

	if cfg.AutoInit {
		if err := f.Load(ctx, cfg.Path); err != nil {
			return nil, err
		}
	}
	f.log.Info("инициализация завершена", "path", cfg.Path, "documents", len(f.docs))
	return f, nil
}

// Device устройство модели.
func (f *Filter) Device() device.Device { return f.device }

// Documents загруженные документы.
func (f *Filter) Documents() []Document {
	return append([]Document(nil), f.docs...)
}

// CollectFiles возвращает пути .pdf и .docx в dir (рекурсивно, с прямыми слешами).
func CollectFiles(dir string) (pdfs, docxs []string, err error) {
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ExtPDF:
			pdfs = append(pdfs, filepath.ToSlash(p))
		case ExtDOCX:
			docxs = append(docxs, filepath.ToSlash(p))
		}
		return nil
	})
	return pdfs, docxs, err
}

// Load заменяет набор документов файлами из dir. Нечитаемые файлы пропускаются.
func (f *Filter) Load(ctx context.Context, dir string) error {
	pdfs, docxs, err := CollectFiles(dir)
	if err != nil {
		return fmt.Errorf("обход каталога: %w", err)
	}

	var docs []Document
	for _, p := range append(docxs, pdfs...) {
		text, err := f.reader.OrderedText(p)
		if err != nil {
			f.log.Warn("документ пропущен", "path", p, "error", err)
			continue
		}
		docs = append(docs, Document{
			ID:      uuid.NewSHA1(uuid.NameSpaceURL, []byte(p)).String(),
			Path:    p,
			Content: text,
		})
	}
	return f.SetDocuments(ctx, docs)
}

// SetDocuments индексирует переданные документы.
func (f *Filter) SetDocuments(ctx context.Context, docs []Document) error {
	var passages []passage
	for i, d := range docs {
		for _, chunk := range Chunk(d.Content, f.cfg.ChunkSize) {
			passages = append(passages, passage{doc: i, text: chunk})
		}
	}

	for start := 0; start < len(passages); start += embedBatch {
		end := min(start+embedBatch, len(passages))
		input := make([]string, 0, end-start)
		for _, p := range passages[start:end] {
			input = append(input, p.text)
		}
		vecs, err := f.embedder.EmbedOptions(ctx, f.cfg.Model, input, f.opts)
		if err != nil {
			return fmt.Errorf("эмбеддинги: %w", err)
		}
		for i, v := range vecs {
			passages[start+i].vector = v
		}
	}

	f.docs, f.passages = docs, passages
	return nil
}

// Search возвращает до TopK фрагментов с оценкой не ниже порога,
// не больше MaxPerDoc на документ, без повторов текста.
func (f *Filter) Search(ctx context.Context, prompt string) ([]Answer, error) {
	if err := guard.NotEmpty("prompt", prompt); err != nil {
		return nil, err
	}
	if len(f.passages) == 0 {
		return nil, nil
	}

	vecs, err := f.embedder.EmbedOptions(ctx, f.cfg.Model, []string{prompt}, f.opts)
	if err != nil {
		return nil, fmt.Errorf("эмбеддинг запроса: %w", err)
	}
	query := vecs[0]

	type scored struct {
		p     *passage
		score float64
	}
	ranked := make([]scored, 0, len(f.passages))
	for i := range f.passages {
		ranked = append(ranked, scored{&f.passages[i], Cosine(query, f.passages[i].vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > f.cfg.TopK {
		ranked = ranked[:f.cfg.TopK]
	}

	seen := make(map[string]bool)
	counts := make(map[string]int)
	var answers []Answer
	for _, r := range ranked {
		if r.score < f.cfg.Threshold {
			continue
		}
		id := f.docs[r.p.doc].ID
		if counts[id] >= f.cfg.MaxPerDoc || seen[r.p.text] {
			continue
		}
		answers = append(answers, Answer{Text: r.p.text, Score: r.score, DocID: id})
		seen[r.p.text] = true
		counts[id]++
	}
	return answers, nil
}

// Cosine косинусная близость. Для нулевых и разных по длине векторов 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Chunk делит текст на фрагменты по абзацам, не длиннее size символов.
// Длинный абзац режется по словам.
func Chunk(text string, size int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}
	add := func(s string, sep string) {
		n := len([]rune(s))
		if curLen > 0 && curLen+len(sep)+n > size {
			flush()
		}
		if curLen > 0 {
			cur.WriteString(sep)
			curLen += len(sep)
		}
		cur.WriteString(s)
		curLen += n
	}

	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len([]rune(para)) <= size {
			add(para, "\n")
			continue
		}
		for _, w := range strings.Fields(para) {
			add(w, " ")
		}
	}
	flush()
	return chunks
}
