package document

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/device"
	"github.com/freeai-utils/freeai-utils/guard"
	"github.com/freeai-utils/freeai-utils/llm"
)

const bodyXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Title</w:t></w:r></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>a1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>b1</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>a2</w:t></w:r></w:p></w:tc><w:tc><w:p></w:p></w:tc></w:tr>
</w:tbl>
<w:p></w:p>
<w:p><w:r><w:t xml:space="preserve">Second </w:t></w:r><w:r><w:tab/><w:t>line</w:t></w:r></w:p>
</w:body>
</w:document>`

func paragraphsXML(paras ...string) string {
	var b strings.Builder
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paras {
		b.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeDocx(t *testing.T, path, document string, media map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(document))
	require.NoError(t, err)
	for name, data := range media {
		w, err := zw.Create("word/media/" + name)
		require.NoError(t, err)
		_, err = w.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func newReader(t *testing.T) *Reader {
	t.Helper()
	r, err := NewReader(Pages{Last: AllPages})
	require.NoError(t, err)
	return r
}

func TestDocxText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.DOCX")
	writeDocx(t, path, bodyXML, nil)
	r := newReader(t)

	all, err := r.AllText(path)
	require.NoError(t, err)
	require.Equal(t, "Title\nSecond \tline\na1\nb1\na2", all)

	ordered, err := r.OrderedText(path)
	require.NoError(t, err)
	require.Equal(t, "Title\na1\tb1\na2\t\n\nSecond \tline", ordered)
}

func TestDocxImages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pics.docx")
	writeDocx(t, path, paragraphsXML("x"), map[string]string{"image1.png": "png", "image2.jpeg": "jpg"})

	out := filepath.Join(dir, "out")
	n, err := newReader(t).ExtractImages(path, out)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	data, err := os.ReadFile(filepath.Join(out, "image2.jpeg"))
	require.NoError(t, err)
	require.Equal(t, "jpg", string(data))
}

func TestUnsupported(t *testing.T) {
	r := newReader(t)
	_, err := r.AllText("notes.txt")
	require.ErrorIs(t, err, ErrUnsupported)
	_, err = r.AllText("")
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
	_, err = NewReader(Pages{First: -1})
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
	_, err = NewReader(Pages{Last: -2})
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

func TestPagesSpan(t *testing.T) {
	from, to := Pages{First: 0, Last: AllPages}.span(5)
	require.Equal(t, [2]int{0, 5}, [2]int{from, to})
	from, to = Pages{First: 1, Last: 2}.span(5)
	require.Equal(t, [2]int{1, 3}, [2]int{from, to})
	from, to = Pages{First: 1, Last: 10}.span(5)
	require.Equal(t, [2]int{1, 5}, [2]int{from, to})
	from, to = Pages{First: 7, Last: AllPages}.span(5)
	require.Equal(t, from, to)

	require.Equal(t, []string{"1-"}, pageSelection(Pages{Last: AllPages}))
	require.Equal(t, []string{"2-4"}, pageSelection(Pages{First: 1, Last: 3}))
}

func TestChunk(t *testing.T) {
	require.Equal(t, []string{"cats are small", "cat food"}, Chunk("cats are small\n\ncat food", 20))
	require.Equal(t, []string{"a\nb"}, Chunk("a\nb", 20))
	require.Equal(t, []string{"one two", "three"}, Chunk("one two three", 8))
	require.Empty(t, Chunk("  \n ", 10))
}

func TestCosine(t *testing.T) {
	require.InDelta(t, 1.0, Cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	require.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	require.Zero(t, Cosine([]float64{0, 0}, []float64{1, 1}))
	require.Zero(t, Cosine([]float64{1}, []float64{1, 1}))
}

// keywordEmbedder считает вхождения слов словаря.
type keywordEmbedder struct {
	vocab []string
	opts  []llm.Options
}

func (k *keywordEmbedder) EmbedOptions(_ context.Context, _ string, input []string, opts llm.Options) ([][]float64, error) {
	k.opts = append(k.opts, opts)
	out := make([][]float64, len(input))
	for i, s := range input {
		v := make([]float64, len(k.vocab))
		for j, w := range k.vocab {
			v[j] = float64(strings.Count(strings.ToLower(s), w))
		}
		out[i] = v
	}
	return out, nil
}

func TestFilter(t *testing.T) {
	dir := t.TempDir()
	writeDocx(t, filepath.Join(dir, "pets.docx"), paragraphsXML("cat food", "cat toys", "cat bed"), nil)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	writeDocx(t, filepath.Join(dir, "sub", "cars.docx"), paragraphsXML("car engine", "dog park"), nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("cat"), 0o644))

	emb := &keywordEmbedder{vocab: []string{"cat", "dog", "car"}}
	cfg := DefaultFilterConfig()
	cfg.Path = dir
	cfg.Device = "cpu"
	cfg.ChunkSize = 10
	f, err := NewFilter(context.Background(), emb, cfg)
	require.NoError(t, err)
	require.Equal(t, device.CPU, f.Device())
	require.Len(t, f.Documents(), 2)
	require.EqualValues(t, 0, emb.opts[0]["num_gpu"])

	answers, err := f.Search(context.Background(), "cat")
	require.NoError(t, err)
	require.Len(t, answers, DefaultMaxPerDoc)
	for _, a := range answers {
		require.Contains(t, a.Text, "cat")
		require.InDelta(t, 1.0, a.Score, 1e-9)
		require.Equal(t, answers[0].DocID, a.DocID)
	}

	answers, err = f.Search(context.Background(), "dog")
	require.NoError(t, err)
	require.Len(t, answers, 1)
	require.Equal(t, "dog park", answers[0].Text)

	_, err = f.Search(context.Background(), " ")
	require.ErrorIs(t, err, guard.ErrInvalidArgument)
}

func TestFilter_Validation(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"x"}}
	cfg := DefaultFilterConfig()
	cfg.Path = filepath.Join(t.TempDir(), "missing")
	_, err := NewFilter(context.Background(), emb, cfg)
	require.Error(t, err)

	cfg = DefaultFilterConfig()
	cfg.Path = t.TempDir()
	cfg.TopK = 0
	_, err = NewFilter(context.Background(), emb, cfg)
	require.ErrorIs(t, err, guard.ErrInvalidArgument)

	cfg = DefaultFilterConfig()
	cfg.Path = t.TempDir()
	cfg.AutoInit = false
	f, err := NewFilter(context.Background(), emb, cfg)
	require.NoError(t, err)
	answers, err := f.Search(context.Background(), "x")
	require.NoError(t, err)
	require.Empty(t, answers)
}
