package document

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func openPDF(path string, fn func(r *pdf.Reader) error) error {
	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("открытие pdf: %w", err)
	}
	defer f.Close()
	return fn(r)
}

func pdfPlainText(path string, pages Pages) (string, error) {
	var parts []string
	err := openPDF(path, func(r *pdf.Reader) error {
		from, to := pages.span(r.NumPage())
		for i := from; i < to; i++ {
			p := r.Page(i + 1)
			if p.V.IsNull() {
				parts = append(parts, "")
				continue
			}
			txt, err := p.GetPlainText(nil)
			if err != nil {
				return fmt.Errorf("страница %d: %w", i+1, err)
			}
			parts = append(parts, txt)
		}
		return nil
	})
	return strings.Join(parts, "\n"), err
}

func pdfRowText(path string, pages Pages) (string, error) {
	var parts []string
	err := openPDF(path, func(r *pdf.Reader) error {
		from, to := pages.span(r.NumPage())
		for i := from; i < to; i++ {
			p := r.Page(i + 1)
			if p.V.IsNull() {
				continue
			}
			rows, err := p.GetTextByRow()
			if err != nil {
				return fmt.Errorf("страница %d: %w", i+1, err)
			}
			lines := make([]string, 0, len(rows))
			for _, row := range rows {
				var b strings.Builder
				for _, w := range row.Content {
					b.WriteString(w.S)
				}
				lines = append(lines, b.String())
			}
			parts = append(parts, strings.Join(lines, "\n"))
		}
		return nil
	})
	return strings.Join(parts, "\n"), err
}

// pageSelection переводит диапазон в синтаксис pdfcpu (страницы с единицы).
func pageSelection(p Pages) []string {
	if p.Last == AllPages {
		return []string{fmt.Sprintf("%d-", p.First+1)}
	}
	return []string{fmt.Sprintf("%d-%d", p.First+1, p.Last+1)}
}

func pdfImages(path, dir string, pages Pages) (int, error) {
	before, err := countFiles(dir)
	if err != nil {
		return 0, err
	}
	if err := api.ExtractImagesFile(path, dir, pageSelection(pages), nil); err != nil {
		return 0, fmt.Errorf("извлечение изображений: %w", err)
	}
	after, err := countFiles(dir)
	if err != nil {
		return 0, err
	}
	return after - before, nil
}

func countFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n, nil
}
