package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// block абзац или таблица тела документа.
type block struct {
	para    string
	table   [][]string
	isTable bool
}

func readDocx(p string) ([]block, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("открытие docx: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}
	return nil, fmt.Errorf("docx: нет word/document.xml")
}

// parseDocumentXML разбирает тело WordprocessingML. Вложенные таблицы
// и абзацы внутри абзацев (надписи) сливаются в текст внешнего элемента.
func parseDocumentXML(r io.Reader) ([]block, error) {
	dec := xml.NewDecoder(r)

	var (
		blocks   []block
		tblDepth int
		pDepth   int
		inText   bool
		para     strings.Builder
		cell     []string
		row      []string
		table    [][]string
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
				if tblDepth == 1 {
					table = nil
				}
			case "tr":
				if tblDepth == 1 {
					row = nil
				}
			case "tc":
				if tblDepth == 1 {
					cell = nil
				}
			case "p":
				pDepth++
				if pDepth == 1 {
					para.Reset()
				}
			case "t":
				inText = true
			case "tab":
				if pDepth > 0 {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if pDepth > 0 {
					para.WriteByte('\n')
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				pDepth--
				if pDepth > 0 {
					break
				}
				if tblDepth == 0 {
					blocks = append(blocks, block{para: para.String()})
				} else {
					cell = append(cell, para.String())
				}
			case "tc":
				if tblDepth == 1 {
					row = append(row, strings.Join(cell, "\n"))
				}
			case "tr":
				if tblDepth == 1 {
					table = append(table, row)
				}
			case "tbl":
				if tblDepth == 1 {
					blocks = append(blocks, block{table: table, isTable: true})
				}
				tblDepth--
			}

		case xml.CharData:
			if inText && pDepth > 0 {
				para.Write(t)
			}
		}
	}
	return blocks, nil
}

func docxAllText(blocks []block) string {
	var parts []string
	for _, b := range blocks {
		if !b.isTable && b.para != "" {
			parts = append(parts, b.para)
		}
	}
	for _, b := range blocks {
		for _, row := range b.table {
			for _, c := range row {
				if c != "" {
					parts = append(parts, c)
				}
			}
		}
	}
	return strings.Join(parts, "\n")
}

func docxOrderedText(blocks []block) string {
	var parts []string
	for _, b := range blocks {
		if !b.isTable {
			parts = append(parts, b.para)
			continue
		}
		for _, row := range b.table {
			parts = append(parts, strings.Join(row, "\t"))
		}
	}
	return strings.Join(parts, "\n")
}

// docxImages копирует файлы word/media/* в dir.
func docxImages(p, dir string) (int, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return 0, fmt.Errorf("открытие docx: %w", err)
	}
	defer zr.Close()

	count := 0
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, "word/media/") || f.FileInfo().IsDir() {
			continue
		}
		if err := copyZipEntry(f, filepath.Join(dir, path.Base(f.Name))); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func copyZipEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
