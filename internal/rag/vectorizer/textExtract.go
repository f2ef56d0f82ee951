package vectorizer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/NotesRAG/internal/domain/docModel"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

// sourceText resolves the raw text for a document: inline content wins,
// otherwise the uploaded file is extracted by type.
func sourceText(doc docModel.Document) (string, error) {
	if doc.HasInlineContent() {
		return doc.InlineContent, nil
	}
	if doc.SourcePath == "" {
		return "", errors.New("document has neither inline content nor a source file")
	}

	switch GetDocType(doc.SourcePath) {
	case docModel.PDF:
		return extractPDF(doc.SourcePath)
	case docModel.DOC, docModel.TXT:
		return extractWithCat(doc.SourcePath)
	default:
		return "", fmt.Errorf("unsupported content type for %s", doc.SourcePath)
	}
}

func GetDocType(docPath string) docModel.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return docModel.PDF
	case ".docx", ".odt", ".rtf":
		return docModel.DOC
	case ".txt", ".md":
		return docModel.TXT
	default:
		return docModel.ERR
	}
}

func extractPDF(path string) (string, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var text strings.Builder
	numPages := f.NumPage()
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// A bad page shouldn't sink the whole document
			continue
		}
		text.WriteString(content)
		text.WriteString("\n\n")
	}
	return text.String(), nil
}

// extractWithCat reads a .odt, .docx, .rtf or plaintext file as a string
func extractWithCat(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("failed to extract document: %w", err)
	}
	return text, nil
}

// protectExtract guards against pdf pages whose extraction never returns.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(time.Second * 10):
		return "", errors.New("timeout")
	}
}
