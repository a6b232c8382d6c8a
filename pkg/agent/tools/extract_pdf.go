package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// maxPDFOutput caps extracted text the same way DOM output is capped.
const maxPDFOutput = 48000

// ExtractPDFTextTool downloads a PDF and returns its text content, for
// tasks whose answer lives in a linked document rather than a page.
type ExtractPDFTextTool struct{}

// NewExtractPDFTextTool creates the extract_text_from_pdf tool.
func NewExtractPDFTextTool() *ExtractPDFTextTool {
	return &ExtractPDFTextTool{}
}

func (t *ExtractPDFTextTool) Name() string {
	return "extract_text_from_pdf"
}

func (t *ExtractPDFTextTool) Description() string {
	return "Extracts the text content from a PDF file available at the given URL. Use this to read PDF documents linked from web pages."
}

func (t *ExtractPDFTextTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pdf_url": map[string]interface{}{
				"type":        "string",
				"description": "The URL of the PDF file to extract text from.",
			},
		},
		"required": []string{"pdf_url"},
	}
}

type extractPDFArgs struct {
	PDFURL string `json:"pdf_url"`
}

func (t *ExtractPDFTextTool) Execute(ctx context.Context, exec *Context, args json.RawMessage) (string, error) {
	var in extractPDFArgs
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid extract_text_from_pdf arguments: %w", err)
	}

	emitAct(ctx, exec, types.ActStart, t.Name(), fmt.Sprintf("Extracting text from PDF: %s", in.PDFURL))

	text, err := extractPDFText(ctx, in.PDFURL)
	if err != nil {
		msg := fmt.Sprintf("Failed to extract text from PDF at %s: %v", in.PDFURL, err)
		emitAct(ctx, exec, types.ActOK, t.Name(), msg)
		return msg, nil
	}

	if len(text) > maxPDFOutput {
		text = text[:maxPDFOutput] + "\n[content truncated]"
	}

	emitAct(ctx, exec, types.ActOK, t.Name(), fmt.Sprintf("Extracted %d characters from PDF", len(text)))
	return text, nil
}

func extractPDFText(ctx context.Context, url string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "webpilot-pdf-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "document.pdf")
	if err := downloadFile(ctx, ensureProtocol(url), pdfPath); err != nil {
		return "", err
	}

	contentDir := filepath.Join(tmpDir, "content")
	if err := os.MkdirAll(contentDir, 0750); err != nil {
		return "", err
	}
	if err := api.ExtractContentFile(pdfPath, contentDir, nil, nil); err != nil {
		return "", fmt.Errorf("content extraction failed: %w", err)
	}

	entries, err := os.ReadDir(contentDir)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(contentDir, entry.Name()))
		if err != nil {
			continue
		}
		b.WriteString(textFromContentStream(string(data)))
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("no text content found")
	}
	return text, nil
}

func downloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, resp.Body)
	return err
}

// textFromContentStream pulls string literals out of a PDF content
// stream: the parenthesized operands of the text-showing operators.
// Escape sequences for parens and backslashes are honored.
func textFromContentStream(stream string) string {
	var b strings.Builder
	depth := 0
	escaped := false

	for i := 0; i < len(stream); i++ {
		c := stream[i]
		if depth > 0 {
			if escaped {
				switch c {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				case '(', ')', '\\':
					b.WriteByte(c)
				}
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '(':
				depth++
				b.WriteByte(c)
			case ')':
				depth--
				if depth == 0 {
					b.WriteByte(' ')
				} else {
					b.WriteByte(c)
				}
			default:
				b.WriteByte(c)
			}
			continue
		}
		if c == '(' {
			depth = 1
		}
	}

	return strings.TrimSpace(b.String())
}
