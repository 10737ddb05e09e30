package document

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// Chunk is one ordered piece of extracted document text
type Chunk struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

// Image is metadata for an image referenced by the document
type Image struct {
	Index   int    `json:"index"`
	URI     string `json:"uri"`
	Caption string `json:"caption,omitempty"`
}

// Document is the result of processing one file
type Document struct {
	Source string  `json:"source"`
	Chunks []Chunk `json:"chunks"`
	Images []Image `json:"images"`
}

// Processor extracts text from documents and splits it into chunks
type Processor struct {
	chunkSize    int
	chunkOverlap int
	logger       zerolog.Logger
}

// Options configures a processor
type Options struct {
	ChunkSize    int // max chunk length in characters
	ChunkOverlap int // characters carried over between chunks
	Logger       zerolog.Logger
}

// NewProcessor creates a document processor
func NewProcessor(opts Options) *Processor {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 50
	}

	return &Processor{
		chunkSize:    opts.ChunkSize,
		chunkOverlap: opts.ChunkOverlap,
		logger:       opts.Logger,
	}
}

// Process extracts the text of the file at path and splits it into
// ordered chunks. PDF and HTML inputs are converted first; everything
// else is treated as plain text or Markdown.
func (p *Processor) Process(path string) (*Document, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect document type: %w", err)
	}

	p.logger.Info().Str("path", path).Str("mime", mtype.String()).Msg("Converting document")

	var text string
	switch {
	case mtype.Is("application/pdf"):
		text, err = extractPDFText(path)
	case mtype.Is("text/html"):
		text, err = convertHTML(path)
	default:
		text, err = readPlainText(path)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document contains no extractable text: %s", path)
	}

	chunks := p.chunkText(text)
	images := scanImages(text)

	p.logger.Info().
		Int("chunks", len(chunks)).
		Int("images", len(images)).
		Msg("Document processed successfully")

	return &Document{
		Source: path,
		Chunks: chunks,
		Images: images,
	}, nil
}

func extractPDFText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}

func convertHTML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read html file: %w", err)
	}

	markdown, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to convert html: %w", err)
	}
	return markdown, nil
}

func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

// chunkText splits content into chunks by packing lines up to chunkSize,
// carrying a small overlap between consecutive chunks
func (p *Processor) chunkText(content string) []Chunk {
	var chunks []Chunk
	lines := strings.Split(content, "\n")

	appendChunk := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		chunks = append(chunks, Chunk{
			ID:       uuid.NewString(),
			Content:  text,
			Position: len(chunks),
		})
	}

	var current strings.Builder
	for _, line := range lines {
		lineLen := len(line) + 1

		if current.Len() > 0 && current.Len()+lineLen > p.chunkSize {
			text := current.String()
			appendChunk(text)

			current.Reset()
			if len(text) > p.chunkOverlap {
				current.WriteString(text[len(text)-p.chunkOverlap:])
			}
		}

		current.WriteString(line)
		current.WriteString("\n")
	}
	appendChunk(current.String())

	return chunks
}

var markdownImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)[^)]*\)`)

// scanImages collects Markdown image references as image metadata
func scanImages(text string) []Image {
	matches := markdownImagePattern.FindAllStringSubmatch(text, -1)
	images := make([]Image, 0, len(matches))
	for i, m := range matches {
		images = append(images, Image{
			Index:   i,
			URI:     m[2],
			Caption: m[1],
		})
	}
	return images
}
