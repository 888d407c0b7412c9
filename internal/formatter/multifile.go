package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/prismagen/internal/schema"
)

// Output formats understood by MultiFileFormatter
const (
	FormatPrisma   = "prisma"
	FormatMarkdown = "markdown"
)

// MultiFileFormatter writes a document to multiple files in a directory.
// The prisma format writes schema.prisma with the preamble and one
// <Model>.prisma per model. The markdown format writes _overview.md and
// one <Model>.md per model.
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "prisma" or "markdown"
	Options      *PrismaOptions
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string, opts *PrismaOptions) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
		Options:      opts,
	}
}

// Format writes the document to multiple files
func (f *MultiFileFormatter) Format(doc *schema.Document) error {
	if f.OutputFormat != FormatPrisma && f.OutputFormat != FormatMarkdown {
		return fmt.Errorf("unsupported multi-file format: %q", f.OutputFormat)
	}

	files, err := f.Files(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(doc); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for i, m := range doc.Models {
		if err := f.writeModelFile(files[i+1], m, doc); err != nil {
			return fmt.Errorf("failed to write model file for %s: %w", m.Name, err)
		}
	}

	return nil
}

// Files returns the file names Format would write, in write order.
// It fails when a model name is not a plain file name or when two files
// would share a name, compared case-insensitively.
func (f *MultiFileFormatter) Files(doc *schema.Document) ([]string, error) {
	files := []string{f.overviewName()}
	seen := map[string]string{strings.ToLower(f.overviewName()): "the overview"}
	for _, m := range doc.Models {
		name := m.Name + f.getFileExtension()
		if m.Name == "" || strings.ContainsAny(m.Name, `/\`) || !filepath.IsLocal(name) {
			return nil, fmt.Errorf("model name %q cannot be used as a file name", m.Name)
		}
		if other, ok := seen[strings.ToLower(name)]; ok {
			return nil, fmt.Errorf("model %q would overwrite the file of %s: %s", m.Name, other, name)
		}
		seen[strings.ToLower(name)] = fmt.Sprintf("model %q", m.Name)
		files = append(files, name)
	}
	return files, nil
}

func (f *MultiFileFormatter) writeOverview(doc *schema.Document) error {
	return writeFile(filepath.Join(f.OutputDir, f.overviewName()), func(w io.Writer) error {
		if f.OutputFormat == FormatMarkdown {
			return f.writeMarkdownOverview(w, doc)
		}
		_, err := io.WriteString(w, RenderPreamble(f.Options))
		return err
	})
}

func (f *MultiFileFormatter) writeMarkdownOverview(w io.Writer, doc *schema.Document) error {
	_, _ = fmt.Fprintf(w, "# Data Model Overview\n\n")
	_, _ = fmt.Fprintf(w, "Each model has a corresponding file: `<Model>%s`\n\n", f.getFileExtension())
	_, _ = fmt.Fprintf(w, "## Models\n\n")

	sorted := make([]schema.Model, len(doc.Models))
	copy(sorted, doc.Models)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	for _, m := range sorted {
		_, _ = fmt.Fprintf(w, "- **%s**", m.Name)

		var targets []string
		for _, rel := range doc.Relationships {
			if rel.FromModel == m.ID {
				targets = append(targets, doc.ModelName(rel.ToModel))
			}
		}
		if len(targets) > 0 {
			_, _ = fmt.Fprintf(w, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	return nil
}

func (f *MultiFileFormatter) writeModelFile(name string, m schema.Model, doc *schema.Document) error {
	return writeFile(filepath.Join(f.OutputDir, name), func(w io.Writer) error {
		if f.OutputFormat == FormatMarkdown {
			NewMarkdownFormatter(w).FormatModel(m, doc)
			return nil
		}
		_, err := io.WriteString(w, RenderModel(m, doc.Models, doc.Relationships, f.Options))
		return err
	})
}

func writeFile(filename string, fill func(io.Writer) error) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return fill(file)
}

func (f *MultiFileFormatter) overviewName() string {
	if f.OutputFormat == FormatMarkdown {
		return "_overview.md"
	}
	return "schema.prisma"
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == FormatMarkdown {
		return ".md"
	}
	return ".prisma"
}
