package corpus

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Corpus wraps a data folder of column-format training files.
//
// Each *.tsv or *.conll file holds one token and its label per line,
// separated by a tab (or runs of spaces); blank lines separate
// sentences and lines starting with '#' are comments.
type Corpus struct {
	Folder string
}

// New creates a Corpus for the given data folder.
func New(folder string) *Corpus {
	return &Corpus{Folder: folder}
}

// IterOptions controls sentence iteration.
type IterOptions struct {
	Verbose      bool
	MaxSentences int // 0 means no limit
}

// DefaultIterOptions returns the default iteration options.
func DefaultIterOptions() IterOptions {
	return IterOptions{}
}

// ReadSentences reads every sentence from the corpus folder, in sorted
// file order.
func (c *Corpus) ReadSentences(opts IterOptions) ([]Sentence, error) {
	entries, err := os.ReadDir(c.Folder)
	if err != nil {
		return nil, fmt.Errorf("read corpus folder: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".conll") {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no .tsv or .conll files in %s", c.Folder)
	}

	var sentences []Sentence
	for _, name := range files {
		f, err := os.Open(filepath.Join(c.Folder, name))
		if err != nil {
			return nil, err
		}
		parsed, err := ParseSentences(f, name)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if opts.Verbose {
			slog.Debug("Read corpus file", "file", name, "sentences", len(parsed))
		}
		sentences = append(sentences, parsed...)
		if opts.MaxSentences > 0 && len(sentences) >= opts.MaxSentences {
			sentences = sentences[:opts.MaxSentences]
			break
		}
	}

	slog.Debug("Corpus loaded", "folder", c.Folder, "files", len(files), "sentences", len(sentences))
	return sentences, nil
}

// ParseSentences parses column-format sentences from r. doc is recorded
// as the source document of every parsed sentence.
func ParseSentences(r io.Reader, doc string) ([]Sentence, error) {
	var sentences []Sentence
	var cur Sentence

	flush := func() {
		if len(cur.Tokens) > 0 {
			cur.Doc = doc
			sentences = append(sentences, cur)
			cur = Sentence{}
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		token, label, ok := splitColumns(line)
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"token<TAB>label\", got %q", lineNo, line)
		}
		cur.Tokens = append(cur.Tokens, token)
		cur.Labels = append(cur.Labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return sentences, nil
}

func splitColumns(line string) (token, label string, ok bool) {
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		token = line[:i]
		label = strings.TrimSpace(line[i+1:])
	} else {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return "", "", false
		}
		token, label = fields[0], fields[1]
	}
	if token == "" || label == "" {
		return "", "", false
	}
	return token, label, true
}
