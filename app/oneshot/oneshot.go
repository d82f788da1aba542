// Package oneshot parses feed files given on the command line and prints the
// unified model instead of starting the server.
package oneshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lysyi3m/feedunify/app/feed"
	"gopkg.in/yaml.v3"
)

var ErrSomeFilesFailed = errors.New("some files could not be parsed")

type Document struct {
	File    string     `json:"file" yaml:"file"`
	Dialect string     `json:"dialect" yaml:"dialect"`
	Feed    *feed.Feed `json:"feed" yaml:"feed"`
}

// Run parses every file and writes the documents that parsed to w. Files
// that cannot be read or are not feeds are logged and reported through
// ErrSomeFilesFailed after the output is written.
func Run(files []string, format string, w io.Writer) error {
	docs := make([]Document, 0, len(files))
	failed := 0

	for _, file := range files {
		doc, err := parseFile(file)
		if err != nil {
			slog.Error("Failed to parse file", "file", file, "error", err)
			failed++
			continue
		}
		docs = append(docs, doc)
	}

	if err := write(w, format, docs); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrSomeFilesFailed, failed, len(files))
	}
	return nil
}

func parseFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read file: %w", err)
	}

	parsed, dialect, err := feed.ParseDialect(data)
	if err != nil {
		return Document{}, err
	}

	return Document{File: path, Dialect: dialect.String(), Feed: parsed}, nil
}

func write(w io.Writer, format string, docs []Document) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
