// Package export writes finished rounds as plain text reports.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	retrievedLayout = "Monday, January 02, 2006 at 03:04:05pm"
	filenameLayout  = "2006-01-02-15-04-05.000"
)

// Report is the content of one report file.
type Report struct {
	Phrase      string
	Results     []string
	RetrievedAt time.Time
	Regions     []string
}

// WriteReport renders r to w.
func WriteReport(w io.Writer, r Report) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "## %s...\n\n", r.Phrase)
	bw.WriteString("Search suggestions:\n")
	for _, s := range r.Results {
		fmt.Fprintf(bw, "\t%s\n", s)
	}
	fmt.Fprintf(bw, "\nRetrieved on:\n\t%s\n", r.RetrievedAt.Format(retrievedLayout))
	fmt.Fprintf(bw, "\nDomains searched:\n\t%s\n", strings.Join(r.Regions, ", "))
	return bw.Flush()
}

// Filename returns the report file name for phrase, stamped with t to the
// millisecond. Characters unsafe in file names are replaced.
func Filename(phrase string, t time.Time) string {
	stamp := strings.Replace(t.Format(filenameLayout), ".", "-", 1)
	return sanitize(phrase) + "_" + stamp + ".txt"
}

var unsafeChars = strings.NewReplacer(
	" ", "-",
	"*", ".",
	"?", ".",
	"/", "-",
	"\\", "-",
	":", "-",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

func sanitize(phrase string) string {
	s := unsafeChars.Replace(strings.TrimSpace(phrase))
	if s == "" {
		return "search"
	}
	return s
}

// Save writes r into dir and returns the path of the new file.
func Save(dir string, r Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, Filename(r.Phrase, r.RetrievedAt))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	if err := WriteReport(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing report: %w", err)
	}
	return path, nil
}
