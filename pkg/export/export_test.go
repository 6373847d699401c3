package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var retrieved = time.Date(2013, time.March, 4, 17, 5, 9, 42_000_000, time.UTC)

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, Report{
		Phrase:      "is it normal",
		Results:     []string{"is it normal to", "is it normal for"},
		RetrievedAt: retrieved,
		Regions:     []string{"US", "UK", "DE"},
	})
	require.NoError(t, err)

	want := "## is it normal...\n\n" +
		"Search suggestions:\n" +
		"\tis it normal to\n" +
		"\tis it normal for\n" +
		"\n" +
		"Retrieved on:\n" +
		"\tMonday, March 04, 2013 at 05:05:09pm\n" +
		"\n" +
		"Domains searched:\n" +
		"\tUS, UK, DE\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteReportNoResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Report{Phrase: "zzz", RetrievedAt: retrieved}))
	assert.Contains(t, buf.String(), "Search suggestions:\n\nRetrieved on:")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "is-it-normal_2013-03-04-17-05-09-042.txt", Filename("is it normal", retrieved))
	assert.Equal(t, "why.is.the-sky_2013-03-04-17-05-09-042.txt", Filename("why*is?the sky", retrieved))
	assert.Equal(t, "a-b_2013-03-04-17-05-09-042.txt", Filename("a/b", retrieved))
	assert.Equal(t, "search_2013-03-04-17-05-09-042.txt", Filename("  ", retrieved))
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	r := Report{Phrase: "go", Results: []string{"golang"}, RetrievedAt: retrieved, Regions: []string{"US"}}

	path, err := Save(dir, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "go_2013-03-04-17-05-09-042.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\tgolang\n")

	_, err = Save(dir, r)
	assert.ErrorIs(t, err, os.ErrExist)
}
