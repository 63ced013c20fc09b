package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/gpucatalog/app/services"
)

func TestReadURLsSkipsBlanksAndComments(t *testing.T) {
	in := strings.NewReader(`
# newegg
https://www.newegg.com/p/N82E16814126680

  https://www.bestbuy.com/site/6547123.p
`)
	urls, err := readURLs(in)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.newegg.com/p/N82E16814126680",
		"https://www.bestbuy.com/site/6547123.p",
	}, urls)
}

func TestPrintJSONUsesWireNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, services.IngestReport{Success: true, Added: 2, JobID: "job-1"}))
	assert.Contains(t, buf.String(), `"productsAdded": 2`)
	assert.Contains(t, buf.String(), `"jobId": "job-1"`)
}

func TestRootRegistersCommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "route:list", "migrate", "migrate:rollback", "migrate:status",
		"seed", "ingest", "refresh:prices", "schedule:run"} {
		assert.Contains(t, names, want)
	}
}
