// Command fastimport-filter rewrites a fast-import stream on stdin (or a
// file argument), keeping only the paths requested, and writes the
// filtered stream to stdout.
package main

import (
	"bufio"
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	fastimport "github.com/obinnaokechukwu/fastimport"
	"github.com/obinnaokechukwu/fastimport/filter"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fastimport-filter: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("fastimport-filter", flag.ExitOnError)
	include := fs.String("include", "", "comma-separated path prefixes to keep")
	exclude := fs.String("exclude", "", "comma-separated path prefixes to drop")
	keepEmpty := fs.Bool("keep-empty-commits", false, "don't squash commits left with no file-ops")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var source string
	if rest := fs.Args(); len(rest) > 0 {
		source = rest[0]
	}
	r, closeFn, err := openSource(source)
	if err != nil {
		return err
	}
	defer closeFn()

	opts := filter.Options{
		IncludePaths:     splitPaths(*include),
		ExcludePaths:     splitPaths(*exclude),
		KeepEmptyCommits: *keepEmpty,
		Warnings:         log.New(os.Stderr, "", 0),
	}
	f := filter.New(opts)
	p := fastimport.NewImportParser(r)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	return f.Run(p, out)
}

func splitPaths(s string) [][]byte {
	if s == "" {
		return nil
	}
	var out [][]byte
	for _, p := range strings.Split(s, ",") {
		out = append(out, []byte(p))
	}
	return out
}

// openSource resolves the source argument per the historical convention:
// "-" or empty means stdin, a ".gz" suffix means a gzip-compressed file,
// anything else is opened directly.
func openSource(source string) (io.Reader, func(), error) {
	if source == "" || source == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, nil, err
	}
	if strings.HasSuffix(source, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return gz, func() { gz.Close(); f.Close() }, nil
	}
	return f, func() { f.Close() }, nil
}
