// Command fastimport-info reports statistics about a fast-import stream
// (command counts, parent-count histogram, blob usage) without importing
// anything. Useful as a sanity check before feeding a stream to a real
// importer, and as a parser throughput benchmark.
package main

import (
	"bufio"
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yassinebenaid/godump"

	fastimport "github.com/obinnaokechukwu/fastimport"
	"github.com/obinnaokechukwu/fastimport/info"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fastimport-info: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("fastimport-info", flag.ExitOnError)
	verbose := fs.Int("v", 0, "verbosity (0, 1, or 2)")
	dump := fs.Bool("dump", false, "pretty-print every parsed command to stderr as it's read")
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

	info.SetDiagnosticSink(os.Stderr)
	stats := info.New()
	p := fastimport.NewImportParser(r)
	if err := collect(p, stats, *dump); err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	stats.Write(out, *verbose)
	return nil
}

// collect drives p to completion, optionally godump-printing each command
// to stderr as it's read - handy for eyeballing a malformed stream during
// development, the same role godump plays in porcelain2go.go.
func collect(p *fastimport.ImportParser, stats *info.Stats, dump bool) error {
	for {
		cmd, err := p.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if dump {
			godump.Dump(cmd)
		}
		if err := stats.Observe(cmd); err != nil {
			return err
		}
	}
}

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
