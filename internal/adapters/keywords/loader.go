// Package keywords reads line-oriented keyword lists.
//
// One keyword per line. A trailing "\r" is stripped so lists written on
// Windows load the same way; blank lines are skipped. Nothing else is
// trimmed: leading and trailing spaces are part of the keyword.
package keywords

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// MaxLineBytes is the longest keyword a list may contain.
const MaxLineBytes = 1 << 20

// Load reads the keyword list at path.
func Load(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyword list: %w", err)
	}
	defer f.Close()

	kws, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return kws, nil
}

// Read parses a keyword list from r.
func Read(r io.Reader) ([][]byte, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), MaxLineBytes)

	var kws [][]byte
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSuffix(sc.Bytes(), []byte("\r"))
		if len(b) == 0 {
			continue
		}
		kws = append(kws, append([]byte(nil), b...))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read keyword list after line %d: %w", line, err)
	}
	return kws, nil
}

// SetID fingerprints an ordered keyword list. Lists that differ in content
// or order get different IDs; the ID namespaces stored scan reports.
func SetID(kws [][]byte) string {
	d := xxhash.New()
	var n [8]byte
	for _, kw := range kws {
		binary.LittleEndian.PutUint64(n[:], uint64(len(kw)))
		d.Write(n[:])
		d.Write(kw)
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
