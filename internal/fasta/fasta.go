// Package fasta holds the single-pass record transforms used by the first
// two workflow stages. Records are treated as a header line plus opaque
// sequence lines; no sequence validation is done.
package fasta

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one FASTA entry.
type Record struct {
	// Header is the header line without its trailing newline, including ">".
	Header string
	// Lines are the sequence lines without trailing newlines.
	Lines []string
	// MatchedID is set by ExtractMatches.
	MatchedID string
}

// String renders the record with a trailing newline.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Header)
	b.WriteByte('\n')
	for _, l := range r.Lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// CleanHeader keeps only the accession of a UniProt-style header:
// ">sp|P12345|NAME_HUMAN desc" becomes ">P12345". Headers without "|"
// are returned trimmed.
func CleanHeader(header string) string {
	trimmed := strings.TrimSpace(header)
	parts := strings.Split(trimmed, "|")
	if len(parts) > 1 {
		return ">" + strings.TrimSpace(parts[1])
	}
	return trimmed
}

// CleanHeaders copies r to w, rewriting header lines with CleanHeader.
// Sequence lines are copied verbatim. It returns the number of headers seen.
func CleanHeaders(r io.Reader, w io.Writer) (int, error) {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)
	headers := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if strings.HasPrefix(line, ">") {
				headers++
				line = CleanHeader(line) + "\n"
			}
			if _, werr := bw.WriteString(line); werr != nil {
				return headers, werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return headers, err
		}
	}
	return headers, bw.Flush()
}

// LoadIDs reads one identifier per line, skipping blanks and duplicates.
// The first occurrence fixes an identifier's position.
func LoadIDs(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	seen := map[string]bool{}
	var ids []string
	for sc.Scan() {
		id := strings.TrimSpace(sc.Text())
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, sc.Err()
}

// Read parses every record in r. Lines before the first header are dropped.
func Read(r io.Reader) ([]Record, error) {
	var out []Record
	err := each(r, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

func each(r io.Reader, fn func(Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	var cur *Record
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, ">") {
			if cur != nil {
				if err := fn(*cur); err != nil {
					return err
				}
			}
			cur = &Record{Header: line}
			continue
		}
		if cur != nil {
			cur.Lines = append(cur.Lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if cur != nil {
		return fn(*cur)
	}
	return nil
}

// ExtractMatches returns, in file order, every record of r whose header
// contains one of ids. When several ids occur in a header, the one listed
// first in ids wins.
func ExtractMatches(r io.Reader, ids []string) ([]Record, error) {
	var out []Record
	err := each(r, func(rec Record) error {
		for _, id := range ids {
			if strings.Contains(rec.Header, id) {
				rec.MatchedID = id
				out = append(out, rec)
				break
			}
		}
		return nil
	})
	return out, err
}

// MergeStats summarizes a MergeHits run.
type MergeStats struct {
	IDs     int
	Matches int
}

// MergeHits writes outPath as a copy of basePath followed by every record
// of proteomePath matched by an identifier in idsPath.
func MergeHits(idsPath, proteomePath, basePath, outPath string) (MergeStats, error) {
	var stats MergeStats

	idf, err := os.Open(idsPath)
	if err != nil {
		return stats, fmt.Errorf("open id list: %w", err)
	}
	ids, err := LoadIDs(idf)
	idf.Close()
	if err != nil {
		return stats, fmt.Errorf("read id list: %w", err)
	}
	stats.IDs = len(ids)

	pf, err := os.Open(proteomePath)
	if err != nil {
		return stats, fmt.Errorf("open proteome: %w", err)
	}
	matches, err := ExtractMatches(pf, ids)
	pf.Close()
	if err != nil {
		return stats, fmt.Errorf("read proteome: %w", err)
	}
	stats.Matches = len(matches)

	base, err := os.ReadFile(basePath)
	if err != nil {
		return stats, fmt.Errorf("read base dataset: %w", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return stats, fmt.Errorf("create merged dataset: %w", err)
	}
	if err := writeMerged(out, base, matches); err != nil {
		out.Close()
		return stats, fmt.Errorf("write merged dataset: %w", err)
	}
	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("close merged dataset: %w", err)
	}
	return stats, nil
}

func writeMerged(dst io.Writer, base []byte, matches []Record) error {
	w := bufio.NewWriter(dst)
	// bufio.Writer keeps the first write error and reports it from Flush.
	w.Write(base)
	if len(base) > 0 && base[len(base)-1] != '\n' {
		w.WriteByte('\n')
	}
	for _, m := range matches {
		w.WriteString(strings.TrimSpace(m.String()))
		w.WriteByte('\n')
	}
	return w.Flush()
}

// CleanFile applies CleanHeaders from inPath to outPath.
func CleanFile(inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	n, err := CleanHeaders(in, out)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("clean headers: %w", err)
	}
	return n, out.Close()
}
