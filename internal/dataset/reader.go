// Package dataset reads candidate pools from JSON Lines or JSON array files
// and writes selections back out.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"curate/internal/domain"
)

const maxLineBytes = 16 << 20

// record is the on-disk sample shape. Every metadata field is optional.
type record struct {
	ID          json.RawMessage `json:"id"`
	Instruction string          `json:"instruction"`
	Input       string          `json:"input"`
	Output      string          `json:"output"`
	Text        string          `json:"text"`
	Content     string          `json:"content"`
	Metadata    *metadata       `json:"metadata"`
}

type metadata struct {
	Domain      *looseString `json:"domain"`
	Difficulty  *looseFloat  `json:"difficulty"`
	Evaluations *evaluations `json:"evaluations"`
}

type evaluations struct {
	OverallScore *looseFloat `json:"overall_score"`
}

// looseFloat accepts a JSON number or a numeric string. Anything else,
// including NaN and infinities, decodes as absent.
type looseFloat struct {
	value float64
	ok    bool
}

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	var v float64
	var n json.Number
	var s string
	switch {
	case json.Unmarshal(data, &n) == nil:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		v = parsed
	case json.Unmarshal(data, &s) == nil:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		v = parsed
	default:
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.value, f.ok = v, true
	return nil
}

// looseString accepts a JSON string or number. Anything else decodes as
// absent.
type looseString struct {
	value string
	ok    bool
}

func (f *looseString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.value, f.ok = s, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		f.value, f.ok = n.String(), true
	}
	return nil
}

// ReadFile loads samples from path. See Read.
func ReadFile(path string) ([]domain.Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = file.Close() }()

	samples, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return samples, nil
}

// Read decodes samples from r. Input starting with '[' is treated as a JSON
// array; anything else as JSON Lines with blank lines skipped. Missing
// metadata is defaulted and each sample keeps its original bytes in Raw.
func Read(r io.Reader) ([]domain.Sample, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []domain.Sample{}, nil
	}
	if err != nil {
		return nil, err
	}
	if first == '[' {
		return readArray(br)
	}
	return readLines(br)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		next, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		first := next[0]
		switch first {
		case ' ', '\t', '\r', '\n':
			_, _ = br.Discard(1)
			continue
		}
		if bom, _ := br.Peek(len(utf8BOM)); bytes.Equal(bom, utf8BOM) {
			_, _ = br.Discard(len(utf8BOM))
			continue
		}
		return first, nil
	}
}

func readArray(r io.Reader) ([]domain.Sample, error) {
	var raws []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("parse json array: %w", err)
	}
	samples := make([]domain.Sample, 0, len(raws))
	for i, raw := range raws {
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		s, err := decode(compact.Bytes())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func readLines(r io.Reader) ([]domain.Sample, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	samples := make([]domain.Sample, 0)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		s, err := decode(append([]byte(nil), raw...))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl: %w", err)
	}
	return samples, nil
}

func decode(raw []byte) (domain.Sample, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Sample{}, fmt.Errorf("parse sample: %w", err)
	}
	s := domain.Sample{
		ID:          idString(rec.ID),
		Instruction: rec.Instruction,
		Input:       rec.Input,
		Output:      rec.Output,
		Text:        rec.Text,
		Difficulty:  domain.DefaultDifficulty,
		Quality:     domain.DefaultOverallScore,
		Raw:         raw,
	}
	if s.Text == "" {
		s.Text = rec.Content
	}
	if md := rec.Metadata; md != nil {
		if md.Domain != nil && md.Domain.ok {
			s.Domain = md.Domain.value
		}
		if md.Difficulty != nil && md.Difficulty.ok {
			s.Difficulty = md.Difficulty.value
		}
		if md.Evaluations != nil && md.Evaluations.OverallScore != nil && md.Evaluations.OverallScore.ok {
			s.Quality = md.Evaluations.OverallScore.value
		}
	}
	return s.Normalize(), nil
}

// idString renders string and numeric ids the same way they were written.
func idString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
