package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"curate/internal/domain"
)

// WriteSamples writes samples as JSON Lines. Samples read from a file are
// written back byte for byte; others are encoded from their fields.
func WriteSamples(path string, samples []domain.Sample) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create samples file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := bufio.NewWriter(file)
	for _, s := range samples {
		line := s.Raw
		if len(line) == 0 {
			if line, err = json.Marshal(encode(s)); err != nil {
				return fmt.Errorf("encode sample %s: %w", s.ID, err)
			}
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write sample %s: %w", s.ID, err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write sample %s: %w", s.ID, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush samples: %w", err)
	}
	return file.Close()
}

// WriteJSON writes an indented JSON document.
func WriteJSON(path string, value any) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	content, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	content = append(content, '\n')
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

type outRecord struct {
	ID          string      `json:"id"`
	Instruction string      `json:"instruction,omitempty"`
	Input       string      `json:"input,omitempty"`
	Output      string      `json:"output,omitempty"`
	Text        string      `json:"text,omitempty"`
	Metadata    outMetadata `json:"metadata"`
}

type outMetadata struct {
	Domain      string         `json:"domain"`
	Difficulty  float64        `json:"difficulty"`
	Evaluations outEvaluations `json:"evaluations"`
}

type outEvaluations struct {
	OverallScore float64 `json:"overall_score"`
}

func encode(s domain.Sample) outRecord {
	return outRecord{
		ID:          s.ID,
		Instruction: s.Instruction,
		Input:       s.Input,
		Output:      s.Output,
		Text:        s.Text,
		Metadata: outMetadata{
			Domain:      s.Domain,
			Difficulty:  s.Difficulty,
			Evaluations: outEvaluations{OverallScore: s.Quality},
		},
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
