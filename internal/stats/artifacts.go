// Package stats writes exported run artifacts to disk.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"evokit/internal/model"
)

const (
	RunFile        = "run.json"
	HistoryFile    = "history.csv"
	PopulationFile = "population.json"
	LineageFile    = "lineage.json"
)

var historyHeader = []string{"generation", "size", "best", "worst", "mean", "median", "std_dev", "diversity", "evaluations"}

type RunArtifacts struct {
	Run       model.RunRecord
	Summaries []model.GenerationSummary
	// Population is optional; runs recorded without snapshots have none.
	Population *model.PopulationSnapshot
}

// LineageEntry maps one stored member to the members it was derived from.
type LineageEntry struct {
	ID      string   `json:"id"`
	Born    int      `json:"born"`
	Parents []string `json:"parents"`
}

// WriteRunArtifacts writes artifacts under baseDir/<run id> and returns that
// directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, RunFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := WriteHistory(filepath.Join(runDir, HistoryFile), artifacts.Summaries); err != nil {
		return "", err
	}
	if artifacts.Population == nil {
		return runDir, nil
	}
	if err := writeJSON(filepath.Join(runDir, PopulationFile), artifacts.Population); err != nil {
		return "", err
	}
	lineage := make([]LineageEntry, 0, len(artifacts.Population.Members))
	for _, m := range artifacts.Population.Members {
		parents := m.Lineage
		if parents == nil {
			parents = []string{}
		}
		lineage = append(lineage, LineageEntry{ID: m.ID, Born: m.Born, Parents: parents})
	}
	if err := writeJSON(filepath.Join(runDir, LineageFile), lineage); err != nil {
		return "", err
	}
	return runDir, nil
}

func WriteHistory(path string, summaries []model.GenerationSummary) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(historyHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := writer.Write([]string{
			strconv.Itoa(s.Generation),
			strconv.Itoa(s.Size),
			formatFloat(s.Best),
			formatFloat(s.Worst),
			formatFloat(s.Mean),
			formatFloat(s.Median),
			formatFloat(s.StdDev),
			strconv.Itoa(s.Diversity),
			strconv.Itoa(s.Evaluations),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Sync()
}

// ReadHistory reads a history written by WriteHistory. A missing file
// reports ok=false.
func ReadHistory(path string) ([]model.GenerationSummary, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(historyHeader)
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.GenerationSummary{}, true, nil
		}
		return nil, false, err
	}

	var summaries []model.GenerationSummary
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, err
		}
		s, err := parseHistoryRow(record)
		if err != nil {
			return nil, false, fmt.Errorf("history row %d: %w", len(summaries)+1, err)
		}
		summaries = append(summaries, s)
	}
	return summaries, true, nil
}

func parseHistoryRow(record []string) (model.GenerationSummary, error) {
	ints := make([]int, 0, 4)
	floats := make([]float64, 0, 5)
	for i, field := range record {
		switch historyHeader[i] {
		case "generation", "size", "diversity", "evaluations":
			v, err := strconv.Atoi(field)
			if err != nil {
				return model.GenerationSummary{}, fmt.Errorf("%s: %w", historyHeader[i], err)
			}
			ints = append(ints, v)
		default:
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return model.GenerationSummary{}, fmt.Errorf("%s: %w", historyHeader[i], err)
			}
			floats = append(floats, v)
		}
	}
	return model.GenerationSummary{
		Generation:  ints[0],
		Size:        ints[1],
		Best:        floats[0],
		Worst:       floats[1],
		Mean:        floats[2],
		Median:      floats[3],
		StdDev:      floats[4],
		Diversity:   ints[2],
		Evaluations: ints[3],
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
