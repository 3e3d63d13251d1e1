package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"evokit/internal/genome"
	"evokit/internal/model"
	"evokit/internal/population"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeSummary(s model.GenerationSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeSummary(data []byte) (model.GenerationSummary, error) {
	var summary model.GenerationSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.GenerationSummary{}, err
	}
	return summary, nil
}

func EncodePopulation(p model.PopulationSnapshot) ([]byte, error) {
	return json.Marshal(p)
}

func DecodePopulation(data []byte) (model.PopulationSnapshot, error) {
	var snapshot model.PopulationSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.PopulationSnapshot{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.PopulationSnapshot{}, err
	}
	return snapshot, nil
}

// Snapshot converts live individuals into a persistable population record.
func Snapshot(runID string, generation int, members []*population.Individual) (model.PopulationSnapshot, error) {
	records := make([]model.IndividualRecord, 0, len(members))
	for _, ind := range members {
		kind, data, err := genome.Encode(ind.Genome())
		if err != nil {
			return model.PopulationSnapshot{}, fmt.Errorf("individual %s: %w", ind.ID(), err)
		}
		fitness, valid := ind.Fitness()
		records = append(records, model.IndividualRecord{
			ID:       ind.ID(),
			Genome:   data,
			Encoding: kind,
			Fitness:  fitness,
			Valid:    valid,
			Born:     ind.Born(),
			Lineage:  ind.Lineage(),
		})
	}
	return model.PopulationSnapshot{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		Generation:      generation,
		Members:         records,
	}, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
