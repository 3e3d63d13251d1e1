package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord describes one evolution run and how it ended.
type RunRecord struct {
	VersionedRecord
	ID          string    `json:"id"`
	Landscape   string    `json:"landscape"`
	Seed        int64     `json:"seed"`
	State       string    `json:"state"`
	Reason      string    `json:"reason,omitempty"`
	Error       string    `json:"error,omitempty"`
	Generations int       `json:"generations"`
	BestFitness float64   `json:"best_fitness"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// GenerationSummary is the per-generation statistics record pushed to
// reporters. Generation 0 describes the evaluated seed population.
type GenerationSummary struct {
	Generation  int     `json:"generation"`
	Size        int     `json:"size"`
	Best        float64 `json:"best"`
	Worst       float64 `json:"worst"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	StdDev      float64 `json:"std_dev"`
	Diversity   int     `json:"diversity"`
	Evaluations int     `json:"evaluations"`
}

// IndividualRecord is the persisted form of one population member.
type IndividualRecord struct {
	ID       string   `json:"id"`
	Genome   string   `json:"genome"`
	Fitness  float64  `json:"fitness"`
	Valid    bool     `json:"valid"`
	Born     int      `json:"born"`
	Lineage  []string `json:"lineage,omitempty"`
	Encoding string   `json:"encoding"`
}

// PopulationSnapshot stores the members of a run at one generation.
type PopulationSnapshot struct {
	VersionedRecord
	RunID      string             `json:"run_id"`
	Generation int                `json:"generation"`
	Members    []IndividualRecord `json:"members"`
}
