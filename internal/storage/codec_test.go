package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"evokit/internal/genome"
	"evokit/internal/model"
	"evokit/internal/population"
)

func TestDecodeRunFixture(t *testing.T) {
	data := readFixture(t, "run_v1.json")

	run, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if run.ID != "run-minimal-1" || run.Landscape != "onemax" || run.Seed != 42 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Reason != "target_fitness" || run.Generations != 7 {
		t.Fatalf("unexpected run outcome: %+v", run)
	}
}

func TestDecodePopulationFixture(t *testing.T) {
	data := readFixture(t, "population_v1.json")

	snapshot, err := DecodePopulation(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if snapshot.RunID != "run-minimal-1" || snapshot.Generation != 7 {
		t.Fatalf("unexpected snapshot header: %+v", snapshot)
	}
	if len(snapshot.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(snapshot.Members))
	}

	second := snapshot.Members[1]
	g, err := genome.Decode(second.Encoding, second.Genome)
	if err != nil {
		t.Fatalf("decode genome: %v", err)
	}
	if !g.Equal(genome.Floats{1.5, -0.25}) {
		t.Fatalf("unexpected genome: %v", g)
	}
	if !reflect.DeepEqual(second.Lineage, []string{"ind-1"}) {
		t.Fatalf("unexpected lineage: %v", second.Lineage)
	}
}

func TestDecodeSummaryFixture(t *testing.T) {
	data := readFixture(t, "summary_v1.json")

	summary, err := DecodeSummary(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	want := model.GenerationSummary{Generation: 3, Size: 4, Best: 9, Worst: 2, Mean: 5.5, Median: 5.5, StdDev: 2.8, Diversity: 4, Evaluations: 6}
	if summary != want {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunRoundTripMatchesFixture(t *testing.T) {
	data := readFixture(t, "run_v1.json")

	run, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	encoded, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := DecodeRun(encoded)
	if err != nil {
		t.Fatalf("decode encoded: %v", err)
	}
	if !reflect.DeepEqual(run, again) {
		t.Fatalf("round trip changed run:\n%+v\n%+v", run, again)
	}
}

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		ID:              "run-1",
	}
	encoded, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	_, err = DecodeRun(encoded)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestDecodePopulationRejectsVersionMismatch(t *testing.T) {
	snapshot := model.PopulationSnapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion + 1},
		RunID:           "run-1",
	}
	encoded, err := EncodePopulation(snapshot)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	_, err = DecodePopulation(encoded)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestSnapshotEncodesMembers(t *testing.T) {
	parent := population.NewIndividual(genome.Bits{true, false, true})
	parent.SetFitness(2)
	child := parent.Derive(genome.Bits{true, true, true}, 1)

	snapshot, err := Snapshot("run-1", 1, []*population.Individual{parent, child})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.VersionedRecord != CurrentVersion() {
		t.Fatalf("unexpected version: %+v", snapshot.VersionedRecord)
	}
	if len(snapshot.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(snapshot.Members))
	}

	first := snapshot.Members[0]
	if first.Encoding != genome.KindBits || first.Genome != "[true,false,true]" {
		t.Fatalf("unexpected encoded genome: %+v", first)
	}
	if !first.Valid || first.Fitness != 2 {
		t.Fatalf("expected cached fitness to be recorded: %+v", first)
	}

	second := snapshot.Members[1]
	if second.Valid || second.Born != 1 {
		t.Fatalf("unexpected derived member: %+v", second)
	}
	if !reflect.DeepEqual(second.Lineage, []string{parent.ID()}) {
		t.Fatalf("unexpected lineage: %v", second.Lineage)
	}
}

type opaqueGenome struct{ genome.Bits }

func TestSnapshotRejectsUnknownGenome(t *testing.T) {
	ind := population.NewIndividual(opaqueGenome{genome.Bits{true}})
	_, err := Snapshot("run-1", 0, []*population.Individual{ind})
	if !errors.Is(err, genome.ErrGenomeMismatch) {
		t.Fatalf("expected ErrGenomeMismatch, got: %v", err)
	}
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(fixturePath(name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}
