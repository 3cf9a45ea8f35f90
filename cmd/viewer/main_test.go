package main

import (
	"context"
	"testing"

	"github.com/signalsfoundry/starsystem-viewer/core"
	"github.com/signalsfoundry/starsystem-viewer/model"
)

func TestLoadSystemFromBundledMap(t *testing.T) {
	graph, err := loadSystem(context.Background(), "../../configs/system_map.json")
	if err != nil {
		t.Fatalf("loadSystem: %v", err)
	}

	if graph.Root() == nil || graph.Root().Kind != model.KindStar {
		t.Fatalf("root = %+v, want a star", graph.Root())
	}
	if graph.Len() < 5 {
		t.Errorf("bundled map has only %d bodies", graph.Len())
	}

	// Every non-root body comes out of loadSystem with elements.
	for _, name := range graph.Names() {
		body := graph.Body(name)
		if body == graph.Root() {
			if body.Elements != nil {
				t.Error("root carries orbital elements")
			}
			continue
		}
		if body.Elements == nil {
			t.Errorf("%s has no derived elements", name)
		}
	}
}

func TestLoadSystemMissingFile(t *testing.T) {
	if _, err := loadSystem(context.Background(), "does-not-exist.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestKindCounts(t *testing.T) {
	graph, err := loadSystem(context.Background(), "../../configs/system_map.json")
	if err != nil {
		t.Fatalf("loadSystem: %v", err)
	}

	counts := kindCounts(graph)
	if counts[model.KindStar] != 1 {
		t.Errorf("star count = %d, want 1", counts[model.KindStar])
	}
	total := 0
	for _, kind := range model.Kinds {
		total += counts[kind]
	}
	if total != graph.Len() {
		t.Errorf("kind counts sum to %d, graph has %d bodies", total, graph.Len())
	}

	// Counts cover every kind, including absent ones.
	if _, ok := counts[model.KindLagrange]; !ok {
		t.Error("missing entry for absent kind")
	}
}

func TestKindCountsEmptySystem(t *testing.T) {
	counts := kindCounts(core.EmptySystem())
	for kind, n := range counts {
		if n != 0 {
			t.Errorf("empty system counts %d bodies of kind %s", n, kind)
		}
	}
}
