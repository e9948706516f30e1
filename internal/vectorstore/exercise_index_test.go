package vectorstore

import (
	"testing"

	"go.uber.org/zap"
)

func TestSearchReturnsTopKByScore(t *testing.T) {
	idx := NewExerciseIndex(zap.NewNop())

	entries := []Entry{
		{ExerciseID: 1, Category: "breathing", Vector: []float64{1, 0, 0}},
		{ExerciseID: 2, Category: "meditation", Vector: []float64{0.9, 0.1, 0}},
		{ExerciseID: 3, Category: "journaling", Vector: []float64{0, 1, 0}},
	}
	for _, e := range entries {
		if err := idx.Add(e); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	matches, err := idx.Search([]float64{1, 0, 0}, 2, 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ExerciseID != 1 {
		t.Fatalf("expected exact match first, got %d", matches[0].ExerciseID)
	}
	if matches[0].Score < matches[1].Score {
		t.Fatal("matches must be sorted by descending score")
	}
}

func TestSearchMinScoreFilters(t *testing.T) {
	idx := NewExerciseIndex(zap.NewNop())
	idx.Add(Entry{ExerciseID: 1, Vector: []float64{1, 0}})
	idx.Add(Entry{ExerciseID: 2, Vector: []float64{0, 1}})

	matches, err := idx.Search([]float64{1, 0}, 10, 0.5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ExerciseID != 1 {
		t.Fatalf("orthogonal vector must be filtered out, got %v", matches)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	idx := NewExerciseIndex(zap.NewNop())
	if _, err := idx.Search(nil, 3, 0); err == nil {
		t.Fatal("expected error for empty query vector")
	}
}

func TestAddValidatesEntry(t *testing.T) {
	idx := NewExerciseIndex(zap.NewNop())

	if err := idx.Add(Entry{ExerciseID: 0, Vector: []float64{1}}); err == nil {
		t.Fatal("expected error for missing exercise ID")
	}
	if err := idx.Add(Entry{ExerciseID: 1}); err == nil {
		t.Fatal("expected error for empty vector")
	}
}

func TestAddOverwritesSameID(t *testing.T) {
	idx := NewExerciseIndex(zap.NewNop())
	idx.Add(Entry{ExerciseID: 1, Vector: []float64{1, 0}})
	idx.Add(Entry{ExerciseID: 1, Vector: []float64{0, 1}})

	if idx.Count() != 1 {
		t.Fatalf("same ID must overwrite, got count %d", idx.Count())
	}
}

func TestClearEmptiesIndex(t *testing.T) {
	idx := NewExerciseIndex(zap.NewNop())
	idx.Add(Entry{ExerciseID: 1, Vector: []float64{1}})
	idx.Clear()

	if idx.Count() != 0 {
		t.Fatalf("expected empty index after clear, got %d", idx.Count())
	}
}

func TestCosineSimilarityProperties(t *testing.T) {
	if got := cosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}); got < 0.999 {
		t.Fatalf("identical vectors must score ~1, got %f", got)
	}
	if got := cosineSimilarity([]float64{1, 0}, []float64{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors must score 0, got %f", got)
	}
	if got := cosineSimilarity([]float64{1, 0}, []float64{1, 0, 0}); got != 0 {
		t.Fatalf("dimension mismatch must score 0, got %f", got)
	}
	if got := cosineSimilarity([]float64{0, 0}, []float64{1, 1}); got != 0 {
		t.Fatalf("zero vector must score 0, got %f", got)
	}
}
