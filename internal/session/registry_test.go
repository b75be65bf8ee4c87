package session

import (
	"errors"
	"sync"
	"testing"
)

func TestCreateGetRemove(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	created, err := r.Create("main", "llama3")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Name != "main" || created.Model != "llama3" || created.Score != 0 {
		t.Errorf("created = %+v", created)
	}
	if created.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := r.Get("main")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "main" {
		t.Errorf("Get returned %+v", got)
	}

	if err := r.Remove("main"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := r.Get("main"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get after Remove = %v, want ErrSessionNotFound", err)
	}
}

func TestCreateDuplicate(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	if _, err := r.Create("main", "llama3"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Create("main", "mistral"); !errors.Is(err, ErrDuplicateSession) {
		t.Errorf("second Create = %v, want ErrDuplicateSession", err)
	}
}

func TestCreateEmptyName(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	if _, err := r.Create("  ", "llama3"); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Create = %v, want ErrEmptyName", err)
	}
}

func TestNamesSortedCaseInsensitively(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	for _, name := range []string{"Work", "alpha", "Beta"} {
		if _, err := r.Create(name, "llama3"); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	names := r.Names()
	want := []string{"alpha", "Beta", "Work"}
	if len(names) != len(want) {
		t.Fatalf("Names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestAddScore(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	if _, err := r.Create("main", "llama3"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	total, err := r.AddScore("main", 3)
	if err != nil {
		t.Fatalf("AddScore: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}

	total, _ = r.AddScore("main", 2)
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}

	if _, err := r.AddScore("ghost", 1); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("AddScore on missing session = %v, want ErrSessionNotFound", err)
	}
}

func TestSetModel(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	if _, err := r.Create("main", "llama3"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.SetModel("main", "mistral"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	got, _ := r.Get("main")
	if got.Model != "mistral" {
		t.Errorf("Model = %s, want mistral", got.Model)
	}
}

func TestConcurrentScoring(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	if _, err := r.Create("main", "llama3"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.AddScore("main", 1)
		}()
	}
	wg.Wait()

	got, _ := r.Get("main")
	if got.Score != 50 {
		t.Errorf("Score = %d, want 50", got.Score)
	}
}
