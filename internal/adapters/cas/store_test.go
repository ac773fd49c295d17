package cas_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.trai.ch/press/internal/adapters/cas"
	"go.trai.ch/press/internal/core/domain"
)

func TestStore_PutAndGet(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "builds.json")

	store, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	info := domain.BuildInfo{
		RunID:      "run-1",
		TaskName:   "css",
		Outputs:    2,
		OutputHash: "0123456789abcdef",
		Duration:   150 * time.Millisecond,
		Timestamp:  time.Now(),
	}

	if err := store.Put(info); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get("css")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.OutputHash != info.OutputHash {
		t.Errorf("expected OutputHash %q, got %q", info.OutputHash, got.OutputHash)
	}
	if got.Outputs != 2 {
		t.Errorf("expected 2 outputs, got %d", got.Outputs)
	}
}

func TestStore_Persistence(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "store", "builds.json")

	store1, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore 1 failed: %v", err)
	}
	if err := store1.Put(domain.BuildInfo{TaskName: "sass", Failed: true, Error: "boom"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	store2, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore 2 failed: %v", err)
	}

	got, err := store2.Get("sass")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected persisted build info")
	}
	if !got.Failed || got.Error != "boom" {
		t.Errorf("unexpected build info: %+v", got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "builds.json"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	got, err := store.Get("nothing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestStore_ListSortedByTask(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "builds.json"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	for _, name := range []string{"js", "clean", "sass"} {
		if err := store.Put(domain.BuildInfo{TaskName: name}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	// Overwrite keeps a single record per task.
	if err := store.Put(domain.BuildInfo{TaskName: "js", Outputs: 1}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 records, got %d", len(list))
	}
	want := []string{"clean", "js", "sass"}
	for i, info := range list {
		if info.TaskName != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], info.TaskName)
		}
	}
	if list[1].Outputs != 1 {
		t.Errorf("expected overwritten js record, got %+v", list[1])
	}
}

func TestStore_CorruptFile(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "builds.json")
	if err := os.WriteFile(storePath, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := cas.NewStore(storePath); err == nil {
		t.Fatal("expected error for corrupt store")
	}
}

func TestStore_EmptyFile(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "builds.json")
	if err := os.WriteFile(storePath, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	list, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
}

func TestStore_DocumentLayout(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "builds.json")
	store, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Put(domain.BuildInfo{TaskName: "js", Outputs: 1}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Version int                         `json:"version"`
		Tasks   map[string]domain.BuildInfo `json:"tasks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("store file is not JSON: %v", err)
	}
	if doc.Version != 1 {
		t.Errorf("expected version 1, got %d", doc.Version)
	}
	if doc.Tasks["js"].Outputs != 1 {
		t.Errorf("unexpected js record: %+v", doc.Tasks["js"])
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(storePath), ".builds.json.*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestStore_OtherVersionIsDiscarded(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "builds.json")
	old := `{"version": 0, "tasks": {"sass": {"task_name": "sass"}}}`
	if err := os.WriteFile(storePath, []byte(old), 0o600); err != nil {
		t.Fatal(err)
	}

	store, err := cas.NewStore(storePath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	got, err := store.Get("sass")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected records of another version to be dropped, got %+v", got)
	}
}
