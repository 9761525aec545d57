package store_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/psatprep/backend/internal/store"
)

func open(t *testing.T) *store.KV {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv, err := store.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	kv := open(t)

	type settings struct {
		Count int    `json:"count"`
		Name  string `json:"name"`
	}

	if !kv.Save(store.KeySettings, settings{Count: 25, Name: "default"}) {
		t.Fatal("save failed")
	}

	var got settings
	if !kv.Load(store.KeySettings, &got) {
		t.Fatal("load failed")
	}
	if got.Count != 25 || got.Name != "default" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSave_Overwrites(t *testing.T) {
	kv := open(t)

	kv.Save(store.KeyAPIModel, "first")
	kv.Save(store.KeyAPIModel, "second")

	var got string
	kv.Load(store.KeyAPIModel, &got)
	if got != "second" {
		t.Errorf("expected latest value, got %q", got)
	}
}

func TestLoad_AbsentKeyLeavesDefault(t *testing.T) {
	kv := open(t)

	got := []string{"default"}
	if kv.Load(store.KeyStarred, &got) {
		t.Error("expected false for absent key")
	}
	if len(got) != 1 || got[0] != "default" {
		t.Errorf("expected default untouched, got %v", got)
	}
}

func TestLoad_MalformedTreatedAsAbsent(t *testing.T) {
	kv := open(t)

	// A value of the wrong shape must not poison the caller.
	kv.Save(store.KeyStats, "not a map")

	got := map[string]int{"keep": 1}
	if kv.Load(store.KeyStats, &got) {
		t.Error("expected false for malformed value")
	}
	if got["keep"] != 1 {
		t.Error("expected default untouched on malformed value")
	}
}

func TestRemove(t *testing.T) {
	kv := open(t)

	kv.Save(store.KeyHistory, []int{1, 2})
	if !kv.Remove(store.KeyHistory) {
		t.Fatal("remove failed")
	}

	var got []int
	if kv.Load(store.KeyHistory, &got) {
		t.Error("expected key to be gone")
	}

	// Removing an absent key still succeeds.
	if !kv.Remove(store.KeyHistory) {
		t.Error("expected removing absent key to succeed")
	}
}

func TestClear(t *testing.T) {
	kv := open(t)

	kv.Save(store.KeyQuestions, []string{"q"})
	kv.Save(store.KeyStats, map[string]int{"a": 1})
	kv.Clear(store.KnownKeys())

	var qs []string
	if kv.Load(store.KeyQuestions, &qs) {
		t.Error("expected questions cleared")
	}
	var stats map[string]int
	if kv.Load(store.KeyStats, &stats) {
		t.Error("expected stats cleared")
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	kv := open(t)

	kv.Save(store.KeyQuestions, []string{"q1", "q2"})
	kv.Save(store.KeySettings, map[string]int{"questionCount": 10})
	kv.Save(store.KeyAPIModel, "model-x")

	snapshot := kv.ExportAll(store.KnownKeys())
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 exported keys, got %d", len(snapshot))
	}

	other := open(t)
	if !other.ImportAll(snapshot) {
		t.Fatal("import failed")
	}

	if got := other.ExportAll(store.KnownKeys()); !reflect.DeepEqual(stringify(snapshot), stringify(got)) {
		t.Errorf("snapshot mismatch after import:\n  exported %v\n  imported %v", stringify(snapshot), stringify(got))
	}
}

func TestImportAll_IgnoresUnknownKeys(t *testing.T) {
	kv := open(t)

	snapshot := kv.ExportAll(store.KnownKeys())
	snapshot["rogue_key"] = []byte(`"value"`)
	kv.ImportAll(snapshot)

	var got string
	if kv.Load("rogue_key", &got) {
		t.Error("expected unknown key to be ignored on import")
	}
}

func stringify(m map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = string(v)
	}
	return out
}
