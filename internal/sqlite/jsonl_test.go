// Tests for JSONL persistence helpers.
package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	records := []json.RawMessage{
		json.RawMessage(`{"record_id":"a"}`),
		json.RawMessage(`{"record_id":"b"}`),
	}

	if err := writeJSONL(path, records); err != nil {
		t.Fatalf("writeJSONL failed: %v", err)
	}
	got, skipped, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if skipped != 0 {
		t.Errorf("expected no skipped lines, got %d", skipped)
	}
	if len(got) != 2 || string(got[1]) != `{"record_id":"b"}` {
		t.Errorf("unexpected records: %s", got)
	}
}

func TestReadJSONLSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	data := "{\"record_id\":\"a\"}\n\nnot json\n{\"record_id\":\"b\"}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	got, skipped, err := readJSONL(path)
	if err != nil {
		t.Fatalf("readJSONL failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped line, got %d", skipped)
	}
}

func TestWriteJSONLLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")
	if err := writeJSONL(path, nil); err != nil {
		t.Fatalf("writeJSONL failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "records.jsonl" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty file, got %d bytes", info.Size())
	}
}

func TestInitJSONLFilesKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, recordsJSONL)
	if err := os.WriteFile(existing, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := initJSONLFiles(dir); err != nil {
		t.Fatalf("initJSONLFiles failed: %v", err)
	}
	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}\n" {
		t.Errorf("existing file was overwritten: %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, countersJSONL)); err != nil {
		t.Errorf("expected %s to be created: %v", countersJSONL, err)
	}
}
