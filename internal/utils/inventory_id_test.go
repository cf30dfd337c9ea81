package utils

import (
	"testing"
	"time"
)

func TestGenerateInventoryID(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	id, err := GenerateInventoryID("BRS", date, "12", 1)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if id != "BRS05032024120001" {
		t.Errorf("ID mismatch: got %s, want BRS05032024120001", id)
	}

	id2, err := GenerateInventoryID("BRS", date, "12", 2)
	if err != nil {
		t.Fatalf("Failed to generate second ID: %v", err)
	}
	if id2 != "BRS05032024120002" {
		t.Errorf("ID mismatch: got %s, want BRS05032024120002", id2)
	}

	t.Logf("Generated: %s, %s", id, id2)
}

func TestGenerateInventoryIDDeterministic(t *testing.T) {
	date := time.Date(2025, 11, 28, 14, 30, 0, 0, time.UTC)

	a, err := GenerateInventoryID("IRM", date, "ERC-MK5", 42)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	b, err := GenerateInventoryID("IRM", date, "ERC-MK5", 42)
	if err != nil {
		t.Fatalf("Failed to generate: %v", err)
	}
	if a != b {
		t.Errorf("Not deterministic: %s != %s", a, b)
	}

	// Time-of-day must not leak into the date segment
	c, _ := GenerateInventoryID("IRM", date.Add(7*time.Hour), "ERC-MK5", 42)
	if a != c {
		t.Errorf("Time of day changed the ID: %s != %s", a, c)
	}
}

func TestGenerateInventoryIDDistinctScanNumbers(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	seen := make(map[string]int)
	for n := 1; n <= 200; n++ {
		id, err := GenerateInventoryID("BRS", date, "12", n)
		if err != nil {
			t.Fatalf("Failed at scan %d: %v", n, err)
		}
		if prev, dup := seen[id]; dup {
			t.Fatalf("Collision: scan %d and %d both map to %s", prev, n, id)
		}
		seen[id] = n
	}
}

func TestGenerateInventoryIDValidation(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		code string
		pid  string
		scan int
	}{
		{"short code", "BR", "12", 1},
		{"long code", "BRSX", "12", 1},
		{"lowercase code", "brs", "12", 1},
		{"empty product id", "BRS", "", 1},
		{"zero scan number", "BRS", "12", 0},
		{"negative scan number", "BRS", "12", -3},
		{"scan number overflow", "BRS", "12", 10000},
	}

	for _, tc := range cases {
		if _, err := GenerateInventoryID(tc.code, date, tc.pid, tc.scan); err == nil {
			t.Errorf("%s: expected validation error, got none", tc.name)
		}
	}
}

func TestGenerateInventoryIDPadding(t *testing.T) {
	date := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		scan int
		want string
	}{
		{1, "REC31122024ERC0001"},
		{99, "REC31122024ERC0099"},
		{1234, "REC31122024ERC1234"},
		{9999, "REC31122024ERC9999"},
	}

	for _, tc := range cases {
		got, err := GenerateInventoryID("REC", date, "ERC", tc.scan)
		if err != nil {
			t.Fatalf("scan %d: %v", tc.scan, err)
		}
		if got != tc.want {
			t.Errorf("scan %d: got %s, want %s", tc.scan, got, tc.want)
		}
	}
}
