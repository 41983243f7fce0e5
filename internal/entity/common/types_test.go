package common

import "testing"

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		pageSize int64
		expected int64
	}{
		{name: "empty", total: 0, pageSize: 4, expected: 1},
		{name: "exact", total: 8, pageSize: 4, expected: 2},
		{name: "remainder", total: 9, pageSize: 4, expected: 3},
		{name: "single", total: 1, pageSize: 7, expected: 1},
		{name: "invalid page size", total: 10, pageSize: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalPages(tt.total, tt.pageSize); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestNewMeta(t *testing.T) {
	t.Run("last page", func(t *testing.T) {
		meta := NewMeta(9, LastPage, 4)
		if meta.Page != 3 {
			t.Fatalf("expected page 3, got %d", meta.Page)
		}
		if meta.Offset() != 8 {
			t.Fatalf("expected offset 8, got %d", meta.Offset())
		}
	})

	t.Run("defaults", func(t *testing.T) {
		meta := NewMeta(0, 0, 0)
		if meta.Page != 1 || meta.PageSize != 20 || meta.TotalPages != 1 {
			t.Fatalf("unexpected meta %+v", meta)
		}
		if meta.Offset() != 0 {
			t.Fatalf("expected offset 0, got %d", meta.Offset())
		}
	})
}
