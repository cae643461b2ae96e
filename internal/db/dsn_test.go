package db

import "testing"

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"url untouched", "postgres://u:p@h:5432/db", "postgres://u:p@h:5432/db"},
		{"quoted kv gets sslmode", `"host=h  user=u dbname=d"`, "host=h user=u dbname=d sslmode=disable"},
		{"kv keeps sslmode", "host=h user=u dbname=d sslmode=require", "host=h user=u dbname=d sslmode=require"},
		{"garbage passthrough", "nonsense", "nonsense"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDSN(tt.in); got != tt.want {
				t.Fatalf("NormalizeDSN(%q) = %q want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5432 user=pos password=s3cret dbname=panaderia sslmode=disable")
	want := "postgres://pos:s3cret@db:5432/panaderia?sslmode=disable"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	// Missing parts: returned unchanged.
	if got := ToURLDSN("host=db"); got != "host=db" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=h password=secret dbname=d"); got != "host=h password=*** dbname=d" {
		t.Fatalf("kv mask: %q", got)
	}
	if got := MaskDSN("postgres://u:secret@h/d"); got != "postgres://u:***@h/d" {
		t.Fatalf("url mask: %q", got)
	}
}
