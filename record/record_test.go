package record

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain", "1700000000,1,21.5,45.2,18.3,50.1,22.0", []string{"1700000000", "1", "21.5", "45.2", "18.3", "50.1", "22.0"}},
		{"newline", "1700000000,1,21.5,45.2,18.3,50.1,22.0\n", []string{"1700000000", "1", "21.5", "45.2", "18.3", "50.1", "22.0"}},
		{"crlf", "1,0,1,2,3,4,5\r\n", []string{"1", "0", "1", "2", "3", "4", "5"}},
		{"empty nullable", "1,0,1,2,3,,", []string{"1", "0", "1", "2", "3", "", ""}},
		{"short", "1,0,1", []string{"1", "0", "1"}},
		{"quotes kept", `1,"0",1`, []string{"1", `"0"`, "1"}},
		{"blank", "", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestArgsNullable(t *testing.T) {
	args := Args([]string{"1", "0", "", "2", "3", "", ""})
	if args[2] != "" {
		t.Errorf("required empty field should stay text, got %v", args[2])
	}
	if args[5] != nil || args[6] != nil {
		t.Errorf("nullable empty fields should be nil, got %v %v", args[5], args[6])
	}
	if args[0] != "1" {
		t.Errorf("expected raw text, got %v", args[0])
	}
}

func TestArgsExtraFields(t *testing.T) {
	args := Args([]string{"1", "0", "1", "2", "3", "4", "5", ""})
	if len(args) != 8 {
		t.Fatalf("expected 8 args, got %d", len(args))
	}
	if args[7] != "" {
		t.Errorf("fields past the schema are never nulled, got %v", args[7])
	}
}

func TestScanTargets(t *testing.T) {
	var r LogRecord
	if n := len(r.ScanTargets()); n != FieldCount {
		t.Errorf("expected %d scan targets, got %d", FieldCount, n)
	}
}
