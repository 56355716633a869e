package contacts

import "testing"

func TestExportFileNameIncludesPlatform(t *testing.T) {
	got := exportFileName("/tmp/out", "daily")
	want := "/tmp/out/contacts_daily.csv"
	if got != want {
		t.Errorf("exportFileName = %q, want %q", got, want)
	}
}

func TestExportColumnsFixedOrder(t *testing.T) {
	want := []string{"business_id", "email", "contact_type"}
	if len(ExportColumns) != len(want) {
		t.Fatalf("ExportColumns length = %d, want %d", len(ExportColumns), len(want))
	}
	for i, c := range want {
		if ExportColumns[i] != c {
			t.Errorf("ExportColumns[%d] = %q, want %q", i, ExportColumns[i], c)
		}
	}
}
