package internaldefs

import (
	"testing"

	rentalAuth "github.com/MrEthical07/rentalAuth"
)

func TestEveryCounterExportedOnce(t *testing.T) {
	seen := map[rentalAuth.MetricID]string{}
	for _, fam := range Families {
		if (fam.Label == "") != (len(fam.Series) == 1 && fam.Series[0].Value == "") {
			t.Fatalf("%s: label and series values disagree", fam.Name)
		}
		for _, s := range fam.Series {
			if prev, ok := seen[s.ID]; ok {
				t.Fatalf("metric %d exported by %s and %s", s.ID, prev, fam.Name)
			}
			seen[s.ID] = fam.Name
		}
	}
	for _, def := range HistogramDefs {
		seen[def.ID] = def.Name
	}
	for id := rentalAuth.MetricAuthenticateSuccess; id <= rentalAuth.MetricAuthenticateLatency; id++ {
		if _, ok := seen[id]; !ok {
			t.Fatalf("metric %d is not exported", id)
		}
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets([]uint64{1, 0, 2})
	want := []uint64{1, 1, 3, 3, 3, 3, 3, 3}
	if len(got) != len(HistogramBounds) {
		t.Fatalf("len = %d, want %d", len(got), len(HistogramBounds))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket %d = %d, want %d", i, got[i], want[i])
		}
	}
}
