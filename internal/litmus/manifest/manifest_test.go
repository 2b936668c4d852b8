package manifest

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		m       Manifest
		wantErr bool
	}{
		{
			name:    "zero threads",
			m:       Manifest{NThreads: 0},
			wantErr: true,
		},
		{
			name: "ok single thread",
			m: Manifest{
				NThreads:     1,
				AtomicInt32s: []CellRecord{{Name: "x", Initial: 42}},
			},
			wantErr: false,
		},
		{
			name: "duplicate atomic name",
			m: Manifest{
				NThreads: 2,
				AtomicInt32s: []CellRecord{
					{Name: "x"},
					{Name: "x"},
				},
			},
			wantErr: true,
		},
		{
			name: "duplicate int32 name",
			m: Manifest{
				NThreads: 2,
				Int32s: []CellRecord{
					{Name: "r0"},
					{Name: "r0"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReserve(t *testing.T) {
	m := Manifest{
		NThreads:     2,
		AtomicInt32s: []CellRecord{{Name: "x"}, {Name: "y"}},
		Int32s:       []CellRecord{{Name: "0:r0"}},
	}
	r := m.Reserve()
	if r.NAtomicInt32 != 2 || r.NInt32 != 1 {
		t.Fatalf("Reserve() = %+v, want {2 1}", r)
	}
}

func TestNames(t *testing.T) {
	m := Manifest{
		NThreads:     1,
		AtomicInt32s: []CellRecord{{Name: "x"}, {Name: "y"}},
		Int32s:       []CellRecord{{Name: "0:r0"}, {Name: "1:r0"}},
	}
	gotA := m.AtomicInt32Names()
	wantA := []string{"x", "y"}
	for i := range wantA {
		if gotA[i] != wantA[i] {
			t.Fatalf("AtomicInt32Names() = %v, want %v", gotA, wantA)
		}
	}
	gotI := m.Int32Names()
	wantI := []string{"0:r0", "1:r0"}
	for i := range wantI {
		if gotI[i] != wantI[i] {
			t.Fatalf("Int32Names() = %v, want %v", gotI, wantI)
		}
	}
}
