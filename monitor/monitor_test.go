package monitor

import (
	"os"
	"reflect"
	"runtime"
	"testing"
)

func TestFilterByExecutableSuffix(t *testing.T) {
	processes := []Process{
		{Path: "/opt/bench/somas_solver", PID: 10},
		{Path: "/usr/bin/bash", PID: 11},
		{Path: "/opt/bench/somas_solver.sh", PID: 12},
		{Path: "/opt/old/somas_solver", PID: 13},
	}
	tests := []struct {
		name   string
		suffix string
		want   []int
	}{
		{"exact binary", "somas_solver", []int{10, 13}},
		{"path part", "bench/somas_solver", []int{10}},
		{"no match", "java", nil},
		{"case sensitive", "SOMAS_SOLVER", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			for _, p := range FilterByExecutableSuffix(processes, tt.suffix) {
				got = append(got, p.PID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterByExecutableSuffix() got = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcess_String(t *testing.T) {
	p := Process{
		Path: "/opt/bench/somas_solver",
		Args: []string{"/opt/bench/somas_solver", "trace.csv"},
		PID:  42,
		PPID: 1,
		RSS:  3 << 20,
		PSS:  1 << 10,
	}
	want := "42(1)\t/opt/bench/somas_solver\t3.0 MiB\t1.0 KiB\t[/opt/bench/somas_solver trace.csv]"
	if got := p.String(); got != want {
		t.Errorf("String() got = %q, want %q", got, want)
	}
}

func TestClient_ScanFindsSelf(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("procfs only on linux")
	}
	if _, err := os.Stat("/proc/self/smaps_rollup"); err != nil {
		t.Skip("no smaps_rollup on this kernel")
	}
	processes, err := NewClient().Scan()
	if err != nil {
		t.Fatal(err)
	}
	self, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range processes {
		if p.PID == os.Getpid() {
			if p.Path != self {
				t.Errorf("self path got = %s, want %s", p.Path, self)
			}
			return
		}
	}
	t.Errorf("PID %d not found in %d processes", os.Getpid(), len(processes))
}
