package monitor

import (
	"errors"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/prometheus/procfs"
	"strings"
)

// ErrProducerRunning means a benchmark is still writing its output, aggregating now would lose data.
var ErrProducerRunning = errors.New("producer still running")

type Process struct {
	Path string
	Args []string
	PID  int    // Process ID
	PPID int    // Parent Process ID
	RSS  uint64 // Resident Set Size, a memory usage metric of how much needed.
	PSS  uint64 // Proportional Set Size, a memory usage metric of how much used.
}

func (p Process) String() string {
	return fmt.Sprintf(
		"%d(%d)\t%s\t%s\t%s\t%v",
		p.PID,
		p.PPID,
		p.Path,
		humanize.IBytes(p.RSS),
		humanize.IBytes(p.PSS),
		p.Args,
	)
}

type Client struct {
}

func NewClient() *Client {
	return &Client{}
}

// Scan lists visible processes. Those of other users or gone while scanning are skipped.
func (c *Client) Scan() ([]Process, error) {
	procs, err := procfs.AllProcs()
	if err != nil {
		return nil, err
	}
	var ret []Process
	for _, proc := range procs {
		valid, p, err := newProcess(proc)
		if err != nil {
			return nil, err
		}
		if !valid {
			continue
		}
		ret = append(ret, p)
	}
	return ret, nil
}

// newProcess creates Process from its Proc, if not valid as common not privilege as root or no such process,
// valid would be false and the process shall be ignored.
func newProcess(proc procfs.Proc) (valid bool, p Process, err error) {
	executable, err := proc.Executable()
	if err != nil {
		// If not run as root, only runner user's processes are visible. Common and keep silent.
		if ignorable(err) {
			return false, Process{}, nil
		}
		return false, Process{}, err
	}
	stat, err := proc.Stat()
	if err != nil {
		if ignorable(err) {
			return false, Process{}, nil
		}
		return false, Process{}, err
	}
	args, err := proc.CmdLine()
	if err != nil {
		if ignorable(err) {
			return false, Process{}, nil
		}
		return false, Process{}, err
	}
	rollup, err := proc.ProcSMapsRollup()
	if err != nil {
		// Kernel threads like [kthreadd] end with no such process on smaps_rollup, never our targets.
		if ignorable(err) {
			return false, Process{}, nil
		}
		return false, Process{}, err
	}
	return true, Process{
		Path: executable,
		Args: args,
		PID:  stat.PID,
		PPID: stat.PPID,
		RSS:  rollup.Rss,
		PSS:  rollup.Pss,
	}, nil
}

// ignorable tells the errors of a process exited mid-scan or owned by others.
func ignorable(err error) bool {
	msg := err.Error()
	return strings.HasSuffix(msg, "permission denied") ||
		strings.HasSuffix(msg, "no such process") ||
		strings.HasSuffix(msg, "no such file or directory")
}

func FilterByExecutableSuffix(processes []Process, suffix string) []Process {
	var ret []Process
	for _, p := range processes {
		if strings.HasSuffix(p.Path, suffix) {
			ret = append(ret, p)
		}
	}
	return ret
}
