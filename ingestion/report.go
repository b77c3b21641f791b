// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// FileFailure records a document that could not be ingested.
type FileFailure struct {
	Path string
	Err  error
}

// Report summarizes a directory run.
type Report struct {
	Dir          string
	Files        int
	Succeeded    int
	Failed       []FileFailure
	Chunks       int // records written
	FailedChunks int // chunks dropped because embedding failed
	Elapsed      time.Duration
}

// ChunksPerSecond is the write throughput of the run.
func (r *Report) ChunksPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Chunks) / r.Elapsed.Seconds()
}

// Err joins the errors of all failed documents, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}

// Print writes a human-readable summary to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Ingestion summary for %s\n", r.Dir)
	fmt.Fprintf(w, "  Files:          %d (%d succeeded, %d failed)\n", r.Files, r.Succeeded, len(r.Failed))
	fmt.Fprintf(w, "  Chunks written: %d\n", r.Chunks)
	if r.FailedChunks > 0 {
		fmt.Fprintf(w, "  Chunks skipped: %d\n", r.FailedChunks)
	}
	fmt.Fprintf(w, "  Elapsed:        %s (%.1f chunks/s)\n", r.Elapsed.Round(time.Millisecond), r.ChunksPerSecond())
	for _, f := range r.Failed {
		fmt.Fprintf(w, "  FAILED %s: %v\n", filepath.Base(f.Path), f.Err)
	}
}
