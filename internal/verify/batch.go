// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/credverify/internal/visual"
	"github.com/pdiddy/credverify/pkg/types"
)

// BatchItem is the outcome for one file.
type BatchItem struct {
	Path   string                    `json:"path"`
	Result *types.VerificationResult `json:"result,omitempty"`
	Err    error                     `json:"-"`
	Error  string                    `json:"error,omitempty"`
}

// BatchSummary holds counts from a batch run. Items are in input order.
type BatchSummary struct {
	Verified int         `json:"verified"`
	Invalid  int         `json:"invalid"`
	Failed   int         `json:"failed"`
	Items    []BatchItem `json:"items"`
}

// Total returns the number of files processed.
func (s BatchSummary) Total() int {
	return s.Verified + s.Invalid + s.Failed
}

// CollectFiles expands paths into certificate image files. Directories are
// walked recursively and only files with an allowed extension are kept;
// files named explicitly are kept as given. The result is sorted and free
// of duplicates.
func CollectFiles(paths []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && visual.CheckExtension(path) == nil {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Batch verifies each file with VerifyFile using at most workers
// concurrent requests (runtime.NumCPU() when workers <= 0). One status line
// per file is written to w as it finishes, then a summary line. Failures
// are counted and never stop the batch.
func (v *Verifier) Batch(ctx context.Context, paths []string, workers int, w io.Writer) BatchSummary {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	items := make([]BatchItem, len(paths))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(workers)
	for i, path := range paths {
		i, path := i, path
		p.Go(func() {
			item := BatchItem{Path: path}
			if err := ctx.Err(); err != nil {
				item.Err = err
			} else {
				item.Result, item.Err = v.VerifyFile(ctx, path)
			}
			if item.Err != nil {
				item.Error = item.Err.Error()
			}
			items[i] = item

			mu.Lock()
			defer mu.Unlock()
			switch {
			case item.Err != nil:
				fmt.Fprintf(w, "failed   %s: %v\n", path, item.Err)
			case item.Result.Status == types.StatusVerified:
				fmt.Fprintf(w, "verified %s (%s, overall %.1f)\n", path, item.Result.Fields.CertificateNo, item.Result.Confidence.Overall)
			default:
				fmt.Fprintf(w, "invalid  %s\n", path)
			}
		})
	}
	p.Wait()

	summary := BatchSummary{Items: items}
	for _, it := range items {
		switch {
		case it.Err != nil:
			summary.Failed++
		case it.Result.Status == types.StatusVerified:
			summary.Verified++
		default:
			summary.Invalid++
		}
	}
	fmt.Fprintf(w, "\nverified: %d, invalid: %d, failed: %d\n", summary.Verified, summary.Invalid, summary.Failed)
	return summary
}
