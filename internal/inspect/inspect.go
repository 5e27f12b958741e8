// Package inspect describes exported files: format, dimensions and camera
// metadata, read in parallel.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"darkroom/pkg/imgutil"
)

var errIsDir = errors.New("is a directory")

type Job struct {
	Path    string
	Display string
}

type Result struct {
	Path      string
	Display   string
	Supported bool
	Leftover  bool
	Err       error
	Report    Report
}

// Report describes one exported image.
type Report struct {
	Path     string
	Size     int64
	Info     imgutil.Info
	Metadata imgutil.Metadata
}

type Summary struct {
	Total     int
	Processed int
	Errors    int
	Leftovers int
	Bytes     int64
}

type Update struct {
	TotalDelta     int
	ProcessedDelta int
	ErrorDelta     int
}

// Options tune Run. Zero Workers means one per CPU.
type Options struct {
	Workers int
}

// Run inspects the named files. Reports are sorted by path. updates may be
// nil. Directories are not descended into and count as errors.
func Run(ctx context.Context, paths []string, opts Options, updates chan<- Update) (Summary, []Report, error) {
	summary := Summary{}
	var reports []Report

	jobs := make(chan Job)
	results := make(chan Result)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, updates)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			if res.Leftover {
				summary.Leftovers++
				continue
			}
			if res.Err != nil {
				summary.Errors++
				if updates != nil {
					updates <- Update{ErrorDelta: 1}
				}
				continue
			}
			if res.Supported {
				summary.Total++
				summary.Processed++
				summary.Bytes += res.Report.Size
				reports = append(reports, res.Report)
				if updates != nil {
					updates <- Update{ProcessedDelta: 1}
				}
			}
		}
	}()

	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)
		for _, path := range paths {
			select {
			case jobs <- Job{Path: path, Display: filepath.Clean(path)}:
			case <-ctx.Done():
				producerErr <- ctx.Err()
				return
			}
		}
		producerErr <- nil
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })

	if err := <-producerErr; err != nil {
		return summary, reports, err
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return summary, reports, err
	}
	return summary, reports, nil
}

// IsLeftover reports whether name is the temporary file of an interrupted
// download.
func IsLeftover(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, ".tmp") && (strings.HasPrefix(base, "darkroom-") || strings.HasPrefix(base, ".preview-"))
}

func worker(ctx context.Context, jobs <-chan Job, results chan<- Result, updates chan<- Update) {
	for job := range jobs {
		if err := ctx.Err(); err != nil {
			return
		}

		res := Result{Path: job.Path, Display: job.Display}
		if IsLeftover(job.Path) {
			res.Leftover = true
			results <- res
			continue
		}

		file, err := os.Open(job.Path)
		if err != nil {
			res.Err = err
			results <- res
			continue
		}
		if st, err := file.Stat(); err != nil || st.IsDir() {
			_ = file.Close()
			if err == nil {
				err = fmt.Errorf("%s: %w", job.Display, errIsDir)
			}
			res.Err = err
			results <- res
			continue
		}

		kind, err := imgutil.SniffReader(file)
		if err != nil {
			_ = file.Close()
			res.Err = err
			results <- res
			continue
		}
		if kind == imgutil.KindUnknown {
			_ = file.Close()
			continue
		}

		res.Supported = true
		if updates != nil {
			updates <- Update{TotalDelta: 1}
		}

		report, err := inspectFile(file, job.Display)
		_ = file.Close()
		if err != nil {
			res.Err = err
			results <- res
			continue
		}
		res.Report = report
		results <- res
	}
}

func inspectFile(file *os.File, display string) (Report, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return Report{}, err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return Report{}, err
	}
	report := Report{Path: display, Size: int64(len(data))}

	report.Info, err = imgutil.Inspect(data)
	if err != nil {
		// DNG strips may not decode; keep the header kind.
		kind, _ := imgutil.DetectHeader(data)
		report.Info = imgutil.Info{Kind: kind}
	}
	report.Metadata, err = imgutil.ReadMetadata(data)
	if err != nil {
		return report, err
	}
	return report, nil
}
