package pieces

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

func findDirectories(ctx context.Context, base, skip string) (<-chan string, <-chan error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(dir string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore anything that isn't a directory
			if !info.Mode().IsDir() {
				return nil
			}

			// Don't descend into our own output
			if dir == skip {
				return filepath.SkipDir
			}

			// Ignore any hidden directories, but not the base itself if
			// it happens to be "."
			if dir != base && info.Name()[0] == '.' {
				return filepath.SkipDir
			}

			select {
			case out <- dir:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc
}

// normalizeDir rewrites every place found in dir into out
func normalizeDir(ctx context.Context, dir, out string, o []Option) error {
	ids, err := PlaceIDsInDir(dir)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := os.MkdirAll(out, 0755); err != nil {
		return err
	}

	s := NewSplitter(dir, ids, o...)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}

		place, err := s.Split(id)
		if err != nil {
			return err
		}
		if err := SaveToDir(place, out, o...); err != nil {
			return err
		}
	}

	return nil
}

func directoryWorker(ctx context.Context, in <-chan string, src, dst string, o []Option) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for dir := range in {
			// Stop writing once Normalize has given up
			select {
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			default:
			}

			rel, err := filepath.Rel(src, dir)
			if err != nil {
				errc <- err
				return
			}

			if err := normalizeDir(ctx, dir, filepath.Join(dst, rel), o); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Normalize walks src and rewrites every place it finds into the same
// relative directory under dst, converting any legacy offsets to the
// structured form. Each directory is handled by a single worker so no two
// workers write to the same place.
func Normalize(ctx context.Context, src, dst string, opts ...Option) error {
	src, err := filepath.Abs(src)
	if err != nil {
		return err
	}

	dst, err = filepath.Abs(dst)
	if err != nil {
		return err
	}

	if src == dst {
		return errors.New("pieces: source and destination are the same directory")
	}

	o := newOptions(opts)
	if o.workers < 1 {
		return fmt.Errorf("pieces: need at least one worker, got %d", o.workers)
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	dirs, errc := findDirectories(ctx, src, dst)
	errcList = append(errcList, errc)

	for i := 0; i < o.workers; i++ {
		errcList = append(errcList, directoryWorker(ctx, dirs, src, dst, opts))
	}

	return waitForPipeline(errcList...)
}
