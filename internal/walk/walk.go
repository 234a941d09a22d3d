// Package walk implements the recursive directory walker that feeds
// haystack paths to the driver, applying internal/ignore decisions as it
// descends. Traversal itself is delegated to github.com/karrick/godirwalk,
// which already handles the symlink-loop and readdir-order concerns a
// hand-rolled walker would otherwise have to solve.
package walk

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"

	"github.com/mjkoo/rgx/internal/ignore"
)

// Entry is one haystack path discovered by the walker.
type Entry struct {
	Path       string // as given to the consumer, relative-or-absolute per Roots input
	IsDir      bool
	DirEntry   bool // true if this came from directory traversal, not an explicit root
	Depth      int
	Err        error
}

// Options configures one walk.
type Options struct {
	Roots         []string
	FollowSymlinks bool
	MaxDepth      int // 0 means unlimited
	SortByPath    bool
	IgnoreConfig  ignore.Config
	GlobalIgnoreFile string
}

// Walk traverses Roots, sending each accepted file (not directory) Entry to
// visit. visit returning an error aborts the walk under that root.
func Walk(opts Options, visit func(Entry) error) error {
	for _, root := range opts.Roots {
		info, err := os.Lstat(root)
		if err != nil {
			if verr := visit(Entry{Path: root, Err: err}); verr != nil {
				return verr
			}
			continue
		}
		if !info.IsDir() {
			if verr := visit(Entry{Path: root, DirEntry: false}); verr != nil {
				return verr
			}
			continue
		}
		if err := walkDir(root, opts, visit); err != nil {
			return err
		}
	}
	return nil
}

func walkDir(root string, opts Options, visit func(Entry) error) error {
	tree, err := ignore.NewTree(opts.IgnoreConfig, opts.GlobalIgnoreFile)
	if err != nil {
		return err
	}

	var entries []Entry

	walkErr := godirwalk.Walk(root, &godirwalk.Options{
		FollowSymbolicLinks: opts.FollowSymlinks,
		Unsorted:            !opts.SortByPath,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if path == root {
				tree.Push(root)
				return nil
			}

			rel, _ := filepath.Rel(root, path)
			rel = filepath.ToSlash(rel)
			name := filepath.Base(path)
			isDir := de.IsDir()

			if opts.MaxDepth > 0 && depthOf(rel) > opts.MaxDepth {
				if isDir {
					return filepath.SkipDir
				}
				return nil
			}

			verdict, _ := tree.Decide(path, rel, name, isDir)
			if verdict == ignore.VerdictReject {
				if isDir {
					return godirwalk.SkipThis
				}
				return nil
			}

			if isDir {
				tree.Push(path)
				return nil
			}
			entries = append(entries, Entry{Path: path, IsDir: false, DirEntry: true, Depth: depthOf(rel)})
			return nil
		},
		PostChildrenCallback: func(path string, de *godirwalk.Dirent) error {
			tree.Pop()
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			entries = append(entries, Entry{Path: path, Err: err})
			return godirwalk.SkipNode
		},
	})
	if walkErr != nil {
		return walkErr
	}

	if opts.SortByPath {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	}
	for _, e := range entries {
		if err := visit(e); err != nil {
			return err
		}
	}
	return nil
}

func depthOf(relSlashPath string) int {
	if relSlashPath == "." || relSlashPath == "" {
		return 0
	}
	depth := 1
	for _, c := range relSlashPath {
		if c == '/' {
			depth++
		}
	}
	return depth
}
