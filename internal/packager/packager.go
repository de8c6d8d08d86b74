// Package packager builds deployable code bundles. Output is
// deterministic: entries are enumerated in sorted order with paths
// relative to the source root, timestamps zeroed, and the bundle
// written to a content-addressed path, so packaging an unchanged tree
// yields the same artifact path on every run.
package packager

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/groundwork-io/groundwork/internal/errors"
	"github.com/groundwork-io/groundwork/internal/logging"
)

// Artifact is a built code bundle.
type Artifact struct {
	Path    string // bundle location on disk
	Digest  string // hex sha256 over the entry set and contents
	Entries int
	Size    int64
}

// Packager builds zip bundles under OutDir.
type Packager struct {
	// OutDir receives the bundles. Defaults to the OS temp dir.
	OutDir string

	// Reuse skips rebuilding when the content-addressed bundle for the
	// current tree already exists.
	Reuse bool
}

// Package bundles the directory tree rooted at sourceDir. It fails when
// the directory is absent or contains no files.
func (p *Packager) Package(sourceDir string) (Artifact, error) {
	if sourceDir == "" {
		return Artifact{}, errors.New(errors.CodePackaging, "empty source directory")
	}
	info, err := os.Stat(sourceDir)
	if err != nil {
		return Artifact{}, errors.Wrap(err, errors.CodePackaging, "source directory not readable")
	}
	if !info.IsDir() {
		return Artifact{}, errors.Newf(errors.CodePackaging, "%s is not a directory", sourceDir)
	}

	files, err := enumerate(sourceDir)
	if err != nil {
		return Artifact{}, errors.Wrap(err, errors.CodePackaging, "enumerating source tree")
	}
	if len(files) == 0 {
		return Artifact{}, errors.Newf(errors.CodePackaging, "source directory %s is empty", sourceDir)
	}

	digest, err := digestFiles(sourceDir, files)
	if err != nil {
		return Artifact{}, errors.Wrap(err, errors.CodePackaging, "hashing source tree")
	}

	outDir := p.OutDir
	if outDir == "" {
		outDir = os.TempDir()
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Artifact{}, errors.Wrap(err, errors.CodePackaging, "creating output directory")
	}
	target := filepath.Join(outDir, fmt.Sprintf("bundle-%s.zip", digest[:16]))

	if p.Reuse {
		if st, err := os.Stat(target); err == nil {
			logging.Debug("reusing existing bundle", "path", target)
			return Artifact{Path: target, Digest: digest, Entries: len(files), Size: st.Size()}, nil
		}
	}

	if err := writeBundle(sourceDir, files, target); err != nil {
		return Artifact{}, errors.Wrap(err, errors.CodePackaging, "writing bundle")
	}

	st, err := os.Stat(target)
	if err != nil {
		return Artifact{}, errors.Wrap(err, errors.CodePackaging, "built bundle not readable")
	}

	logging.Info("bundle built", "path", target, "entries", len(files))
	return Artifact{Path: target, Digest: digest, Entries: len(files), Size: st.Size()}, nil
}

// enumerate returns every regular file under root as a sorted list of
// slash-separated paths relative to root.
func enumerate(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func digestFiles(root string, files []string) (string, error) {
	h := sha256.New()
	for _, rel := range files {
		io.WriteString(h, rel)
		h.Write([]byte{0})
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeBundle(root string, files []string, target string) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, rel := range files {
		hdr := &zip.FileHeader{Name: rel, Method: zip.Deflate}
		hdr.SetMode(0o644)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return zw.Close()
}
