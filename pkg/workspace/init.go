// Package workspace materializes a session's working directory from an
// initialization source: a directory tree, a ZIP archive, or a gzip
// compressed tarball.
package workspace

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/JhihJian/SUMM-Daemon/errors"
)

// CreateSessionStructure creates the session directory with its workspace/
// and runtime/ subdirectories.
func CreateSessionStructure(sessionDir string) error {
	for _, sub := range []string{"workspace", "runtime"} {
		dir := filepath.Join(sessionDir, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}
	return nil
}

// InitializeWorkdir populates workdir from initPath. Partial extraction may
// remain on failure; the caller owns cleanup on abort.
func InitializeWorkdir(workdir, initPath string) error {
	info, err := os.Stat(initPath)
	if err != nil {
		return errors.InitNotFound(initPath)
	}

	switch {
	case info.IsDir():
		return copyDirContents(initPath, workdir)
	case strings.HasSuffix(initPath, ".zip"):
		return extractZip(initPath, workdir)
	case strings.HasSuffix(initPath, ".tar.gz"), strings.HasSuffix(initPath, ".tgz"):
		return extractTarGz(initPath, workdir)
	default:
		return fmt.Errorf("unsupported initialization source: %s (expected directory, .zip, or .tar.gz)", initPath)
	}
}

// copyDirContents copies the contents of source into destination
// recursively, preserving file bytes and permission bits. Symlinks and other
// special files are skipped.
func copyDirContents(source, destination string) error {
	if err := os.MkdirAll(destination, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", destination, err)
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", source, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(source, entry.Name())
		destPath := filepath.Join(destination, entry.Name())

		switch {
		case entry.IsDir():
			if err := copyDirContents(srcPath, destPath); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := copyFile(srcPath, destPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dest, err)
	}
	return nil
}

// securePath joins name under destination, rejecting entries that would
// escape it.
func securePath(destination, name string) (string, error) {
	path := filepath.Join(destination, name)
	if !strings.HasPrefix(path, filepath.Clean(destination)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return path, nil
}

func extractZip(archivePath, destination string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.ExtractFailed(archivePath, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destination, 0755); err != nil {
		return errors.ExtractFailed(archivePath, err)
	}

	for _, file := range reader.File {
		if err := extractZipEntry(file, destination); err != nil {
			return errors.ExtractFailed(archivePath, err)
		}
	}
	return nil
}

func extractZipEntry(file *zip.File, destination string) error {
	path, err := securePath(destination, file.Name)
	if err != nil {
		return err
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(path, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	in, err := file.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, file.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func extractTarGz(archivePath, destination string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return errors.ExtractFailed(archivePath, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return errors.ExtractFailed(archivePath, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.ExtractFailed(archivePath, err)
		}

		if err := extractTarEntry(tr, header, destination); err != nil {
			return errors.ExtractFailed(archivePath, err)
		}
	}
}

func extractTarEntry(tr *tar.Reader, header *tar.Header, destination string) error {
	path, err := securePath(destination, header.Name)
	if err != nil {
		return err
	}

	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(path, 0755)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode).Perm())
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, tr)
		return err
	default:
		// Symlinks, devices and the like are not materialized.
		return nil
	}
}
