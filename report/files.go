// report/files.go
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteDir exports the bundle into dir: the workbook, a long CSV per table, a wide CSV per
// table split by year, and the fleet table. It returns the files written.
func WriteDir(dir string, b Bundle) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}
	prefix := "flightstats"
	if b.RunID != "" {
		prefix += "-" + b.RunID
	}

	var written []string
	xlsxPath := filepath.Join(dir, prefix+".xlsx")
	if err := WriteWorkbook(xlsxPath, b); err != nil {
		return written, err
	}
	written = append(written, xlsxPath)

	for _, t := range b.Tables {
		path := filepath.Join(dir, fmt.Sprintf("%s-%s.csv", prefix, t.Dimension))
		if err := writeFile(path, func(w io.Writer) error { return WriteTableCSV(w, t) }); err != nil {
			return written, err
		}
		written = append(written, path)

		if !t.Dimension.ByYear() {
			continue
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%s-wide.csv", prefix, t.Dimension))
		if err := writeFile(path, func(w io.Writer) error { return WriteWideCSV(w, t) }); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if len(b.Fleet) > 0 {
		path := filepath.Join(dir, prefix+"-fleet_age.csv")
		if err := writeFile(path, func(w io.Writer) error { return WriteFleetCSV(w, b.Fleet) }); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
