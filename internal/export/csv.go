package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
)

// CSVHeader names the columns of a results table: time, then V, I, T, A.
var CSVHeader = []string{"Time", "Viral_Load", "Infected_Cells", "T_Cells", "Antibodies"}

// WriteCSV writes one row per grid point at full float precision.
func WriteCSV(w io.Writer, grid dynamo.TimeGrid, traj *dynamo.Trajectory) error {
	if traj.Rows() != grid.Len() || traj.Cols() != immunity.NumVars {
		return fmt.Errorf("%w: grid %d, trajectory %dx%d", dynamo.ErrDimensionMismatch, grid.Len(), traj.Rows(), traj.Cols())
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}

	rec := make([]string, len(CSVHeader))
	for i, t := range grid {
		rec[0] = formatFloat(t)
		for j := 0; j < immunity.NumVars; j++ {
			rec[j+1] = formatFloat(traj.At(i, j))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV.
func ReadCSV(r io.Reader) (dynamo.TimeGrid, *dynamo.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	for i, name := range CSVHeader {
		if header[i] != name {
			return nil, nil, fmt.Errorf("unexpected column %d: %q, want %q", i, header[i], name)
		}
	}

	var times, data []float64
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d column %s: %w", line, CSVHeader[j], err)
			}
			vals[j] = v
		}
		times = append(times, vals[0])
		data = append(data, vals[1:]...)
	}

	grid, err := dynamo.NewTimeGrid(times)
	if err != nil {
		return nil, nil, err
	}
	traj, err := dynamo.NewTrajectory(len(times), immunity.NumVars, data)
	if err != nil {
		return nil, nil, err
	}
	return grid, traj, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
