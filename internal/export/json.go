package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/san-kum/immunosim/internal/dynamo"
	"github.com/san-kum/immunosim/internal/immunity"
	"github.com/san-kum/immunosim/internal/metrics"
)

// Series is the column-oriented form of a run used by the HTTP API.
type Series struct {
	Time          []float64 `json:"time"`
	ViralLoad     []float64 `json:"viral_load"`
	InfectedCells []float64 `json:"infected_cells"`
	TCells        []float64 `json:"t_cells"`
	Antibodies    []float64 `json:"antibodies"`
}

func SeriesOf(grid dynamo.TimeGrid, traj *dynamo.Trajectory) Series {
	t := make([]float64, grid.Len())
	copy(t, grid)
	return Series{
		Time:          t,
		ViralLoad:     traj.Column(immunity.IdxV),
		InfectedCells: traj.Column(immunity.IdxI),
		TCells:        traj.Column(immunity.IdxT),
		Antibodies:    traj.Column(immunity.IdxA),
	}
}

// Document is a self-describing JSON export of one run.
type Document struct {
	ID           string                `json:"id,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	Parameters   immunity.Params       `json:"parameters"`
	InitialState immunity.InitialState `json:"initial_state"`
	Metrics      metrics.Derived       `json:"metrics"`
	Stable       bool                  `json:"stable"`
	Series       Series                `json:"series"`
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
