package metrics

import (
	"encoding/json"
	"math"
)

type derivedJSON struct {
	PeakViralLoad  float64  `json:"peak_viral_load"`
	PeakViralTime  float64  `json:"peak_viral_time"`
	ClearanceTime  *float64 `json:"clearance_time"`
	MaxTCells      float64  `json:"max_t_cells"`
	PeakAntibodies float64  `json:"peak_antibodies"`
}

// MarshalJSON writes an infinite clearance time as null.
func (d Derived) MarshalJSON() ([]byte, error) {
	out := derivedJSON{
		PeakViralLoad:  d.PeakViralLoad,
		PeakViralTime:  d.PeakViralTime,
		MaxTCells:      d.MaxTCells,
		PeakAntibodies: d.PeakAntibodies,
	}
	if d.Cleared() {
		ct := d.ClearanceTime
		out.ClearanceTime = &ct
	}
	return json.Marshal(out)
}

func (d *Derived) UnmarshalJSON(data []byte) error {
	var in derivedJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = Derived{
		PeakViralLoad:  in.PeakViralLoad,
		PeakViralTime:  in.PeakViralTime,
		ClearanceTime:  math.Inf(1),
		MaxTCells:      in.MaxTCells,
		PeakAntibodies: in.PeakAntibodies,
	}
	if in.ClearanceTime != nil {
		d.ClearanceTime = *in.ClearanceTime
	}
	return nil
}
