// Package checkpoint persists and restores a trial's frontier — its
// accepted placements and surviving potential points — as JSON, so a later
// run can resume packing from where an earlier one left off.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/containerload/internal/model"
)

// Checkpoint is the resumable state of one trial: its accepted placements
// and the potential-point frontier left over after packing stopped.
type Checkpoint struct {
	Solution []model.Placement
	PPs      []model.PotentialPoint
}

// MarshalJSON writes the tuple-of-tuples shape other tooling in this
// pipeline expects: each solution entry is [[partida, expedicion], [x, y,
// z, l, w, h]], each PP entry is [x, y, z, l, w, h, direction].
func (c Checkpoint) MarshalJSON() ([]byte, error) {
	type solutionEntry [2]interface{}
	solutions := make([]solutionEntry, len(c.Solution))
	for i, p := range c.Solution {
		solutions[i] = solutionEntry{
			[2]string{p.ID.Partida, p.ID.Expedicion},
			[6]int{p.X, p.Y, p.Z, p.L, p.W, p.H},
		}
	}

	pps := make([][7]interface{}, len(c.PPs))
	for i, pp := range c.PPs {
		pps[i] = [7]interface{}{pp.X, pp.Y, pp.Z, pp.L, pp.W, pp.H, pp.Direction.String()}
	}

	return json.Marshal(struct {
		Solution []solutionEntry  `json:"solution"`
		PPs      [][7]interface{} `json:"PPs"`
	}{solutions, pps})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Solution [][]json.RawMessage `json:"solution"`
		PPs      [][]json.RawMessage `json:"PPs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
	}

	c.Solution = make([]model.Placement, 0, len(raw.Solution))
	for _, entry := range raw.Solution {
		if len(entry) != 2 {
			return fmt.Errorf("%w: solution entry has %d fields, want 2", model.ErrCheckpointIO, len(entry))
		}
		var id [2]string
		if err := json.Unmarshal(entry[0], &id); err != nil {
			return fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
		}
		var dims [6]int
		if err := json.Unmarshal(entry[1], &dims); err != nil {
			return fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
		}
		c.Solution = append(c.Solution, model.Placement{
			ID: model.BoxKey{Partida: id[0], Expedicion: id[1]},
			X:  dims[0], Y: dims[1], Z: dims[2], L: dims[3], W: dims[4], H: dims[5],
		})
	}

	c.PPs = make([]model.PotentialPoint, 0, len(raw.PPs))
	for _, entry := range raw.PPs {
		if len(entry) != 7 {
			return fmt.Errorf("%w: PP entry has %d fields, want 7", model.ErrCheckpointIO, len(entry))
		}
		var nums [6]int
		for i := 0; i < 6; i++ {
			if err := json.Unmarshal(entry[i], &nums[i]); err != nil {
				return fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
			}
		}
		var dirStr string
		if err := json.Unmarshal(entry[6], &dirStr); err != nil {
			return fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
		}
		dir, err := model.ParseDirection(dirStr)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
		}
		c.PPs = append(c.PPs, model.PotentialPoint{
			X: nums[0], Y: nums[1], Z: nums[2], L: nums[3], W: nums[4], H: nums[5], Direction: dir,
		})
	}

	return nil
}

// Save writes a checkpoint to path, creating any missing parent directories.
func Save(path string, solution []model.Placement, pps []model.PotentialPoint) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
	}
	data, err := json.MarshalIndent(Checkpoint{Solution: solution, PPs: pps}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
	}
	return nil
}

// Load reads a checkpoint previously written by Save.
func Load(path string) ([]model.Placement, []model.PotentialPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", model.ErrCheckpointIO, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, nil, err
	}
	return cp.Solution, cp.PPs, nil
}
