package sample

import (
	"fmt"
	"sort"

	"github.com/maseology/mmio"
)

// AssignFolds maps every grid id to one of folds 1..k by greedy
// balancing: grids are taken in order of decreasing sample count and
// each is given to the fold with the smallest cumulative count so far.
// Samples sharing a grid id never split across folds.
func AssignFolds(t *Table, k int) (map[int]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("AssignFolds: need at least 2 folds, got %d", k)
	}
	cnt := make(map[int]int)
	for _, g := range t.Grid {
		cnt[g]++
	}
	if len(cnt) < k {
		return nil, fmt.Errorf("AssignFolds: %d grids cannot fill %d folds", len(cnt), k)
	}
	gids := make([]int, 0, len(cnt))
	for g := range cnt {
		gids = append(gids, g)
	}
	sort.Slice(gids, func(i, j int) bool {
		if cnt[gids[i]] != cnt[gids[j]] {
			return cnt[gids[i]] > cnt[gids[j]]
		}
		return gids[i] < gids[j]
	})
	tot := make([]int, k+1) // 1-based
	mgf := make(map[int]int, len(gids))
	for _, g := range gids {
		kmin := 1
		for f := 2; f <= k; f++ {
			if tot[f] < tot[kmin] {
				kmin = f
			}
		}
		mgf[g] = kmin
		tot[kmin] += cnt[g]
	}
	return mgf, nil
}

// ApplyFolds stamps fold ids onto the table rows.
func (t *Table) ApplyFolds(mgf map[int]int) error {
	for i, g := range t.Grid {
		f, ok := mgf[g]
		if !ok {
			return fmt.Errorf("ApplyFolds: grid %d has no fold assignment", g)
		}
		t.Fold[i] = f
	}
	return nil
}

// SaveFolds persists a grid-to-fold assignment.
func SaveFolds(fp string, mgf map[int]int) error {
	if err := mmio.SaveGOB(fp, mgf); err != nil {
		return fmt.Errorf("SaveFolds %s: %w", fp, err)
	}
	return nil
}

// LoadFolds reloads a persisted assignment.
func LoadFolds(fp string) (map[int]int, error) {
	mgf, err := mmio.LoadGOB(fp)
	if err != nil {
		return nil, fmt.Errorf("LoadFolds %s: %w", fp, err)
	}
	return mgf, nil
}
