package crdt

import "sort"

// clockRange is an inclusive-exclusive range of clocks [Start, End) deleted
// by one client.
type clockRange struct {
	Start, End uint64
}

// DeleteSet is a per-client set of deleted clock ranges, per spec.md §3/§6
// ("deleteSet"). Two of them bound a Snapshot diff.
type DeleteSet struct {
	ranges map[string][]clockRange
}

// NewDeleteSet returns an empty delete set.
func NewDeleteSet() *DeleteSet {
	return &DeleteSet{ranges: make(map[string][]clockRange)}
}

// Add records id as deleted.
func (d *DeleteSet) Add(id ID) {
	rs := d.ranges[id.Client]
	for i, r := range rs {
		if id.Clock >= r.Start && id.Clock < r.End {
			return
		}
		if id.Clock == r.End {
			rs[i].End++
			d.ranges[id.Client] = rs
			d.coalesce(id.Client)
			return
		}
		if id.Clock+1 == r.Start {
			rs[i].Start = id.Clock
			d.ranges[id.Client] = rs
			d.coalesce(id.Client)
			return
		}
	}
	d.ranges[id.Client] = append(rs, clockRange{Start: id.Clock, End: id.Clock + 1})
	d.coalesce(id.Client)
}

func (d *DeleteSet) coalesce(client string) {
	rs := d.ranges[client]
	sort.Slice(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })
	out := rs[:0]
	for _, r := range rs {
		if len(out) > 0 && r.Start <= out[len(out)-1].End {
			if r.End > out[len(out)-1].End {
				out[len(out)-1].End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	d.ranges[client] = out
}

// Contains reports whether id is deleted according to this set. This is
// spec.md §6's isDeleted(ds, id).
func (d *DeleteSet) Contains(id ID) bool {
	for _, r := range d.ranges[id.Client] {
		if id.Clock >= r.Start && id.Clock < r.End {
			return true
		}
	}
	return false
}

// Merge folds other's ranges into d.
func (d *DeleteSet) Merge(other *DeleteSet) {
	for client, rs := range other.ranges {
		for _, r := range rs {
			for c := r.Start; c < r.End; c++ {
				d.Add(ID{Client: client, Clock: c})
			}
		}
	}
}

// Clone returns a deep copy.
func (d *DeleteSet) Clone() *DeleteSet {
	out := NewDeleteSet()
	for client, rs := range d.ranges {
		cp := make([]clockRange, len(rs))
		copy(cp, rs)
		out.ranges[client] = cp
	}
	return out
}

// IsDeleted is the package-level form of spec.md §6's isDeleted(ds, id).
func IsDeleted(ds *DeleteSet, id ID) bool {
	if ds == nil {
		return false
	}
	return ds.Contains(id)
}
