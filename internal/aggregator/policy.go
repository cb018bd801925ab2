package aggregator

import (
	"fmt"
	"sort"
	"strings"

	"arucolog/internal/marker"
)

// Policy decides how a bucket accumulates detections and how it resolves into
// a label. One policy is chosen per run.
type Policy interface {
	Name() string
	Accumulate(b *Bucket, sample marker.FrameSample)
	Resolve(b *Bucket, names marker.NameTable) marker.Label
}

const (
	PolicyUnion    = "union"
	PolicyMajority = "majority"
	PolicyClosest  = "closest"
)

// PolicyNames lists the accepted policy names.
func PolicyNames() []string {
	return []string{PolicyUnion, PolicyMajority, PolicyClosest}
}

// ParsePolicy returns the policy registered under name.
func ParsePolicy(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyUnion:
		return Union{}, nil
	case PolicyMajority, "majority-vote":
		return MajorityVote{}, nil
	case PolicyClosest, "closest-center":
		return ClosestCenterThenMajority{}, nil
	default:
		return nil, fmt.Errorf("unknown resolution policy %q (expected one of %s)", name, strings.Join(PolicyNames(), ", "))
	}
}

// Union reports every distinct marker seen during the second.
type Union struct{}

func (Union) Name() string { return PolicyUnion }

func (Union) Accumulate(b *Bucket, sample marker.FrameSample) {
	for _, d := range sample.Detections {
		if !contains(b.Collected, d.MarkerID) {
			b.Collected = append(b.Collected, d.MarkerID)
		}
	}
}

// Resolve lists names by ascending marker id so output does not depend on
// detection order.
func (Union) Resolve(b *Bucket, names marker.NameTable) marker.Label {
	ids := append([]int(nil), b.Collected...)
	sort.Ints(ids)
	resolved := make([]marker.Name, 0, len(ids))
	for _, id := range ids {
		resolved = append(resolved, names.Name(id))
	}
	return marker.Set(resolved)
}

// MajorityVote reports the marker seen most often during the second.
type MajorityVote struct{}

func (MajorityVote) Name() string { return PolicyMajority }

func (MajorityVote) Accumulate(b *Bucket, sample marker.FrameSample) {
	b.Collected = append(b.Collected, sample.IDs()...)
}

func (MajorityVote) Resolve(b *Bucket, names marker.NameTable) marker.Label {
	id, ok := majority(b.Collected)
	if !ok {
		return marker.Absent()
	}
	return marker.Present(names.Name(id))
}

// ClosestCenterThenMajority keeps, per frame, only the marker vertically
// closest to the frame center, then majority-votes over those winners.
type ClosestCenterThenMajority struct{}

func (ClosestCenterThenMajority) Name() string { return PolicyClosest }

func (ClosestCenterThenMajority) Accumulate(b *Bucket, sample marker.FrameSample) {
	if len(sample.Detections) == 0 {
		return
	}
	winner := sample.Detections[0]
	best := sample.CenterDistance(winner)
	for _, d := range sample.Detections {
		dist := sample.CenterDistance(d)
		if prev, seen := b.BestByDistance[d.MarkerID]; !seen || dist < prev {
			b.BestByDistance[d.MarkerID] = dist
		}
		if dist < best {
			winner, best = d, dist
		}
	}
	b.Collected = append(b.Collected, winner.MarkerID)
}

func (ClosestCenterThenMajority) Resolve(b *Bucket, names marker.NameTable) marker.Label {
	return MajorityVote{}.Resolve(b, names)
}

// majority returns the most frequent id. Among ids sharing the highest count
// the one encountered first wins.
func majority(ids []int) (int, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	counts := make(map[int]int, len(ids))
	order := make([]int, 0, len(ids))
	for _, id := range ids {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}
	winner := order[0]
	for _, id := range order[1:] {
		if counts[id] > counts[winner] {
			winner = id
		}
	}
	return winner, true
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
