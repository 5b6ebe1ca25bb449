package types

import (
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

type StatisticsItem struct {
	Count uint64 `json:",omitempty"`
	Bytes uint64 `json:",omitempty"`
}

type Statistics struct {
	PoolsCreated      StatisticsItem
	PoolsTornDown     StatisticsItem
	LeasesAcquired    StatisticsItem
	LeasesReleased    StatisticsItem
	NoFreeSurfaces    StatisticsItem
	ReadbacksCreated  StatisticsItem
	ReadbacksReleased StatisticsItem
	ReadbacksFailed   StatisticsItem
}

func (s Statistics) String() string {
	return fmt.Sprintf(
		"pools:%d/%d leases:%d/%d nofree:%d readbacks:%d/%d(%s) readback_errors:%d",
		s.PoolsCreated.Count, s.PoolsTornDown.Count,
		s.LeasesAcquired.Count, s.LeasesReleased.Count,
		s.NoFreeSurfaces.Count,
		s.ReadbacksCreated.Count, s.ReadbacksReleased.Count,
		humanize.Bytes(s.ReadbacksCreated.Bytes),
		s.ReadbacksFailed.Count,
	)
}

type CountersItem struct {
	Count atomic.Uint64
	Bytes atomic.Uint64
}

func (c *CountersItem) Increment(msgSize uint64) {
	c.Count.Add(1)
	c.Bytes.Add(msgSize)
}

func (c *CountersItem) ToStats() StatisticsItem {
	return StatisticsItem{
		Count: c.Count.Load(),
		Bytes: c.Bytes.Load(),
	}
}

type Counters struct {
	PoolsCreated      CountersItem
	PoolsTornDown     CountersItem
	LeasesAcquired    CountersItem
	LeasesReleased    CountersItem
	NoFreeSurfaces    CountersItem
	ReadbacksCreated  CountersItem
	ReadbacksReleased CountersItem
	ReadbacksFailed   CountersItem
}

func (c *Counters) ToStats() Statistics {
	return Statistics{
		PoolsCreated:      c.PoolsCreated.ToStats(),
		PoolsTornDown:     c.PoolsTornDown.ToStats(),
		LeasesAcquired:    c.LeasesAcquired.ToStats(),
		LeasesReleased:    c.LeasesReleased.ToStats(),
		NoFreeSurfaces:    c.NoFreeSurfaces.ToStats(),
		ReadbacksCreated:  c.ReadbacksCreated.ToStats(),
		ReadbacksReleased: c.ReadbacksReleased.ToStats(),
		ReadbacksFailed:   c.ReadbacksFailed.ToStats(),
	}
}
