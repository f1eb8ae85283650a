package dict

import (
	"fmt"
	"strings"
)

// StatsVectLen is the number of chain lengths counted separately; longer
// chains fall into the last one.
const StatsVectLen = 50

// TableStats describes the chain distribution of one table.
type TableStats struct {
	Table       int
	Size        uintptr
	Used        uintptr
	Slots       uintptr // non-empty buckets
	MaxChainLen uintptr
	TotChainLen uintptr
	Histogram   [StatsVectLen]uintptr
}

// AvgChainLen returns the average length of the non-empty chains.
func (s TableStats) AvgChainLen() float64 {
	if s.Slots == 0 {
		return 0
	}
	return float64(s.TotChainLen) / float64(s.Slots)
}

// IdealChainLen returns used/size, the average of a perfect hash.
func (s TableStats) IdealChainLen() float64 {
	if s.Size == 0 {
		return 0
	}
	return float64(s.Used) / float64(s.Size)
}

// Stats holds one TableStats per allocated table.
type Stats struct {
	Tables []TableStats
}

// Stats walks the tables and collects their chain statistics.
func (d *Dict[K, V]) Stats() Stats {
	var s Stats
	for i := range d.ht {
		t := &d.ht[i]
		if t.size == 0 {
			continue
		}
		s.Tables = append(s.Tables, t.stats(i))
	}
	return s
}

func (t *table[K, V]) stats(n int) TableStats {
	ts := TableStats{
		Table: n,
		Size:  t.size,
		Used:  t.used,
	}

	for _, head := range t.buckets {
		if head == nil {
			ts.Histogram[0]++
			continue
		}

		ts.Slots++
		var chainlen uintptr
		for current := head; current != nil; current = current.next {
			chainlen++
		}
		ts.Histogram[min(chainlen, StatsVectLen-1)]++
		ts.MaxChainLen = max(ts.MaxChainLen, chainlen)
		ts.TotChainLen += chainlen
	}

	return ts
}

func (s Stats) String() string {
	if len(s.Tables) == 0 {
		return "No stats available for empty dictionaries\n"
	}

	var b strings.Builder
	for _, ts := range s.Tables {
		name := "main hash table"
		if ts.Table == 1 {
			name = "rehashing target"
		}

		fmt.Fprintf(&b, "Hash table %d stats (%s):\n", ts.Table, name)
		fmt.Fprintf(&b, " table size: %d\n", ts.Size)
		fmt.Fprintf(&b, " number of elements: %d\n", ts.Used)
		fmt.Fprintf(&b, " different slots: %d\n", ts.Slots)
		fmt.Fprintf(&b, " max chain length: %d\n", ts.MaxChainLen)
		fmt.Fprintf(&b, " avg chain length (counted): %.02f\n", ts.AvgChainLen())
		fmt.Fprintf(&b, " avg chain length (computed): %.02f\n", ts.IdealChainLen())
		b.WriteString(" Chain length distribution:\n")
		for i, n := range ts.Histogram {
			if n == 0 {
				continue
			}
			prefix := ""
			if i == StatsVectLen-1 {
				prefix = ">= "
			}
			fmt.Fprintf(&b, "   %s%d: %d (%.02f%%)\n", prefix, i, n, float64(n)/float64(ts.Size)*100)
		}
	}

	return b.String()
}
