// Package seginfo provides utilities for naming and discovering wumpus
// on-disk partitions. Adapted from the teacher's pkg/seginfo (which named
// Bitcask log segments as prefix_NNNNN_timestamp.seg); this version follows
// spec.md §6's exact partition naming convention instead:
//
//	index.short.NNN   (NNN = zero-padded 3-digit slot, 0..MAX-1, 999 reserved)
//	index.long/        (directory holding the in-place store)
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gmargari/wumpus-sub004/pkg/filesys"
)

// ReservedSlot is the partition slot number reserved by spec.md §6 and never
// allocated to a live partition.
const ReservedSlot = 999

// GenerateName formats the on-disk filename for partition slot id under
// prefix ("index.short" -> "index.short.007").
func GenerateName(slot int, prefix string) string {
	return fmt.Sprintf("%s.%03d", prefix, slot)
}

// ParseSlot extracts the slot number from a partition filename produced by
// GenerateName.
func ParseSlot(fullPath, prefix string) (int, error) {
	_, filename := filepath.Split(fullPath)
	if !strings.HasPrefix(filename, prefix+".") {
		return 0, fmt.Errorf("filename %s does not start with expected prefix %s", filename, prefix)
	}
	suffix := strings.TrimPrefix(filename, prefix+".")
	slot, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("failed to parse slot from %s: %w", filename, err)
	}
	return slot, nil
}

// ListPartitions returns the sorted slot numbers of every live partition
// file under dataDir/segmentDir matching prefix, excluding the reserved slot.
func ListPartitions(dataDir, segmentDir, prefix string) ([]int, error) {
	pattern := filepath.Join(dataDir, segmentDir, prefix+".*")
	matches, err := filesys.ReadDir(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions with pattern %s: %w", pattern, err)
	}

	slots := make([]int, 0, len(matches))
	for _, m := range matches {
		slot, err := ParseSlot(m, prefix)
		if err != nil {
			continue
		}
		if slot == ReservedSlot {
			continue
		}
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	return slots, nil
}

// FirstFreeSlot returns the smallest slot number in [0, maxSlots) not
// currently occupied by a live partition, used by the log-merge policy
// (spec §4.7 "find the smallest free slot i").
func FirstFreeSlot(occupied []int, maxSlots int) (int, bool) {
	taken := make(map[int]struct{}, len(occupied))
	for _, s := range occupied {
		taken[s] = struct{}{}
	}
	for slot := 0; slot < maxSlots; slot++ {
		if _, ok := taken[slot]; !ok {
			return slot, true
		}
	}
	return 0, false
}

// GetFileInfo safely retrieves file system metadata for a given path.
func GetFileInfo(filePath string) (os.FileInfo, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info for %s: %w", filePath, err)
	}
	return stat, nil
}
