package placement_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/objsched/disksim/internal/disk"
	"github.com/objsched/disksim/internal/placement"
)

func TestPlacement(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Placement Suite")
}

func freshDisks(n, size int) []*disk.Disk {
	disks := make([]*disk.Disk, n)
	for i := 0; i < n; i++ {
		disks[i] = disk.New(i+1, size)
	}
	return disks
}

var _ = Describe("Choose", func() {
	It("returns three distinct disks on an otherwise-empty cluster", func() {
		disks := freshDisks(5, 20)
		chosen := placement.Choose(disks, 1, 3)
		Expect(chosen).To(HaveLen(3))
		Expect(chosen[0]).NotTo(Equal(chosen[1]))
		Expect(chosen[1]).NotTo(Equal(chosen[2]))
		Expect(chosen[0]).NotTo(Equal(chosen[2]))
	})

	It("vetoes disks strictly above 90% full", func() {
		disks := freshDisks(4, 11)
		// fill disk 1 to 10/11 units (~90.9%, strictly above the 90% veto line).
		disks[0].Reserve(5, 1)
		disks[0].Reserve(5, 1)
		chosen := placement.Choose(disks, 1, 3)
		for _, id := range chosen {
			Expect(id).NotTo(Equal(1))
		}
	})

	It("prefers disks with more contiguous free space for larger objects", func() {
		fragmented := disk.New(1, 20)
		// reserve five size-4 blocks end to end, then release two non-adjacent
		// ones: nothing coalesces, so the largest free block caps at 4, below
		// MaxObjSize.
		a := fragmented.Reserve(4, 9) // [1..4]
		fragmented.Reserve(4, 9)      // [5..8], held
		c := fragmented.Reserve(4, 9) // [9..12]
		fragmented.Reserve(4, 9)      // [13..16], held
		fragmented.Reserve(4, 9)      // [17..20], held
		fragmented.Release(a, 9)
		fragmented.Release(c, 9)
		Expect(fragmented.Alloc.LargestFreeBlock()).To(Equal(4))

		spacious := disk.New(2, 20)

		chosen := placement.Choose([]*disk.Disk{fragmented, spacious}, 1, 5)
		Expect(chosen[0]).To(Equal(2))
	})

	It("breaks score ties by lowest disk id", func() {
		disks := freshDisks(3, 20)
		chosen := placement.Choose(disks, 1, 3)
		Expect(chosen).To(Equal([]int{1, 2, 3}))
	})

	It("returns fewer than three ids when fewer than three disks qualify", func() {
		disks := freshDisks(2, 20)
		chosen := placement.Choose(disks, 1, 3)
		Expect(chosen).To(HaveLen(2))
	})
})
