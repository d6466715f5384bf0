package allocator_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/objsched/disksim/internal/allocator"
)

func TestAllocator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Allocator Suite")
}

var _ = Describe("Allocator", func() {
	Describe("initial state", func() {
		It("reports the whole disk as one free block, saturated at MaxObjSize", func() {
			a := allocator.New(10)
			Expect(a.LargestFreeBlock()).To(Equal(allocator.MaxObjSize))
			Expect(a.FreeBlocks()).To(Equal([]allocator.Free{{Start: 1, End: 11}}))
		})
	})

	Describe("contiguous allocation", func() {
		It("succeeds when one block of exactly the requested size exists", func() {
			a := allocator.New(5)
			cells := a.Allocate(5)
			Expect(cells).To(Equal([]int{1, 2, 3, 4, 5}))
			Expect(a.FreeBlocks()).To(BeEmpty())
		})

		It("splits a larger block, leaving the tail free", func() {
			a := allocator.New(10)
			cells := a.Allocate(3)
			Expect(cells).To(Equal([]int{1, 2, 3}))
			Expect(a.FreeBlocks()).To(Equal([]allocator.Free{{Start: 4, End: 11}}))
		})

		It("worst-fits within the mixed bucket: the larger of two free blocks is split first", func() {
			a := allocator.New(20)
			small := a.Allocate(5) // [1..5], remaining free [6,21)
			_ = a.Allocate(1)      // [6], held so [1,6) and [7,21) can never merge
			big := a.Allocate(5)   // [7..11], remaining free [12,21)
			a.Free(small)          // reinstates [1,6) in bucket 5, behind [12,21)
			a.Free(big)            // coalesces with [12,21) into [7,21), pushed behind [1,6)
			// bucket 5 now holds two non-adjacent entries: [1,6) size 5 at the front,
			// [7,21) size 14 behind it. worst-fit must pick the size-14 block,
			// leaving the size-5 one untouched.
			cells := a.Allocate(5)
			Expect(cells).To(Equal([]int{7, 8, 9, 10, 11}))
			Expect(a.FreeBlocks()).To(ContainElement(allocator.Free{Start: 1, End: 6}))
		})
	})

	Describe("fragmented fall-back", func() {
		It("uses the 2-block then the 1-block, ascending, when buckets hold only {1:1, 2:1}", func() {
			a := buildFragmented()
			Expect(a.Allocate(3)).To(Equal([]int{1, 2, 4}))
		})

		It("fails when no partition of available bucket counts can satisfy the request", func() {
			a := allocator.New(5)
			_ = a.Allocate(5) // drains the only block; disk now full
			Expect(a.Allocate(3)).To(BeNil())
		})
	})

	Describe("free / coalesce", func() {
		It("returns a size-5 block to bucket 5 after allocate(5) on an exact-size disk", func() {
			a := allocator.New(5)
			cells := a.Allocate(5)
			a.Free(cells)
			Expect(a.FreeBlocks()).To(Equal([]allocator.Free{{Start: 1, End: 6}}))
			Expect(a.LargestFreeBlock()).To(Equal(allocator.MaxObjSize))
		})

		It("coalesces exhaustively: no two free blocks ever abut", func() {
			a := allocator.New(15)
			x := a.Allocate(5) // [1..5]
			y := a.Allocate(5) // [6..10]
			z := a.Allocate(5) // [11..15], disk full
			a.Free(y)          // middle freed first: abuts nothing yet (x, z still held)
			a.Free(x)          // now merges with the [6,11) block -> [1,11)
			a.Free(z)          // merges with [1,11) -> [1,16)
			Expect(a.FreeBlocks()).To(Equal([]allocator.Free{{Start: 1, End: 16}}))
		})

		It("restores the allocator to an equivalent state after an allocate/free round-trip", func() {
			a := allocator.New(25)
			before := a.FreeBlocks()
			cells := a.Allocate(5)
			a.Free(cells)
			Expect(a.FreeBlocks()).To(Equal(before))
		})
	})
})

// buildFragmented constructs a 5-cell disk with cell 3 deliberately held
// (simulating a live neighboring object) so that freeing the other four
// cells in two separate calls leaves exactly buckets {1:1 (cell 4), 2:1
// (cells 1-2)} -- cell 5 is also held, so nothing coalesces across cell 3.
func buildFragmented() *allocator.Allocator {
	a := allocator.New(5)
	all := a.Allocate(5) // [1,2,3,4,5], disk now full
	a.Free([]int{all[0], all[1]}) // cells 1,2 -> bucket for size 2
	a.Free([]int{all[3]})         // cell 4 -> bucket for size 1 (isolated by held cells 3 and 5)
	return a
}
