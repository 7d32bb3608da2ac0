package bootstrap

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

var _ = Describe("Layout reconciler", func() {
	var (
		garage *fakeGarage
		sut    *LayoutReconciler
	)

	BeforeEach(func() {
		garage = newFakeGarage()
		sut = &LayoutReconciler{cluster: garage.clients().Cluster}
	})

	It("should assign capacity to the node of a fresh cluster", func() {
		Expect(sut.Run(testContext())).To(Succeed())

		By("staging and applying exactly once")
		Expect(garage.mutations()).To(Equal([]string{"StageLayout", "ApplyLayout"}))

		By("assigning the local node")
		Expect(garage.layout.Version).To(Equal(int64(1)))
		Expect(garage.layout.Roles).To(HaveLen(1))
		role := garage.layout.Roles[0]
		Expect(role.NodeID).To(Equal(garage.nodeID))
		Expect(role.Zone).To(Equal("dc1"))
		Expect(role.Capacity).To(BeNumerically(">", 0))
	})

	It("should apply the version following the current one", func() {
		garage.layout.Version = 4

		Expect(sut.Run(testContext())).To(Succeed())
		Expect(garage.layout.Version).To(Equal(int64(5)))
	})

	It("should leave an assigned layout alone", func() {
		Expect(sut.Run(testContext())).To(Succeed())
		garage.resetCalls()

		Expect(sut.Run(testContext())).To(Succeed())
		Expect(garage.mutations()).To(BeEmpty())
		Expect(garage.calls).To(Equal([]string{"Layout"}))
	})

	It("should reassign when only zero-capacity roles exist", func() {
		garage.layout = s3.Layout{Version: 1, Roles: []s3.LayoutRole{{NodeID: garage.nodeID, Zone: "dc1"}}}

		Expect(sut.Run(testContext())).To(Succeed())
		Expect(garage.mutations()).To(Equal([]string{"StageLayout", "ApplyLayout"}))
		Expect(garage.layout.AssignedNodes()).To(HaveLen(1))
	})

	It("should reject a layout with several assigned nodes", func() {
		garage.layout = s3.Layout{Version: 2, Roles: []s3.LayoutRole{
			{NodeID: "a", Zone: "dc1", Capacity: 10},
			{NodeID: "b", Zone: "dc1", Capacity: 10},
		}}

		err := sut.Run(testContext())

		Expect(asStartupError(err).Kind).To(Equal(LayoutFailed))
		Expect(garage.mutations()).To(BeEmpty())
	})

	It("should fail when the cluster reports more than one node", func() {
		garage.nodeCount = 2

		err := sut.Run(testContext())

		Expect(asStartupError(err).Kind).To(Equal(LayoutFailed))
		Expect(err.Error()).To(ContainSubstring("number of nodes"))
		Expect(garage.mutations()).To(BeEmpty())
	})

	DescribeTable("admin API failures", func(op string) {
		garage.failOn[op] = errInjected

		err := sut.Run(testContext())

		startupErr := asStartupError(err)
		Expect(startupErr.Kind).To(Equal(LayoutFailed))
		Expect(startupErr.Phase).To(Equal("layout"))
		Expect(err).To(MatchError(errInjected))
	},
		Entry("get layout", "Layout"),
		Entry("get status", "Status"),
		Entry("stage", "StageLayout"),
		Entry("apply", "ApplyLayout"),
	)
})
