package bootstrap

import (
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bmarinov/garage-bootstrap/internal/s3"
	"github.com/bmarinov/garage-bootstrap/internal/tests/fixture"
)

var _ = Describe("Access key reconciler", func() {
	var (
		garage *fakeGarage
		keyID  string
		secret string
		sut    *KeyReconciler
	)

	BeforeEach(func() {
		garage = newFakeGarage()
		keyID = fixture.AccessKeyID()
		secret = fixture.SecretAccessKey()
		sut = &KeyReconciler{keys: garage.clients().AccessKeys, id: keyID, secret: secret}
	})

	DescribeTable("pre-existing keys", func(existing int) {
		for range existing {
			garage.keys = append(garage.keys, s3.AccessKey{ID: fixture.AccessKeyID(), Name: fixture.RandAlpha(8)})
		}

		Expect(sut.Run(testContext())).To(Succeed())

		By("deleting every key before the import")
		expected := []string{"ListKeys"}
		for range existing {
			expected = append(expected, "DeleteKey")
		}
		expected = append(expected, "ImportKey")
		Expect(garage.calls).To(Equal(expected))

		By("leaving only the configured key")
		Expect(garage.keys).To(ConsistOf(s3.AccessKey{ID: keyID, Secret: secret, Name: KeyName}))
	},
		Entry("no keys", 0),
		Entry("single key", 1),
		Entry("several keys", 4),
	)

	It("should recreate a key with the configured ID", func() {
		garage.keys = []s3.AccessKey{{ID: keyID, Name: "old", Secret: fixture.SecretAccessKey()}}

		Expect(sut.Run(testContext())).To(Succeed())
		Expect(garage.mutations()).To(Equal([]string{"DeleteKey", "ImportKey"}))
		Expect(garage.keys).To(HaveLen(1))
		Expect(garage.keys[0].Secret).To(Equal(secret))
	})

	It("should drop grants held by deleted keys", func() {
		oldKey := fixture.AccessKeyID()
		garage.keys = []s3.AccessKey{{ID: oldKey}}
		bucket := garage.addBucket("media", s3.Website{}, map[string]s3.Permissions{oldKey: s3.FullAccess})

		Expect(sut.Run(testContext())).To(Succeed())
		Expect(garage.buckets[bucket.ID].Keys).To(BeEmpty())
	})

	It("should fail with KeyImportFailed when the import is rejected", func() {
		garage.failOn["ImportKey"] = errInjected

		err := sut.Run(testContext())

		startupErr := asStartupError(err)
		Expect(startupErr.Kind).To(Equal(KeyImportFailed))
		Expect(startupErr.Phase).To(Equal("access-key"))
		Expect(err).To(MatchError(errInjected))
	})

	It("should stop before importing when a delete fails", func() {
		failing := fixture.AccessKeyID()
		garage.keys = []s3.AccessKey{{ID: fixture.AccessKeyID()}, {ID: failing}, {ID: fixture.AccessKeyID()}}
		garage.failOn["DeleteKey:"+failing] = errInjected

		err := sut.Run(testContext())

		Expect(asStartupError(err).Kind).To(Equal(KeyImportFailed))
		Expect(err.Error()).To(ContainSubstring(failing))
		Expect(garage.called("ImportKey")).To(BeZero())
		Expect(slices.ContainsFunc(garage.keys, func(k s3.AccessKey) bool { return k.ID == failing })).To(BeTrue())
	})

	It("should never include the secret in errors", func() {
		garage.failOn["ImportKey"] = errInjected

		err := sut.Run(testContext())
		Expect(err.Error()).NotTo(ContainSubstring(secret))
	})
})
