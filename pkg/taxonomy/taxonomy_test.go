package taxonomy_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/heirloomhq/heirloom/pkg/taxonomy"
)

func TestTaxonomy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Taxonomy Suite")
}

var _ = Describe("Taxonomy", func() {
	It("defines exactly 12 triggers and 8 themes", func() {
		Expect(taxonomy.TriggerIDs).To(HaveLen(12))
		Expect(taxonomy.Themes).To(HaveLen(8))
	})

	It("resolves every canonical trigger id", func() {
		for _, id := range taxonomy.TriggerIDs {
			trigger, ok := taxonomy.GetTrigger(id)
			Expect(ok).To(BeTrue(), "missing trigger %s", id)
			Expect(trigger.ID).To(Equal(id))
			Expect(trigger.Label).NotTo(BeEmpty())
			Expect(trigger.Description).NotTo(BeEmpty())
		}
	})

	It("only references canonical themes from trigger definitions", func() {
		for _, trigger := range taxonomy.AllTriggers() {
			Expect(trigger.RelatedThemes).NotTo(BeEmpty())
			for _, theme := range trigger.RelatedThemes {
				Expect(taxonomy.IsValidTheme(theme)).To(BeTrue(),
					"trigger %s references unknown theme %s", trigger.ID, theme)
			}
		}
	})

	It("returns triggers in canonical display order", func() {
		all := taxonomy.AllTriggers()
		Expect(all).To(HaveLen(len(taxonomy.TriggerIDs)))
		for i, trigger := range all {
			Expect(trigger.ID).To(Equal(taxonomy.TriggerIDs[i]))
		}
	})

	It("rejects unknown trigger ids", func() {
		Expect(taxonomy.IsValidTrigger("descendant-winning-lottery")).To(BeFalse())
		Expect(taxonomy.IsValidTrigger("")).To(BeFalse())

		_, ok := taxonomy.GetTrigger("nope")
		Expect(ok).To(BeFalse())
	})

	It("rejects unknown themes", func() {
		Expect(taxonomy.IsValidTheme("resilience")).To(BeFalse())
		Expect(taxonomy.IsValidTheme("")).To(BeFalse())
		Expect(taxonomy.IsValidTheme("persistence")).To(BeTrue())
	})
})
