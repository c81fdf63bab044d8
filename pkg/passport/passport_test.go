package passport_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/heirloomhq/heirloom/pkg/passport"
	"github.com/heirloomhq/heirloom/pkg/record"
	"github.com/heirloomhq/heirloom/pkg/taxonomy"
)

func TestPassport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Passport Suite")
}

func memory(id, theme string, weight int, tags ...string) passport.Memory {
	return passport.Memory{
		MemoryID:        id,
		LifeTheme:       theme,
		EmotionalWeight: weight,
		SituationalTags: tags,
	}
}

var _ = Describe("BuildSituationalIndex", func() {
	It("always contains all canonical trigger keys", func() {
		index := passport.BuildSituationalIndex(nil)
		Expect(index).To(HaveLen(len(taxonomy.TriggerIDs)))
		for _, id := range taxonomy.TriggerIDs {
			Expect(index).To(HaveKeyWithValue(id, []string{}))
		}
	})

	It("maps triggers to the ids of memories tagged with them", func() {
		memories := []passport.Memory{
			memory("m1", "persistence", 8, "descendant-first-failure"),
			memory("m2", "persistence", 7, "descendant-first-failure", "descendant-considering-quitting"),
		}

		index := passport.BuildSituationalIndex(memories)
		Expect(index["descendant-first-failure"]).To(Equal([]string{"m1", "m2"}))
		Expect(index["descendant-considering-quitting"]).To(Equal([]string{"m2"}))
		Expect(index["descendant-leaving-home"]).To(BeEmpty())
	})

	It("ignores tags outside the canonical set", func() {
		memories := []passport.Memory{
			memory("m1", "persistence", 8, "not-a-trigger"),
		}

		index := passport.BuildSituationalIndex(memories)
		Expect(index).To(HaveLen(len(taxonomy.TriggerIDs)))
		Expect(index).NotTo(HaveKey("not-a-trigger"))
	})
})

var _ = Describe("Build", func() {
	profile := record.Profile{
		Name:      "Rosa Ortiz",
		Age:       72,
		Job:       "Baker",
		Languages: []string{"es", "en"},
	}

	It("assembles heritage from the subject profile", func() {
		doc := passport.Build(nil, profile, 10)

		Expect(doc.Heritage.FamilyName).To(Equal("Ortiz"))
		Expect(doc.Heritage.PrimaryContributor.Name).To(Equal("Rosa Ortiz"))
		Expect(doc.Heritage.PrimaryContributor.Occupation).To(Equal("Baker"))
		Expect(doc.Heritage.PrimaryContributor.BirthYear).To(Equal(time.Now().UTC().Year() - 72))
		Expect(doc.Heritage.Languages).To(Equal([]string{"es", "en"}))
	})

	It("fills stable document identity fields", func() {
		doc := passport.Build(nil, profile, 0)

		Expect(doc.Context).To(Equal("https://heirloomhq.dev/schema/v1"))
		Expect(doc.Type).To(Equal("CulturalMemoryPassport"))
		Expect(doc.Meta.Version).To(Equal(passport.SchemaVersion))
	})

	It("handles an empty profile without panicking", func() {
		doc := passport.Build(nil, record.Profile{}, 0)

		Expect(doc.Heritage.FamilyName).To(Equal("Unknown"))
		Expect(doc.Heritage.PrimaryContributor.Name).To(Equal("Unknown"))
		Expect(doc.Heritage.PrimaryContributor.Role).To(Equal("contributor"))
		Expect(doc.Heritage.PrimaryContributor.BirthYear).To(BeZero())
	})

	It("handles a whitespace-only profile name without panicking", func() {
		doc := passport.Build(nil, record.Profile{Name: "   "}, 0)

		Expect(doc.Heritage.FamilyName).To(Equal("Unknown"))
	})

	It("orders values by descending theme frequency", func() {
		memories := []passport.Memory{
			memory("m1", "wonder", 8, "descendant-seeking-purpose"),
			memory("m2", "persistence", 7, "descendant-considering-quitting"),
			memory("m3", "persistence", 9, "descendant-considering-quitting"),
		}

		doc := passport.Build(memories, profile, 3)
		Expect(doc.Values).To(Equal([]string{"persistence", "wonder"}))
	})

	It("breaks frequency ties by first appearance", func() {
		memories := []passport.Memory{
			memory("m1", "letting-go", 8, "descendant-losing-someone"),
			memory("m2", "identity", 7, "descendant-questioning-identity"),
		}

		doc := passport.Build(memories, profile, 2)
		Expect(doc.Values).To(Equal([]string{"letting-go", "identity"}))
	})

	It("records source and memory counts in meta", func() {
		memories := []passport.Memory{
			memory("m1", "persistence", 8, "descendant-considering-quitting"),
		}

		doc := passport.Build(memories, profile, 42)
		Expect(doc.Meta.SourceCount).To(Equal(42))
		Expect(doc.Meta.LMOCount).To(Equal(1))
		Expect(doc.Meta.CreatedAt).NotTo(BeEmpty())
	})
})
