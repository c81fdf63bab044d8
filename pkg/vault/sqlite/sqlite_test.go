package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/heirloomhq/heirloom/pkg/passport"
	"github.com/heirloomhq/heirloom/pkg/vault"
	"github.com/heirloomhq/heirloom/pkg/vault/sqlite"
)

func TestSQLite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLite Vault Suite")
}

func document(contributor string) *passport.Passport {
	return &passport.Passport{
		Heritage: passport.Heritage{
			FamilyName:         "Ortiz",
			PrimaryContributor: passport.Contributor{Name: contributor},
		},
	}
}

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *sqlite.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		store, err = sqlite.NewStore(filepath.Join(GinkgoT().TempDir(), "vault.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("round-trips a passport through disk", func() {
		id, err := store.CreatePassport(ctx, document("Rosa Ortiz"))
		Expect(err).NotTo(HaveOccurred())
		Expect(id).NotTo(BeEmpty())

		doc, err := store.ExportPassport(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Heritage.FamilyName).To(Equal("Ortiz"))
		Expect(doc.Heritage.PrimaryContributor.Name).To(Equal("Rosa Ortiz"))
	})

	It("rejects a nil passport", func() {
		_, err := store.CreatePassport(ctx, nil)
		Expect(err).To(HaveOccurred())
	})

	It("updates an existing passport body", func() {
		id, err := store.CreatePassport(ctx, document("Rosa Ortiz"))
		Expect(err).NotTo(HaveOccurred())

		updated := document("Rosa Ortiz")
		updated.Values = []string{"endurance"}
		Expect(store.UpdatePassport(ctx, id, updated)).To(Succeed())

		doc, err := store.ExportPassport(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Values).To(Equal([]string{"endurance"}))
	})

	It("reports not found for unknown passports", func() {
		err := store.UpdatePassport(ctx, "missing", document("Rosa"))
		Expect(vault.IsNotFound(err)).To(BeTrue())

		_, err = store.ExportPassport(ctx, "missing")
		Expect(vault.IsNotFound(err)).To(BeTrue())

		_, err = store.ListMemories(ctx, "missing")
		Expect(vault.IsNotFound(err)).To(BeTrue())
	})

	It("finds the passport for a contributor", func() {
		id, err := store.CreatePassport(ctx, document("Rosa Ortiz"))
		Expect(err).NotTo(HaveOccurred())

		found, err := store.FindPassportByContributor(ctx, "Rosa Ortiz")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(Equal(id))

		found, err = store.FindPassportByContributor(ctx, "Nobody")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeEmpty())
	})

	It("lists passports in creation order", func() {
		_, err := store.CreatePassport(ctx, document("Rosa Ortiz"))
		Expect(err).NotTo(HaveOccurred())
		_, err = store.CreatePassport(ctx, document("Miguel Ortiz"))
		Expect(err).NotTo(HaveOccurred())

		infos, err := store.ListPassports(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(infos).To(HaveLen(2))
	})

	It("stores memories and ignores duplicate memory ids", func() {
		id, err := store.CreatePassport(ctx, document("Rosa Ortiz"))
		Expect(err).NotTo(HaveOccurred())

		mem := passport.Memory{MemoryID: "m1", LifeTheme: "persistence", CreatedAt: "2026-01-01T00:00:00Z"}
		Expect(store.CreateMemory(ctx, id, mem)).To(Succeed())
		Expect(store.CreateMemory(ctx, id, mem)).To(Succeed())

		memories, err := store.ListMemories(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(memories).To(HaveLen(1))
		Expect(memories[0].LifeTheme).To(Equal("persistence"))
	})

	It("persists across reopen", func() {
		path := filepath.Join(GinkgoT().TempDir(), "vault.db")
		first, err := sqlite.NewStore(path)
		Expect(err).NotTo(HaveOccurred())

		id, err := first.CreatePassport(ctx, document("Rosa Ortiz"))
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Close()).To(Succeed())

		second, err := sqlite.NewStore(path)
		Expect(err).NotTo(HaveOccurred())
		defer second.Close()

		doc, err := second.ExportPassport(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Heritage.PrimaryContributor.Name).To(Equal("Rosa Ortiz"))
	})
})
