package vault_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/heirloomhq/heirloom/pkg/passport"
	"github.com/heirloomhq/heirloom/pkg/vault"
)

func TestVault(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vault Suite")
}

func respond(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var _ = Describe("HTTPClient", func() {
	var (
		ctx    context.Context
		server *httptest.Server
		mux    *http.ServeMux
		client *vault.HTTPClient
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		client = vault.NewHTTPClient(server.URL)
	})

	AfterEach(func() {
		server.Close()
		Expect(client.Close()).To(Succeed())
	})

	It("creates a passport and returns the assigned id", func() {
		var received map[string]any
		mux.HandleFunc("POST /passport", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			respond(w, http.StatusCreated, map[string]any{
				"success": true,
				"data":    map[string]any{"passportId": "pass_123"},
			})
		})

		doc := &passport.Passport{Heritage: passport.Heritage{
			FamilyName:         "Ortiz",
			PrimaryContributor: passport.Contributor{Name: "Rosa Ortiz"},
		}}

		id, err := client.CreatePassport(ctx, doc)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("pass_123"))
		Expect(received).To(HaveKeyWithValue("familyName", "Ortiz"))
		Expect(received).To(HaveKeyWithValue("contributor", "Rosa Ortiz"))
		Expect(received).To(HaveKey("passportData"))
	})

	It("surfaces vault-side errors", func() {
		mux.HandleFunc("POST /passport", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			respond(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "familyName required",
			})
		})

		_, err := client.CreatePassport(ctx, &passport.Passport{})
		Expect(err).To(MatchError(ContainSubstring("familyName required")))
	})

	It("reports not found on updates to unknown passports", func() {
		mux.HandleFunc("PUT /passport/missing", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			respond(w, http.StatusNotFound, map[string]any{"success": false, "error": "not found"})
		})

		err := client.UpdatePassport(ctx, "missing", &passport.Passport{})
		Expect(vault.IsNotFound(err)).To(BeTrue())
	})

	It("lists passports", func() {
		mux.HandleFunc("GET /passports", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			respond(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{"passports": []map[string]any{
					{"passportId": "pass_1", "familyName": "Ortiz", "contributor": "Rosa Ortiz"},
				}},
			})
		})

		infos, err := client.ListPassports(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(infos).To(HaveLen(1))
		Expect(infos[0].PassportID).To(Equal("pass_1"))
	})

	It("returns empty without error when a contributor search misses", func() {
		mux.HandleFunc("GET /passports/search", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			respond(w, http.StatusNotFound, map[string]any{"success": false, "error": "not found"})
		})

		id, err := client.FindPassportByContributor(ctx, "Nobody")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(BeEmpty())
	})

	It("finds a passport by contributor", func() {
		mux.HandleFunc("GET /passports/search", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Query().Get("contributor")).To(Equal("Rosa Ortiz"))
			respond(w, http.StatusOK, map[string]any{
				"success": true,
				"data":    map[string]any{"passportId": "pass_1"},
			})
		})

		id, err := client.FindPassportByContributor(ctx, "Rosa Ortiz")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal("pass_1"))
	})

	It("posts memories with the full body", func() {
		var received map[string]any
		mux.HandleFunc("POST /memories", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			respond(w, http.StatusCreated, map[string]any{"success": true})
		})

		mem := passport.Memory{
			MemoryID:        "m1",
			EmotionalWeight: 8,
			LifeTheme:       "persistence",
			SituationalTags: []string{"descendant-considering-quitting"},
		}
		Expect(client.CreateMemory(ctx, "pass_1", mem)).To(Succeed())
		Expect(received).To(HaveKeyWithValue("passportId", "pass_1"))
		Expect(received).To(HaveKeyWithValue("memoryId", "m1"))
		Expect(received).To(HaveKeyWithValue("lifeTheme", "persistence"))
	})

	It("lists memories for a passport", func() {
		mux.HandleFunc("GET /passport/pass_1/memories", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			respond(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{"memories": []map[string]any{
					{"memoryId": "m1", "emotionalWeight": 8},
				}},
			})
		})

		memories, err := client.ListMemories(ctx, "pass_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(memories).To(HaveLen(1))
		Expect(memories[0].MemoryID).To(Equal("m1"))
	})

	It("reports not found when listing memories of an unknown passport", func() {
		mux.HandleFunc("GET /passport/missing/memories", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			respond(w, http.StatusNotFound, map[string]any{"success": false, "error": "not found"})
		})

		_, err := client.ListMemories(ctx, "missing")
		Expect(vault.IsNotFound(err)).To(BeTrue())
	})

	It("exports the full document", func() {
		mux.HandleFunc("GET /passport/pass_1/export", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			respond(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{
					"@type":    "CulturalMemoryPassport",
					"heritage": map[string]any{"familyName": "Ortiz"},
				},
			})
		})

		doc, err := client.ExportPassport(ctx, "pass_1")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.Type).To(Equal("CulturalMemoryPassport"))
		Expect(doc.Heritage.FamilyName).To(Equal("Ortiz"))
	})

	Describe("ConsentStatus", func() {
		It("passes the bearer token and parses the consent", func() {
			mux.HandleFunc("GET /consent/status", func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer tok_1"))
				respond(w, http.StatusOK, map[string]any{
					"success": true,
					"data": map[string]any{
						"valid":   true,
						"scopes":  []string{"match"},
						"subject": "Rosa Ortiz",
					},
				})
			})

			consent, err := client.ConsentStatus(ctx, "tok_1")
			Expect(err).NotTo(HaveOccurred())
			Expect(consent.Valid).To(BeTrue())
			Expect(consent.Scopes).To(Equal([]string{"match"}))
		})

		It("fails closed on vault-side errors", func() {
			mux.HandleFunc("GET /consent/status", func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				respond(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "revoked"})
			})

			consent, err := client.ConsentStatus(ctx, "tok_revoked")
			Expect(err).NotTo(HaveOccurred())
			Expect(consent.Valid).To(BeFalse())
		})
	})
})
