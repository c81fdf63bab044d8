package passportscmder_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	passportscmder "github.com/heirloomhq/heirloom/cmd/heirloom/passports"
)

func TestPassportsCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Passports Command Suite")
}

var _ = Describe("NewPassportsCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := passportscmder.NewPassportsCmd()
		Expect(cmd.Use).To(Equal("passports"))
	})

	It("registers the api-target flag", func() {
		cmd := passportscmder.NewPassportsCmd()
		Expect(cmd.Flags().Lookup("api-target")).NotTo(BeNil())
	})

	It("rejects any arguments", func() {
		cmd := passportscmder.NewPassportsCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ListAPI", func() {
	ctx := context.Background()

	It("fetches and parses the passport listing", func() {
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			path = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"count": 1, "passports": [{"passportId": "p1", "familyName": "Ortiz", "contributor": "Rosa Ortiz"}]}`))
		}))
		defer server.Close()

		output, err := passportscmder.ListAPI(ctx, server.URL)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/passports"))
		Expect(output.Count).To(Equal(1))
		Expect(output.Passports).To(HaveLen(1))
		Expect(output.Passports[0].PassportID).To(Equal("p1"))
		Expect(output.Passports[0].FamilyName).To(Equal("Ortiz"))
	})

	It("surfaces non-200 responses as errors", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "failed to list passports"}`))
		}))
		defer server.Close()

		_, err := passportscmder.ListAPI(ctx, server.URL)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("HTTP 500"))
	})

	It("rejects an unparseable target URL", func() {
		_, err := passportscmder.ListAPI(ctx, "http://bad url\x7f")
		Expect(err).To(HaveOccurred())
	})
})
