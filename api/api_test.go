package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/heirloomhq/heirloom/pkg/match"
	"github.com/heirloomhq/heirloom/pkg/passport"
	"github.com/heirloomhq/heirloom/pkg/pipeline"
	"github.com/heirloomhq/heirloom/pkg/record"
	"github.com/heirloomhq/heirloom/pkg/vault"
	"github.com/heirloomhq/heirloom/pkg/vault/inmemory"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

// stubConsent returns a fixed consent result for every token.
type stubConsent struct {
	consent vault.Consent
	err     error
}

func (s *stubConsent) ConsentStatus(_ context.Context, _ string) (vault.Consent, error) {
	return s.consent, s.err
}

// stubIngester records the source root it was called with.
type stubIngester struct {
	root   string
	result *pipeline.IngestResult
	err    error
}

func (s *stubIngester) Ingest(_ context.Context, root string) (*pipeline.IngestResult, error) {
	s.root = root
	return s.result, s.err
}

func testMemory(id, trigger, theme string, weight int) passport.Memory {
	return passport.Memory{
		MemoryID:        id,
		SourceRef:       "rec-" + id,
		ContributorName: "Maria Santos",
		EmotionalWeight: weight,
		LifeTheme:       theme,
		SituationalTags: []string{trigger},
		MemoryType:      passport.MemoryTypeRecorded,
		Text:            "original text",
		WisdomExtracted: "wisdom",
	}
}

var _ = Describe("Server", func() {
	var (
		server *Server
		store  *inmemory.Store
		ctx    context.Context
	)

	BeforeEach(func() {
		logger, _ := zap.NewDevelopment()
		store = inmemory.NewStore()
		server = NewServer(Config{ListenAddr: ":0"}, store, nil, nil, logger)
		ctx = context.Background()
	})

	doRequest := func(method, target string, body io.Reader, headers map[string]string) *http.Response {
		req := httptest.NewRequest(method, target, body)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decodeBody := func(resp *http.Response, out any) {
		data, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(json.Unmarshal(data, out)).To(Succeed())
	}

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp := doRequest("GET", "/ping", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("GET /triggers", func() {
		It("returns the full taxonomy", func() {
			resp := doRequest("GET", "/triggers", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count    int              `json:"count"`
				Triggers []map[string]any `json:"triggers"`
			}
			decodeBody(resp, &body)
			Expect(body.Count).To(Equal(12))
			Expect(body.Triggers).To(HaveLen(12))
		})
	})

	Describe("GET /passports", func() {
		It("returns an empty list when no passports exist", func() {
			resp := doRequest("GET", "/passports", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count int `json:"count"`
			}
			decodeBody(resp, &body)
			Expect(body.Count).To(BeZero())
		})

		It("lists stored passports", func() {
			doc := passport.Build([]passport.Memory{
				testMemory("m1", "descendant-first-failure", "failure-recovery", 8),
			}, record.Profile{Name: "Maria Santos"}, 10)
			_, err := store.CreatePassport(ctx, doc)
			Expect(err).NotTo(HaveOccurred())

			resp := doRequest("GET", "/passports", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Count int `json:"count"`
			}
			decodeBody(resp, &body)
			Expect(body.Count).To(Equal(1))
		})
	})

	Describe("GET /passport/:id/export", func() {
		It("returns 404 for an unknown passport", func() {
			resp := doRequest("GET", "/passport/nonexistent/export", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("returns the full document", func() {
			doc := passport.Build([]passport.Memory{
				testMemory("m1", "descendant-first-failure", "failure-recovery", 8),
			}, record.Profile{Name: "Maria Santos"}, 10)
			id, err := store.CreatePassport(ctx, doc)
			Expect(err).NotTo(HaveOccurred())

			resp := doRequest("GET", "/passport/"+id+"/export", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var exported passport.Passport
			decodeBody(resp, &exported)
			Expect(exported.Memories).To(HaveLen(1))
		})
	})

	Describe("GET /passport/:id/match", func() {
		var passportID string

		BeforeEach(func() {
			doc := passport.Build([]passport.Memory{
				testMemory("m1", "descendant-first-failure", "failure-recovery", 8),
				testMemory("m2", "descendant-considering-quitting", "persistence", 9),
			}, record.Profile{Name: "Maria Santos"}, 10)
			var err error
			passportID, err = store.CreatePassport(ctx, doc)
			Expect(err).NotTo(HaveOccurred())
			for _, mem := range doc.Memories {
				Expect(store.CreateMemory(ctx, passportID, mem)).To(Succeed())
			}
		})

		It("requires a trigger parameter", func() {
			resp := doRequest("GET", "/passport/"+passportID+"/match", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects unknown triggers", func() {
			resp := doRequest("GET", "/passport/"+passportID+"/match?trigger=feeling-bored", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown passport", func() {
			resp := doRequest("GET", "/passport/nope/match?trigger=descendant-first-failure", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("returns direct matches before thematic matches", func() {
			resp := doRequest("GET", "/passport/"+passportID+"/match?trigger=descendant-first-failure", nil, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body MatchResponse
			decodeBody(resp, &body)
			Expect(body.Trigger).To(Equal("descendant-first-failure"))
			Expect(body.Count).To(Equal(2))
			Expect(body.Matches[0].MatchType).To(Equal(match.MatchTypeDirect))
			Expect(body.Matches[0].Memory.MemoryID).To(Equal("m1"))
			Expect(body.Matches[1].MatchType).To(Equal(match.MatchTypeThematic))
		})

		Context("with a consent checker configured", func() {
			var checker *stubConsent

			BeforeEach(func() {
				logger, _ := zap.NewDevelopment()
				checker = &stubConsent{consent: vault.Consent{Valid: true}}
				server = NewServer(Config{ListenAddr: ":0"}, store, checker, nil, logger)
			})

			It("rejects requests without a token", func() {
				resp := doRequest("GET", "/passport/"+passportID+"/match?trigger=descendant-first-failure", nil, nil)
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})

			It("rejects requests when consent is not granted", func() {
				checker.consent = vault.Consent{Valid: false}
				resp := doRequest("GET", "/passport/"+passportID+"/match?trigger=descendant-first-failure", nil,
					map[string]string{"Authorization": "Bearer token-1"})
				Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
			})

			It("allows requests with valid consent", func() {
				resp := doRequest("GET", "/passport/"+passportID+"/match?trigger=descendant-first-failure", nil,
					map[string]string{"Authorization": "Bearer token-1"})
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})
	})

	Describe("POST /ingest", func() {
		It("returns 503 when no ingester is configured", func() {
			resp := doRequest("POST", "/ingest", strings.NewReader(`{"source_root":"/data"}`), nil)
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})

		Context("with an ingester configured", func() {
			var ingester *stubIngester

			BeforeEach(func() {
				logger, _ := zap.NewDevelopment()
				ingester = &stubIngester{result: &pipeline.IngestResult{MemoriesPosted: 3, PassportID: "pp-1"}}
				server = NewServer(Config{ListenAddr: ":0"}, store, nil, ingester, logger)
			})

			It("requires a source_root", func() {
				resp := doRequest("POST", "/ingest", strings.NewReader(`{}`), nil)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})

			It("runs the pipeline and returns the summary", func() {
				resp := doRequest("POST", "/ingest", strings.NewReader(`{"source_root":"/data/records"}`), nil)
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(ingester.root).To(Equal("/data/records"))

				var result pipeline.IngestResult
				decodeBody(resp, &result)
				Expect(result.MemoriesPosted).To(Equal(3))
				Expect(result.PassportID).To(Equal("pp-1"))
			})
		})
	})
})
