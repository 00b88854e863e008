package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fieldservice/jobvisit/internal/auth"
	"github.com/fieldservice/jobvisit/internal/client"
	"github.com/fieldservice/jobvisit/internal/scope"
	"github.com/fieldservice/jobvisit/pkg/requestid"
)

var _ = Describe("scope client", Ordered, func() {
	var (
		server  *httptest.Server
		mu      sync.Mutex
		items   []scope.Item
		headers http.Header
		c       *client.ScopeClient
		ref     = scope.Ref{Kind: scope.RefVisit, ID: "v-1"}
	)

	BeforeAll(func() {
		router := chi.NewRouter()
		router.Get("/api/v1/scopes/{kind}/{id}", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			headers = r.Header.Clone()
			w.Header().Set("Content-Type", "application/json")
			if chi.URLParam(r, "id") != "v-1" {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "scope owner visit/" + chi.URLParam(r, "id") + " not found"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"kind": "visit", "id": "v-1", "items": items})
		})
		router.Patch("/api/v1/scopes/{kind}/{id}", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			headers = r.Header.Clone()
			w.Header().Set("Content-Type", "application/json")
			var patch scope.Patch
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			items = scope.Apply(items, patch)
			_ = json.NewEncoder(w).Encode(map[string]any{"kind": "visit", "id": "v-1", "items": items})
		})
		server = httptest.NewServer(router)

		cfg := client.NewDefault()
		cfg.Service.Server = server.URL
		cfg.Actor = client.Actor{ID: "alice"}
		var err error
		c, err = client.NewScopeClient(cfg)
		Expect(err).To(BeNil())
	})

	AfterAll(func() {
		server.Close()
	})

	BeforeEach(func() {
		mu.Lock()
		items = []scope.Item{{Key: "part:p-1", Label: "Mixer tap", Type: scope.ItemPart, Source: scope.SourceProject, RefID: "p-1"}}
		mu.Unlock()
	})

	It("reads the server list with the actor headers", func() {
		ctx := requestid.ToContext(context.TODO(), "req-42")
		got, err := c.GetScope(ctx, ref)
		Expect(err).To(BeNil())
		Expect(got).To(HaveLen(1))
		Expect(got[0].Key).To(Equal("part:p-1"))

		Expect(headers.Get(auth.ActorIDHeader)).To(Equal("alice"))
		Expect(headers.Get(auth.ActorRoleHeader)).To(Equal(auth.RoleTechnician))
		Expect(headers.Get(requestid.Header)).To(Equal("req-42"))
	})

	It("sends a patch and returns the authoritative list", func() {
		got, err := c.PatchScope(context.TODO(), ref, scope.Patch{
			Add: []scope.Item{{Key: "trade:t-1", Label: "Plumber", Type: scope.ItemTrade, Source: scope.SourceJob}},
		})
		Expect(err).To(BeNil())
		Expect(got).To(HaveLen(2))
	})

	It("surfaces the server message on failure", func() {
		_, err := c.GetScope(context.TODO(), scope.Ref{Kind: scope.RefVisit, ID: "missing"})
		var status *client.ErrUnexpectedStatus
		Expect(err).To(BeAssignableToTypeOf(status))
		status = err.(*client.ErrUnexpectedStatus)
		Expect(status.StatusCode).To(Equal(http.StatusNotFound))
		Expect(status.Message).To(ContainSubstring("not found"))
	})

	It("refuses a config without an actor", func() {
		cfg := client.NewDefault()
		cfg.Service.Server = server.URL
		_, err := client.NewScopeClient(cfg)
		Expect(err).To(MatchError(ContainSubstring("no actor id found")))
	})
})
