//go:build e2e

// Package e2e holds the browser suites. Each ginkgo parallel process is one
// worker lane with its own session cache entry:
//
//	go test -tags e2e ./tests/e2e
//	ginkgo -p --label-filter=P1 --tags e2e ./tests/e2e
package e2e

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
	"github.com/qa-labs/ecom-e2e/fixture"
)

// setupTimeout bounds launching the browser and a cache miss login.
const setupTimeout = 2 * time.Minute

var (
	cfg    *env.Config
	worker *fixture.Worker
)

func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)

	var err error
	if cfg, err = env.LoadConfig(); err != nil {
		t.Fatal(err)
	}
	suiteConfig, reporterConfig := GinkgoConfiguration()
	if suiteConfig.FlakeAttempts == 0 {
		suiteConfig.FlakeAttempts = cfg.EffectiveRetries() + 1
	}
	RunSpecs(t, "ecom e2e", suiteConfig, reporterConfig)
}

var _ = BeforeSuite(func(ctx SpecContext) {
	logger, err := cfg.Logger(common.WithRunID(context.Background(), "e2e"), GinkgoWriter)
	Expect(err).NotTo(HaveOccurred())

	worker, err = fixture.SetupWorker(ctx, cfg, GinkgoParallelProcess()-1, logger)
	Expect(err).NotTo(HaveOccurred(), "setting up worker lane")
	DeferCleanup(worker.Close)
}, NodeTimeout(setupTimeout))

// signedIn opens a page for the current spec from the lane's session cache
// entry and finishes it when the spec ends.
func signedIn(ctx context.Context) *fixture.Spec {
	GinkgoHelper()
	return open(worker.NewPage(ctx, CurrentSpecReport().FullText(), CurrentSpecReport().NumAttempts))
}

// anonymous opens a page without a session.
func anonymous(ctx context.Context) *fixture.Spec {
	GinkgoHelper()
	return open(worker.NewAnonymousPage(ctx, CurrentSpecReport().FullText(), CurrentSpecReport().NumAttempts))
}

func open(s *fixture.Spec, err error) *fixture.Spec {
	GinkgoHelper()
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() {
		Expect(s.Finish(CurrentSpecReport().Failed())).To(Succeed())
	})
	return s
}
