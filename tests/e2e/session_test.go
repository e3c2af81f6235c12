//go:build e2e

package e2e

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qa-labs/ecom-e2e/browser"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
	"github.com/qa-labs/ecom-e2e/pages"
	"github.com/qa-labs/ecom-e2e/shopfake"
)

const readToken = `() => localStorage.getItem('token')`

func cardDetails(p shopfake.Product) pages.CardDetails {
	return pages.CardDetails{Title: p.Name, Price: p.DisplayPrice()}
}

func logins() int64 {
	if worker.Shop() == nil {
		return -1
	}
	return worker.Shop().Logins()
}

var _ = Describe("Session cache", Label("session"), func() {
	It("keeps one entry for the lane", func() {
		ok, err := worker.Store().Exists(worker.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(worker.Entry()).To(Equal(worker.Store().EntryPath(worker.ID())))

		state, err := worker.Store().Load(worker.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(state.Token).NotTo(BeEmpty())
		Expect(state.UserID).NotTo(BeEmpty())
	})

	It("reuses the entry without logging in again", func(ctx SpecContext) {
		before := logins()

		entry, err := worker.Acquire(ctx, worker.Browser())
		Expect(err).NotTo(HaveOccurred())
		Expect(entry).To(Equal(worker.Entry()))
		Expect(logins()).To(Equal(before))
	})

	It("hands the cached token to the page", func(ctx SpecContext) {
		s := signedIn(ctx)
		Expect(s.Home().Open()).To(Succeed())

		state, err := worker.Store().Load(worker.ID())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Page.Evaluate(readToken)).To(Equal(state.Token))
	})

	DescribeTable("restores the session through every driver",
		func(ctx SpecContext, d env.Driver) {
			b, err := browser.LaunchDriver(ctx, d, cfg, worker.Logger())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(b.Close)

			opts := common.NewContextOptions()
			opts.BaseURL = worker.Env().BaseURL
			bctx, err := b.NewContext(ctx, opts.WithStorageState(worker.Entry()))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(bctx.Close)

			page, err := bctx.NewPage(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Goto(ctx, worker.Env().URL(worker.Env().Routes.Landing))).To(Succeed())

			state, err := worker.Store().Load(worker.ID())
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Evaluate(ctx, readToken, nil)).To(Equal(state.Token))
		},
		Entry("playwright", env.DriverPlaywright),
		Entry("chromedp", env.DriverChromedp),
		Entry("rod", env.DriverRod),
	)
})
