//go:build e2e

package e2e

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/qa-labs/ecom-e2e/shopfake"
)

var _ = Describe("Login", Label("P1"), func() {
	It("signs in a valid regular user", func(ctx SpecContext) {
		s := anonymous(ctx)
		login := s.Login()
		user := worker.Users().Default()

		Expect(login.Open()).To(Succeed())
		Expect(login.Login(user.Email, user.Password)).To(Succeed())
		Expect(login.VerifyLogin()).To(Succeed())
	})
})

var _ = Describe("Product listing", Label("smoke"), func() {
	It("renders product cards for a cached session", func(ctx SpecContext) {
		home := signedIn(ctx).Home()
		Expect(home.Open()).To(Succeed())

		n, err := home.CardCount()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeNumerically(">", 0))
	})

	It("opens a random card with matching details", func(ctx SpecContext) {
		s := signedIn(ctx)
		home := s.Home()
		Expect(home.Open()).To(Succeed())

		want, err := home.OpenRandomCardAndGetDetails()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.CardDetails().VerifyCardDetails(want)).To(Succeed())
	})
})

var _ = Describe("Product detail", func() {
	It("shows the name and price of a product", func(ctx SpecContext) {
		p := shopfake.DefaultCatalog[0]
		details := signedIn(ctx).CardDetails()

		Expect(details.OpenProduct(p.ID)).To(Succeed())
		Expect(details.VerifyCardDetails(cardDetails(p))).To(Succeed())
	})
})

var _ = Describe("Cart", Label("cart"), func() {
	It("holds a product added from the listing", func(ctx SpecContext) {
		s := signedIn(ctx)
		home := s.Home()
		Expect(home.Open()).To(Succeed())

		first := 0
		added, err := home.AddToCart(&first)
		Expect(err).NotTo(HaveOccurred())

		cart := s.Cart()
		Expect(cart.Open()).To(Succeed())
		Expect(cart.HasItem(added.Title)).To(Succeed())
		Expect(cart.Checkout().IsVisible()).To(BeTrue())
	})
})
