package shopfake

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SessionCookie is set on successful logins.
const SessionCookie = "shop_session"

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Token   string `json:"token"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type productsResponse struct {
	Data    []Product `json:"data"`
	Count   int       `json:"count"`
	Message string    `json:"message"`
}

type cartResponse struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
	Message  string    `json:"message"`
}

type addToCartRequest struct {
	UserID  string `json:"_id"`
	Product struct {
		ID string `json:"_id"`
	} `json:"product"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Shop) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "malformed form body"})
		return
	}
	email, password := r.PostForm.Get("userEmail"), r.PostForm.Get("userPassword")
	if email == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Email and Password are required"})
		return
	}

	token, userID, ok := s.login(email, password)
	if !ok {
		s.logger.Debugf("shopfake:login", "rejected %q", email)
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Incorrect email or password."})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, UserID: userID, Message: "Login Successfully"})
}

// authorized resolves the Authorization header to a user id, writing a 401
// when it does not name a live session.
func (s *Shop) authorized(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := s.userForToken(r.Header.Get("Authorization"))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "Unauthorized"})
		return "", false
	}
	return userID, true
}

func (s *Shop) handleProducts(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorized(w, r); !ok {
		return
	}
	products := s.Catalog()
	writeJSON(w, http.StatusOK, productsResponse{Data: products, Count: len(products), Message: "All Products fetched Successfully"})
}

func (s *Shop) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authorized(w, r)
	if !ok {
		return
	}
	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "malformed JSON body"})
		return
	}
	if req.UserID != "" && req.UserID != userID {
		writeJSON(w, http.StatusForbidden, messageResponse{Message: "Forbidden"})
		return
	}
	if _, found := s.product(req.Product.ID); !found {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "Product Not Found"})
		return
	}

	s.addToCart(userID, req.Product.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Product Added To Cart"})
}

func (s *Shop) handleCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authorized(w, r)
	if !ok {
		return
	}
	if chi.URLParam(r, "userId") != userID {
		writeJSON(w, http.StatusForbidden, messageResponse{Message: "Forbidden"})
		return
	}

	products := s.Cart(userID)
	msg := "Cart Data Found"
	if len(products) == 0 {
		msg = "No Product in Cart"
	}
	writeJSON(w, http.StatusOK, cartResponse{Products: products, Count: len(products), Message: msg})
}
