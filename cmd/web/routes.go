package main

import (
	"net/http"

	"github.com/bmizerany/pat"
)

func (app *application) routes() http.Handler {
	mux := pat.New()

	mux.Post("/api/v1/user/register", http.HandlerFunc(app.register))
	mux.Post("/api/v1/user/login", http.HandlerFunc(app.login))
	mux.Post("/api/v1/user/logout", app.requireAuth(app.logout))
	mux.Post("/api/v1/user/verify-otp", app.requireAuth(app.verifyOtp))
	mux.Put("/api/v1/user/regenerate-otp", app.requireAuth(app.regenerateOtp))
	mux.Get("/api/v1/user/me", app.requireAuth(app.getMe))
	mux.Put("/api/v1/user/update-details", app.requireAuth(app.updateDetails))
	mux.Put("/api/v1/user/update-password", app.requireAuth(app.updatePassword))
	mux.Put("/api/v1/user/update-profile-picture", app.requireAuth(app.updateProfilePicture))
	mux.Del("/api/v1/user/remove-profile-picture", app.requireAuth(app.removeProfilePicture))
	mux.Post("/api/v1/user/forgot-password", http.HandlerFunc(app.forgotPassword))
	mux.Put("/api/v1/user/reset-password/:token", http.HandlerFunc(app.resetPassword))

	mux.Post("/api/v1/product/add", app.requireAuth(app.addProduct))
	mux.Put("/api/v1/product/update/:id", app.requireAuth(app.updateProduct))
	mux.Put("/api/v1/product/update-image/:id", app.requireAuth(app.updateProductImage))
	mux.Del("/api/v1/product/delete/:id", app.requireAuth(app.deleteProduct))
	mux.Get("/api/v1/product/get-by-id/:id", http.HandlerFunc(app.getProductByID))
	mux.Get("/api/v1/product/get-by-id-seller/:id", app.requireAuth(app.getProductByIDSeller))
	mux.Get("/api/v1/product/get-all", http.HandlerFunc(app.getAllProducts))
	mux.Get("/api/v1/product/get-all-seller", app.requireAuth(app.getAllProductsSeller))

	mux.Post("/api/v1/order/add/:id", app.requireAuth(app.addOrder))
	mux.Del("/api/v1/order/delete-buyer/:id", app.requireAuth(app.deleteOrderBuyer))
	mux.Del("/api/v1/order/delete-seller/:id", app.requireAuth(app.deleteOrderSeller))
	mux.Get("/api/v1/order/get-by-id-buyer/:id", app.requireAuth(app.getOrderByIDBuyer))
	mux.Get("/api/v1/order/get-by-id-seller/:id", app.requireAuth(app.getOrderByIDSeller))
	mux.Get("/api/v1/order/get-all-buyer", app.requireAuth(app.getAllOrdersBuyer))
	mux.Get("/api/v1/order/get-all-seller", app.requireAuth(app.getAllOrdersSeller))
	mux.Post("/api/v1/order/make-payment/:id", app.requireAuth(app.makePayment))

	return app.session.LoadAndSave(app.logRequest(app.recoverPanic(mux)))
}
