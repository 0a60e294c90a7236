package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mac2503/e-tiet2/internal/catalog"
	"github.com/mac2503/e-tiet2/internal/identity"
	"github.com/mac2503/e-tiet2/internal/models"
)

const maxUploadSize = 10 << 20

// --- USER HANDLERS ---

func (app *application) register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Phone    string `json:"phone"`
		RollNo   string `json:"rollno"`
		Email    string `json:"email"`
		Hostel   string `json:"hostel"`
		Password string `json:"password"`
	}
	if !app.readJSON(w, r, &input) {
		return
	}

	user, code, err := app.identity.Register(r.Context(), identity.Registration{
		Name:     input.Name,
		Phone:    input.Phone,
		RollNo:   input.RollNo,
		Email:    input.Email,
		Hostel:   input.Hostel,
		Password: input.Password,
	})
	if err != nil {
		app.replyError(w, err)
		return
	}

	// Mail delivery is handled outside this service; the code is logged so
	// the delivery worker can be wired in later.
	app.infoLog.Printf("verification OTP for %s: %s (valid 15 minutes)", user.Email, code)

	if err := app.session.RenewToken(r.Context()); err != nil {
		app.serverError(w, err)
		return
	}
	app.session.Put(r.Context(), "authenticatedUserID", user.ID.Hex())
	app.reply(w, http.StatusOK, user)
}

func (app *application) login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !app.readJSON(w, r, &input) {
		return
	}
	if input.Email == "" || input.Password == "" {
		app.clientError(w, http.StatusBadRequest, "please provide an email and password")
		return
	}

	user, err := app.identity.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		app.replyError(w, err)
		return
	}

	if err := app.session.RenewToken(r.Context()); err != nil {
		app.serverError(w, err)
		return
	}
	app.session.Put(r.Context(), "authenticatedUserID", user.ID.Hex())
	app.reply(w, http.StatusOK, user)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	app.session.Remove(r.Context(), "authenticatedUserID")
	if err := app.session.Destroy(r.Context()); err != nil {
		app.serverError(w, err)
		return
	}
	app.reply(w, http.StatusOK, "logged out")
}

func (app *application) verifyOtp(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Otp string `json:"otp"`
	}
	if !app.readJSON(w, r, &input) {
		return
	}

	err := app.identity.VerifyOtp(r.Context(), app.authenticatedUserID(r), input.Otp)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, "successfully verified")
}

func (app *application) regenerateOtp(w http.ResponseWriter, r *http.Request) {
	userID := app.authenticatedUserID(r)
	code, err := app.identity.RegenerateOtp(r.Context(), userID)
	if err != nil {
		app.replyError(w, err)
		return
	}

	user, err := app.identity.GetByID(r.Context(), userID)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.infoLog.Printf("verification OTP for %s: %s (valid 15 minutes)", user.Email, code)
	app.reply(w, http.StatusOK, "otp regenerated")
}

func (app *application) getMe(w http.ResponseWriter, r *http.Request) {
	user, err := app.identity.GetByID(r.Context(), app.authenticatedUserID(r))
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, user)
}

func (app *application) updateDetails(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name   string `json:"name"`
		Phone  string `json:"phone"`
		RollNo string `json:"rollno"`
		Email  string `json:"email"`
		Hostel string `json:"hostel"`
	}
	if !app.readJSON(w, r, &input) {
		return
	}

	user, err := app.identity.UpdateDetails(r.Context(), app.authenticatedUserID(r), identity.Details{
		Name:   input.Name,
		Phone:  input.Phone,
		RollNo: input.RollNo,
		Email:  input.Email,
		Hostel: input.Hostel,
	})
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, user)
}

func (app *application) updatePassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !app.readJSON(w, r, &input) {
		return
	}

	err := app.identity.UpdatePassword(r.Context(), app.authenticatedUserID(r), input.CurrentPassword, input.NewPassword)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, "password updated")
}

func (app *application) updateProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID := app.authenticatedUserID(r)
	user, err := app.identity.GetByID(r.Context(), userID)
	if err != nil {
		app.replyError(w, err)
		return
	}

	key, ok := app.uploadImage(w, r, "image", "profiles")
	if !ok {
		return
	}
	if err := app.identity.UpdatePicture(r.Context(), userID, key); err != nil {
		app.replyError(w, err)
		return
	}
	if user.Picture != "" {
		if err := app.blobs.Delete(r.Context(), user.Picture); err != nil {
			app.errorLog.Printf("releasing image blob %s: %v", user.Picture, err)
		}
	}
	app.reply(w, http.StatusOK, key)
}

func (app *application) removeProfilePicture(w http.ResponseWriter, r *http.Request) {
	userID := app.authenticatedUserID(r)
	user, err := app.identity.GetByID(r.Context(), userID)
	if err != nil {
		app.replyError(w, err)
		return
	}

	if err := app.identity.RemovePicture(r.Context(), userID); err != nil {
		app.replyError(w, err)
		return
	}
	if user.Picture != "" {
		if err := app.blobs.Delete(r.Context(), user.Picture); err != nil {
			app.errorLog.Printf("releasing image blob %s: %v", user.Picture, err)
		}
	}
	app.reply(w, http.StatusOK, "profile picture removed")
}

func (app *application) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if !app.readJSON(w, r, &input) {
		return
	}

	token, err := app.identity.ForgotPassword(r.Context(), input.Email)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.infoLog.Printf("password reset token for %s: %s", input.Email, token)
	app.reply(w, http.StatusOK, "email sent")
}

func (app *application) resetPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}
	if !app.readJSON(w, r, &input) {
		return
	}

	err := app.identity.ResetPassword(r.Context(), r.URL.Query().Get(":token"), input.Password)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, "password reset")
}

// --- PRODUCT HANDLERS ---

func (app *application) addProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		app.clientError(w, http.StatusBadRequest, "malformed form data")
		return
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil {
		app.clientError(w, http.StatusBadRequest, "invalid price")
		return
	}
	fields := catalog.Fields{
		Title:       r.FormValue("title"),
		Description: r.FormValue("desc"),
		Size:        r.FormValue("size"),
		Color:       r.FormValue("color"),
		Price:       price,
	}
	if cats := r.FormValue("categories"); cats != "" {
		fields.Categories = strings.Split(cats, ",")
	}

	if _, _, err := r.FormFile("img"); err == nil {
		key, ok := app.uploadImage(w, r, "img", "products")
		if !ok {
			return
		}
		fields.Image = key
	}

	product, err := app.catalog.Add(r.Context(), app.authenticatedUserID(r), fields)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, product)
}

func (app *application) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := app.pathID(w, r, "id")
	if !ok {
		return
	}

	var input struct {
		Description *string  `json:"desc"`
		Categories  []string `json:"categories"`
		Size        *string  `json:"size"`
		Color       *string  `json:"color"`
		Price       *float64 `json:"price"`
	}
	if !app.readJSON(w, r, &input) {
		return
	}

	product, err := app.catalog.Update(r.Context(), id, app.authenticatedUserID(r), catalog.Update{
		Description: input.Description,
		Categories:  input.Categories,
		Size:        input.Size,
		Color:       input.Color,
		Price:       input.Price,
	})
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, product)
}

func (app *application) updateProductImage(w http.ResponseWriter, r *http.Request) {
	id, ok := app.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		app.clientError(w, http.StatusBadRequest, "malformed form data")
		return
	}

	key, ok := app.uploadImage(w, r, "img", "products")
	if !ok {
		return
	}
	product, err := app.catalog.UpdateImage(r.Context(), id, app.authenticatedUserID(r), key)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, product)
}

func (app *application) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := app.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := app.catalog.Delete(r.Context(), id, app.authenticatedUserID(r)); err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, "successfully deleted")
}

func (app *application) getProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := app.pathID(w, r, "id")
	if !ok {
		return
	}
	product, err := app.catalog.GetByID(r.Context(), id)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, product)
}

func (app *application) getProductByIDSeller(w http.ResponseWriter, r *http.Request) {
	id, ok := app.pathID(w, r, "id")
	if !ok {
		return
	}
	product, err := app.catalog.GetByIDSeller(r.Context(), id, app.authenticatedUserID(r))
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, product)
}

func (app *application) getAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := app.catalog.GetAll(r.Context())
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, products)
}

func (app *application) getAllProductsSeller(w http.ResponseWriter, r *http.Request) {
	products, err := app.catalog.GetAllBySeller(r.Context(), app.authenticatedUserID(r))
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, products)
}

// --- ORDER HANDLERS ---

func (app *application) addOrder(w http.ResponseWriter, r *http.Request) {
	productID, ok := app.pathID(w, r, "id")
	if !ok {
		return
	}

	// The body is optional; an absent payment type defaults to COD.
	var input struct {
		PaymentType string `json:"paymentType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		app.clientError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	order, err := app.orders.Place(r.Context(), productID, app.authenticatedUserID(r), input.PaymentType)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, order)
}

func (app *application) deleteOrderBuyer(w http.ResponseWriter, r *http.Request) {
	app.deleteOrder(w, r, models.RoleBuyer)
}

func (app *application) deleteOrderSeller(w http.ResponseWriter, r *http.Request) {
	app.deleteOrder(w, r, models.RoleSeller)
}

func (app *application) deleteOrder(w http.ResponseWriter, r *http.Request, role string) {
	id, ok := app.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := app.orders.Cancel(r.Context(), id, app.authenticatedUserID(r), role); err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, "successfully deleted")
}

func (app *application) getOrderByIDBuyer(w http.ResponseWriter, r *http.Request) {
	app.getOrder(w, r, models.RoleBuyer)
}

func (app *application) getOrderByIDSeller(w http.ResponseWriter, r *http.Request) {
	app.getOrder(w, r, models.RoleSeller)
}

func (app *application) getOrder(w http.ResponseWriter, r *http.Request, role string) {
	id, ok := app.pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := app.orders.Get(r.Context(), id, app.authenticatedUserID(r), role)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, order)
}

func (app *application) getAllOrdersBuyer(w http.ResponseWriter, r *http.Request) {
	app.listOrders(w, r, models.RoleBuyer)
}

func (app *application) getAllOrdersSeller(w http.ResponseWriter, r *http.Request) {
	app.listOrders(w, r, models.RoleSeller)
}

func (app *application) listOrders(w http.ResponseWriter, r *http.Request, role string) {
	orders, err := app.orders.List(r.Context(), app.authenticatedUserID(r), role)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, orders)
}

func (app *application) makePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := app.pathID(w, r, "id")
	if !ok {
		return
	}

	var input struct {
		Token string `json:"token"`
	}
	if !app.readJSON(w, r, &input) {
		return
	}
	if input.Token == "" {
		app.clientError(w, http.StatusBadRequest, "payment source token is required")
		return
	}

	order, err := app.orders.CapturePayment(r.Context(), id, app.authenticatedUserID(r), input.Token)
	if err != nil {
		app.replyError(w, err)
		return
	}
	app.reply(w, http.StatusOK, order)
}

// uploadImage stores the uploaded file under a fresh key and returns it.
// Reports false after writing the error response.
func (app *application) uploadImage(w http.ResponseWriter, r *http.Request, field, prefix string) (string, bool) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			app.clientError(w, http.StatusBadRequest, "malformed form data")
			return "", false
		}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		app.clientError(w, http.StatusBadRequest, "image file is required")
		return "", false
	}
	defer file.Close()

	key := prefix + "/" + uuid.NewString()
	if err := app.blobs.Put(r.Context(), key, header.Header.Get("Content-Type"), file); err != nil {
		app.serverError(w, err)
		return "", false
	}
	return key, true
}
