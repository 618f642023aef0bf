package webui

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"stockroom/dblayer"
	"stockroom/dbtypes"
	"stockroom/identity"
	"stockroom/inventory"
	"stockroom/navigation"
	"stockroom/sessionstate"
	"stockroom/webui/uitemplates"

	"github.com/golang/glog"
)

const sessionCookieName = "Stockroom-Session"

type WebUI struct {
	db                  *dblayer.DB
	googleOAuthClientID string
}

func New(db *dblayer.DB, googleOAuthClientID string) *WebUI {
	return &WebUI{
		db:                  db,
		googleOAuthClientID: googleOAuthClientID,
	}
}

func (u *WebUI) Register(m *http.ServeMux) {
	m.HandleFunc(string(navigation.RouteHome), u.homeHandler)
	m.HandleFunc(string(navigation.RouteSplash), u.splashHandler)
	m.HandleFunc(string(navigation.RouteLogin), u.logInHandler)
	m.HandleFunc(string(navigation.RouteSignup), u.signUpHandler)
	m.HandleFunc("/google-sign-in", u.googleSignInHandler)
	m.HandleFunc("/log-out", u.logOutHandler)
	m.HandleFunc("/account", u.accountHandler)
	m.HandleFunc("/products", u.listProductsHandler)
	m.HandleFunc("/add-product", u.addProductHandler)
	m.HandleFunc("/edit-product", u.editProductHandler)
	m.HandleFunc("/delete-product", u.deleteProductHandler)
	m.HandleFunc("/delete-all-products", u.deleteAllProductsHandler)
}

// session rebinds the request's session cookie and resolves the session
// state for it.  Every handler goes through here, so the state machine and
// the navigation policy see every request.
func (u *WebUI) session(r *http.Request) (*identity.Binding, *sessionstate.Machine) {
	var cookie string
	for _, c := range r.Cookies() {
		if c.Name == sessionCookieName {
			cookie = c.Value
		}
	}

	binding := identity.Bind(u.db, cookie)
	machine := sessionstate.New(binding)
	machine.CheckSessionState(r.Context())

	return binding, machine
}

// redirectAway applies the navigation policy to a protected surface.  It
// reports true after writing the redirect when the session state requires a
// different surface.
func redirectAway(w http.ResponseWriter, r *http.Request, machine *sessionstate.Machine) bool {
	route := navigation.StartRoute(machine.Current())
	if route == navigation.RouteHome {
		return false
	}

	http.Redirect(w, r, string(route), http.StatusFound)
	return true
}

func setSessionCookie(w http.ResponseWriter, binding *identity.Binding) {
	cookie, expires, ok := binding.Cookie()
	if !ok {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookie,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  expires,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func writePage(w http.ResponseWriter, content []byte, err error) {
	if err != nil {
		glog.Errorf("Error while rendering page: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	if _, err := w.Write(content); err != nil {
		// It's too late to write an error to the HTTP response.
		glog.Errorf("Error while writing output: %v", err)
	}
}

// homeHandler renders the dashboard.
func (u *WebUI) homeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != string(navigation.RouteHome) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	ctx := r.Context()

	binding, machine := u.session(r)
	if redirectAway(w, r, machine) {
		return
	}

	id, err := binding.Current(ctx)
	if err != nil {
		glog.Errorf("Error while getting logged-in user: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	repo := inventory.NewRepository(u.db, binding)
	products, err := repo.ListForCurrentOwner(ctx)
	if err != nil {
		glog.Errorf("Error while listing products: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	content, err := uitemplates.HomePage(&uitemplates.HomeParams{
		ActiveUser:   uitemplates.ActiveUserParams{LoggedIn: true, Email: id.Email},
		ProductCount: len(products),
	})
	writePage(w, content, err)
}

// splashHandler renders the blocking loading surface.  Session resolution is
// synchronous on the server, so browsers normally never land here; the route
// exists for clients that probe asynchronously.
func (u *WebUI) splashHandler(w http.ResponseWriter, r *http.Request) {
	content, err := uitemplates.SplashPage(&uitemplates.SplashParams{})
	writePage(w, content, err)
}

// logInHandler renders the login page and processes login submissions.
func (u *WebUI) logInHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	binding, machine := u.session(r)

	if machine.Current().Phase == sessionstate.Authenticated {
		// User is already logged in.  Send them home; the redirect replaces
		// the login surface, so back navigation can't return to it.
		http.Redirect(w, r, string(navigation.RouteHome), http.StatusFound)
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			glog.Errorf("Error while parsing form: %v", err)
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}

		machine.Login(ctx, r.PostForm.Get("email"), r.PostForm.Get("password"))

		state := machine.Current()
		if state.Phase == sessionstate.Authenticated {
			setSessionCookie(w, binding)
			http.Redirect(w, r, string(navigation.StartRoute(state)), http.StatusFound)
			return
		}

		// Render the login form with the failure message.
		content, err := uitemplates.LogInPage(&uitemplates.LogInParams{
			UserError:           state.Message,
			GoogleOAuthClientID: u.googleOAuthClientID,
		})
		writePage(w, content, err)
		return
	}

	content, err := uitemplates.LogInPage(&uitemplates.LogInParams{
		GoogleOAuthClientID: u.googleOAuthClientID,
	})
	writePage(w, content, err)
}

// signUpHandler renders the sign-up page and processes account creation.
func (u *WebUI) signUpHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	binding, machine := u.session(r)

	if machine.Current().Phase == sessionstate.Authenticated {
		http.Redirect(w, r, string(navigation.RouteHome), http.StatusFound)
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			glog.Errorf("Error while parsing form: %v", err)
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}

		machine.Signup(ctx, r.PostForm.Get("email"), r.PostForm.Get("password"))

		state := machine.Current()
		if state.Phase == sessionstate.Authenticated {
			setSessionCookie(w, binding)
			http.Redirect(w, r, string(navigation.StartRoute(state)), http.StatusFound)
			return
		}

		content, err := uitemplates.SignUpPage(&uitemplates.SignUpParams{UserError: state.Message})
		writePage(w, content, err)
		return
	}

	content, err := uitemplates.SignUpPage(&uitemplates.SignUpParams{})
	writePage(w, content, err)
}

// googleSignInHandler receives the credential posted by the Sign in with
// Google flow.
func (u *WebUI) googleSignInHandler(w http.ResponseWriter, r *http.Request) {
	if u.googleOAuthClientID == "" {
		// Without a configured client ID the flow is disabled, and a posted
		// token can't be checked against our audience.
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	binding, _ := u.session(r)

	if err := r.ParseForm(); err != nil {
		glog.Errorf("Error while parsing form: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	if _, err := binding.SignInWithGoogle(ctx, r.PostForm.Get("credential")); err != nil {
		glog.Errorf("Error while processing Google sign-in: %v", err)

		content, renderErr := uitemplates.LogInPage(&uitemplates.LogInParams{
			UserError:           "Login failed",
			GoogleOAuthClientID: u.googleOAuthClientID,
		})
		writePage(w, content, renderErr)
		return
	}

	setSessionCookie(w, binding)
	http.Redirect(w, r, string(navigation.RouteHome), http.StatusFound)
}

// logOutHandler signs the user out and sends them to the login surface.
func (u *WebUI) logOutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		// The sign-out form lives on the account page.
		http.Redirect(w, r, "/account", http.StatusFound)
		return
	}

	_, machine := u.session(r)
	machine.Signout(r.Context())

	clearSessionCookie(w)
	http.Redirect(w, r, string(navigation.StartRoute(machine.Current())), http.StatusFound)
}

// accountHandler renders the account page.
func (u *WebUI) accountHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	binding, machine := u.session(r)
	if redirectAway(w, r, machine) {
		return
	}

	id, err := binding.Current(ctx)
	if err != nil {
		glog.Errorf("Error while getting logged-in user: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	content, err := uitemplates.AccountPage(&uitemplates.AccountParams{
		ActiveUser: uitemplates.ActiveUserParams{LoggedIn: true, Email: id.Email},
	})
	writePage(w, content, err)
}

func ListProductsLink(category string) string {
	q := url.Values{}
	if category != "" && category != dbtypes.CategoryAll {
		q.Add("category", category)
	}
	link := &url.URL{
		Path:     "/products",
		RawQuery: q.Encode(),
	}
	return link.String()
}

func EditProductLink(id string) string {
	q := url.Values{}
	q.Add("id", id)
	link := &url.URL{
		Path:     "/edit-product",
		RawQuery: q.Encode(),
	}
	return link.String()
}

// listProductsHandler renders the inventory list for the logged-in user,
// optionally narrowed to one category.
func (u *WebUI) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	binding, machine := u.session(r)
	if redirectAway(w, r, machine) {
		return
	}

	if err := r.ParseForm(); err != nil {
		glog.Errorf("Error while parsing form: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	selected := r.Form.Get("category")
	if selected == "" {
		selected = dbtypes.CategoryAll
	}

	repo := inventory.NewRepository(u.db, binding)
	products, err := repo.ListForCurrentOwner(ctx)
	if err != nil {
		glog.Errorf("Error while listing products: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	params := &uitemplates.ListProductsParams{}

	for _, c := range append([]string{dbtypes.CategoryAll}, dbtypes.Categories()...) {
		params.Categories = append(params.Categories, uitemplates.ListProductsCategory{
			Name:     c,
			Link:     ListProductsLink(c),
			Selected: c == selected,
		})
	}

	for _, p := range products {
		if selected != dbtypes.CategoryAll && p.Category != selected {
			continue
		}

		params.Products = append(params.Products, uitemplates.ListProductsProduct{
			Name:            p.Name,
			Price:           fmt.Sprintf("%.2f", p.Price),
			Quantity:        strconv.FormatInt(p.Quantity, 10),
			Category:        p.Category,
			EditProductLink: EditProductLink(p.ID),
			DeleteFormID:    p.ID,
		})
	}

	content, err := uitemplates.ListProductsPage(params)
	writePage(w, content, err)
}

// parseProductForm validates the add/edit form fields.  It returns a user
// error string for rejected input; only empty-string means the product is
// usable.
func parseProductForm(form url.Values) (*dbtypes.Product, string) {
	name := strings.TrimSpace(form.Get("name"))
	if name == "" {
		return nil, "Name must not be empty"
	}

	price, err := strconv.ParseFloat(form.Get("price"), 64)
	if err != nil {
		return nil, fmt.Sprintf("Could not parse price %q", form.Get("price"))
	}
	if price < 0 {
		return nil, "Price must not be negative"
	}

	quantity, err := strconv.ParseInt(form.Get("quantity"), 10, 64)
	if err != nil {
		return nil, fmt.Sprintf("Could not parse quantity %q", form.Get("quantity"))
	}
	if quantity < 0 {
		return nil, "Quantity must not be negative"
	}

	category := form.Get("category")
	if !dbtypes.ValidCategory(category) {
		return nil, fmt.Sprintf("Unknown category %q", category)
	}

	return &dbtypes.Product{
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Category: category,
	}, ""
}

// addProductHandler renders the add-product form and processes submissions.
func (u *WebUI) addProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	binding, machine := u.session(r)
	if redirectAway(w, r, machine) {
		return
	}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			glog.Errorf("Error while parsing form: %v", err)
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}

		product, userErr := parseProductForm(r.PostForm)
		if userErr != "" {
			content, err := uitemplates.AddProductPage(&uitemplates.AddProductParams{
				UserError:  userErr,
				Categories: dbtypes.Categories(),
				Name:       r.PostForm.Get("name"),
				Price:      r.PostForm.Get("price"),
				Quantity:   r.PostForm.Get("quantity"),
				Category:   r.PostForm.Get("category"),
			})
			writePage(w, content, err)
			return
		}

		repo := inventory.NewRepository(u.db, binding)
		if err := repo.Insert(ctx, product); err != nil {
			glog.Errorf("Error while inserting product: %v", err)
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, ListProductsLink(""), http.StatusFound)
		return
	}

	content, err := uitemplates.AddProductPage(&uitemplates.AddProductParams{
		Categories: dbtypes.Categories(),
		Category:   dbtypes.CategoryCarbonated,
	})
	writePage(w, content, err)
}

// editProductHandler renders the edit form for one product and processes the
// full-overwrite save.
func (u *WebUI) editProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	binding, machine := u.session(r)
	if redirectAway(w, r, machine) {
		return
	}

	if err := r.ParseForm(); err != nil {
		glog.Errorf("Error while parsing form: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	id, err := binding.Current(ctx)
	if err != nil {
		glog.Errorf("Error while getting logged-in user: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	repo := inventory.NewRepository(u.db, binding)

	productID := r.Form.Get("id")
	product, err := repo.GetByID(ctx, productID)
	if err != nil {
		glog.Errorf("Error while retrieving product: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}
	if product == nil || product.OwnerID != id.UserID {
		// A product owned by someone else is indistinguishable from a
		// missing one.
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if r.Method == http.MethodPost {
		updated, userErr := parseProductForm(r.PostForm)
		if userErr != "" {
			content, err := uitemplates.EditProductPage(&uitemplates.EditProductParams{
				UserError:  userErr,
				SelfLink:   EditProductLink(productID),
				Categories: dbtypes.Categories(),
				Name:       r.PostForm.Get("name"),
				Price:      r.PostForm.Get("price"),
				Quantity:   r.PostForm.Get("quantity"),
				Category:   r.PostForm.Get("category"),
			})
			writePage(w, content, err)
			return
		}

		updated.ID = product.ID
		updated.OwnerID = product.OwnerID
		if err := repo.Update(ctx, updated); err != nil {
			glog.Errorf("Error while updating product: %v", err)
			http.Error(w, "Internal Error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, ListProductsLink(""), http.StatusFound)
		return
	}

	content, err := uitemplates.EditProductPage(&uitemplates.EditProductParams{
		SelfLink:   EditProductLink(product.ID),
		Categories: dbtypes.Categories(),
		Name:       product.Name,
		Price:      fmt.Sprintf("%.2f", product.Price),
		Quantity:   strconv.FormatInt(product.Quantity, 10),
		Category:   product.Category,
	})
	writePage(w, content, err)
}

// deleteProductHandler deletes one product.
func (u *WebUI) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	binding, machine := u.session(r)
	if redirectAway(w, r, machine) {
		return
	}

	if err := r.ParseForm(); err != nil {
		glog.Errorf("Error while parsing form: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	repo := inventory.NewRepository(u.db, binding)

	product, err := repo.GetByID(ctx, r.PostForm.Get("id"))
	if err != nil {
		glog.Errorf("Error while retrieving product: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}
	if product == nil {
		// Already gone; deleting a missing product is not an error.
		http.Redirect(w, r, ListProductsLink(""), http.StatusFound)
		return
	}

	if err := repo.Delete(ctx, product); err != nil {
		if errors.Is(err, inventory.ErrWrongOwner) {
			// A product owned by someone else is indistinguishable from a
			// missing one.
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		glog.Errorf("Error while deleting product: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, ListProductsLink(""), http.StatusFound)
}

// deleteAllProductsHandler deletes every product of the logged-in user.
func (u *WebUI) deleteAllProductsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	binding, machine := u.session(r)
	if redirectAway(w, r, machine) {
		return
	}

	repo := inventory.NewRepository(u.db, binding)
	if err := repo.DeleteAll(ctx); err != nil {
		glog.Errorf("Error while deleting products: %v", err)
		http.Error(w, "Internal Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/account", http.StatusFound)
}
