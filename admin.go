package sitekit

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !a.isAdmin(c) {
		return Render(c, a.Views.AdminLogin("", CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Слишком много попыток входа. Попробуйте позже.")
	}

	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if _, err := a.Sessions.Login(username, password); err != nil {
		a.loginLimiter.Record(ip)
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return Render(c, a.Views.AdminLogin(authErr.Message, CsrfToken(c)))
		}
		return err
	}

	if err := setSessionCookie(c, a.Sessions.Token()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminLogout(c echo.Context) error {
	a.Sessions.Logout()
	if err := clearSessionCookie(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminPostForm(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	id := c.Param("id")
	post := Post{}
	if id != "new" {
		var err error
		post, err = a.Content.PostByID(id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return c.NoContent(http.StatusNotFound)
			}
			return err
		}
	}
	return Render(c, a.Views.AdminPostForm(post, a.Content.AllCategories(), a.Content.AllAuthors(), nil, CsrfToken(c)))
}

func (a *App) handleAdminSave(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := c.Request().ParseForm(); err != nil {
		return err
	}

	in := postInputFromForm(c)
	id := strings.TrimSpace(c.FormValue("id"))

	var err error
	if id == "" {
		_, err = a.Content.CreatePost(in)
	} else {
		_, err = a.Content.UpdatePost(id, in)
	}
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			return a.renderPostFormErrors(c, id, in, vErr.Errors)
		case errors.Is(err, ErrDuplicateSlug):
			return a.renderPostFormErrors(c, id, in, []string{"Материал с таким slug уже существует"})
		case errors.Is(err, ErrNotFound):
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}

	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "Сохранено")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.Content.DeletePost(c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.renderAdminDashboard(c, "Запись уже удалена")
		}
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "Удалено")
}

func (a *App) handleAdminCategorySave(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	in := CategoryInput{
		Name:        strings.TrimSpace(c.FormValue("name")),
		Description: c.FormValue("description"),
		Color:       c.FormValue("color"),
		Image:       c.FormValue("image"),
	}
	id := strings.TrimSpace(c.FormValue("id"))

	var err error
	if id == "" {
		_, err = a.Content.CreateCategory(in)
	} else {
		_, err = a.Content.UpdateCategory(id, in)
	}
	if err != nil {
		if msg, ok := adminErrorMessage(err); ok {
			return Render(c, a.Views.AdminCategories(a.Content.AllCategories(), msg, CsrfToken(c)))
		}
		return err
	}

	a.Cache.Invalidate()
	return Render(c, a.Views.AdminCategories(a.Content.AllCategories(), "", CsrfToken(c)))
}

func (a *App) handleAdminCategoryDelete(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.Content.DeleteCategory(c.Param("id")); err != nil {
		if msg, ok := adminErrorMessage(err); ok {
			return Render(c, a.Views.AdminCategories(a.Content.AllCategories(), msg, CsrfToken(c)))
		}
		return err
	}
	a.Cache.Invalidate()
	return Render(c, a.Views.AdminCategories(a.Content.AllCategories(), "", CsrfToken(c)))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	state := a.Sessions.Current()
	user := User{}
	if state.User != nil {
		user = *state.User
	}
	return Render(c, a.Views.AdminDashboard(a.Content.AllPosts(), a.Content.AllCategories(), user, msg, CsrfToken(c)))
}

func (a *App) renderPostFormErrors(c echo.Context, id string, in PostInput, errs []string) error {
	post := postFromInput(in)
	post.ID = id
	return Render(c, a.Views.AdminPostForm(post, a.Content.AllCategories(), a.Content.AllAuthors(), errs, CsrfToken(c)))
}

// adminErrorMessage maps store errors to the inline message shown in the
// admin UI. Unknown errors are not mapped and bubble up to the 500 page.
func adminErrorMessage(err error) (string, bool) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return strings.Join(vErr.Errors, "; "), true
	case errors.Is(err, ErrDuplicateSlug):
		return "Категория с таким slug уже существует", true
	case errors.Is(err, ErrCategoryInUse):
		return "Нельзя удалить категорию, пока в ней есть статьи", true
	case errors.Is(err, ErrNotFound):
		return "Запись не найдена", true
	}
	return "", false
}

// postInputFromForm collects the post form fields.
func postInputFromForm(c echo.Context) PostInput {
	tags := FilterEmpty(strings.Split(c.FormValue("tags"), ","))
	keywords := FilterEmpty(strings.Split(c.FormValue("seo_keywords"), ","))
	return PostInput{
		Title:          strings.TrimSpace(c.FormValue("title")),
		Content:        c.FormValue("content"),
		Excerpt:        strings.TrimSpace(c.FormValue("excerpt")),
		HeroImage:      strings.TrimSpace(c.FormValue("hero_image")),
		CategoryID:     c.FormValue("category"),
		Tags:           tags,
		AuthorID:       c.FormValue("author"),
		Status:         PostStatus(c.FormValue("status")),
		Featured:       c.FormValue("featured") != "",
		SEOTitle:       strings.TrimSpace(c.FormValue("seo_title")),
		SEODescription: strings.TrimSpace(c.FormValue("seo_description")),
		SEOKeywords:    keywords,
	}
}

// postFromInput echoes submitted values back into the form after a failed
// validation, without any derived fields.
func postFromInput(in PostInput) Post {
	return Post{
		Title:          in.Title,
		Content:        in.Content,
		Excerpt:        in.Excerpt,
		HeroImage:      in.HeroImage,
		CategoryID:     in.CategoryID,
		Tags:           in.Tags,
		AuthorID:       in.AuthorID,
		Status:         in.Status,
		Featured:       in.Featured,
		SEOTitle:       in.SEOTitle,
		SEODescription: in.SEODescription,
		SEOKeywords:    in.SEOKeywords,
	}
}
