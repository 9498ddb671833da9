package sitekit

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// processImage decodes an image from src, optionally resizes it down to
// maxImageWidth, and encodes it as JPEG. The returned Image carries the
// stable reference the post editor stores; only its URL ends up in a post.
func processImage(src io.Reader, originalName string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	filename := slugifyFilename(originalName) + ".jpg"

	return Image{
		ID:         uuid.NewString(),
		URL:        "/public/" + uploadsSubdir + "/" + filename,
		Name:       filename,
		Size:       buf.Len(),
		Type:       "image/jpeg",
		Width:      w,
		Height:     h,
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if s := Slugify(base); s != "" {
		return s
	}
	return "image"
}

// ensureUniqueFilename appends a counter while the name collides with a
// file on disk or an already stored metadata entry.
func (a *App) ensureUniqueFilename(img *Image) {
	dir := filepath.Join(a.staticDir, uploadsSubdir)
	base := strings.TrimSuffix(img.Name, ".jpg")
	candidate := img.Name
	counter := 1
	for {
		if _, err := os.Stat(filepath.Join(dir, candidate)); err == nil {
			counter++
			candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
			continue
		}
		found := false
		for _, existing := range a.Content.ListImages() {
			if existing.Name == candidate {
				found = true
				break
			}
		}
		if found {
			counter++
			candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
			continue
		}
		break
	}
	img.Name = candidate
	img.URL = "/public/" + uploadsSubdir + "/" + candidate
}

func (a *App) handleImageUpload(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "Файл не выбран")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "Файл слишком большой (максимум 10МБ)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Некорректное изображение: "+err.Error())
	}

	a.ensureUniqueFilename(&img)

	dir := filepath.Join(a.staticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, img.Name), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	if err := a.Content.SaveImage(img); err != nil {
		return err
	}

	return a.renderImageList(c)
}

func (a *App) handleImageDelete(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}

	id := c.Param("id")
	for _, img := range a.Content.ListImages() {
		if img.ID == id {
			// ignore error if file already gone
			_ = os.Remove(filepath.Join(a.staticDir, uploadsSubdir, img.Name))
			break
		}
	}
	if err := a.Content.DeleteImage(id); err != nil {
		return err
	}

	return a.renderImageList(c)
}

func (a *App) handleImageList(c echo.Context) error {
	if !a.isAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.renderImageList(c)
}

func (a *App) renderImageList(c echo.Context) error {
	return Render(c, a.Views.AdminImages(a.Content.ListImages(), CsrfToken(c)))
}
